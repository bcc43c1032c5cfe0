package numbering

import "strings"

// DefaultBranchCode is used when a branch name has no entry in the lookup
// table.
const DefaultBranchCode = "GEN"

// branchCodes is the fixed branch-name → code lookup. Keys are the branch
// names as they appear on records; values feed the running-number scopes.
var branchCodes = map[string]string{
	"กรุงเทพฯ":      "BKK",
	"กรุงเทพมหานคร": "BKK",
	"เชียงใหม่":     "CNX",
	"ขอนแก่น":       "KKC",
	"หาดใหญ่":       "HDY",
	"ชลบุรี":        "CBI",
	"นครราชสีมา":    "NMA",
	"ภูเก็ต":        "HKT",
	"สุราษฎร์ธานี":  "URT",
	"พิษณุโลก":      "PLK",
	"อุดรธานี":      "UTH",
	"ระยอง":         "RYG",
	"สำนักงานใหญ่":  "HQ",
}

// BranchCode resolves a branch name to its 2-4 letter code. Names that are
// already short uppercase codes pass through unchanged; unknown names fall
// back to DefaultBranchCode.
func BranchCode(branch string) string {
	branch = strings.TrimSpace(branch)
	if code, ok := branchCodes[branch]; ok {
		return code
	}
	if len(branch) >= 2 && len(branch) <= 4 && branch == strings.ToUpper(branch) && isASCIILetters(branch) {
		return branch
	}
	return DefaultBranchCode
}

func isASCIILetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
