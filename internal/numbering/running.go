package numbering

import (
	"fmt"
	"strconv"
	"strings"
)

// Running-number prefixes, one per namespace.
const (
	PrefixReturn     = "RET"
	PrefixCollection = "COL"
	PrefixShipment   = "SHP"
	PrefixNCR        = "NCR"
)

// Scope builds the prefix+branch+year scope shared by GenerateRunningID and
// the sequence-counter table, e.g. "COL-CNX-2024".
func Scope(prefix, branch string, year int) string {
	return fmt.Sprintf("%s-%s-%d", prefix, BranchCode(branch), year)
}

// Format renders a running number within a scope, e.g. "COL-CNX-2024-0003".
func Format(scope string, n int64) string {
	return fmt.Sprintf("%s-%04d", scope, n)
}

// GenerateRunningID produces the next id in the prefix+branch+year scope from
// a snapshot of existing ids. It is deterministic and monotonic within the
// scope: the result is always max(existing)+1, so gaps in the sequence are
// never refilled. Live allocation goes through Service, which replaces this
// count-and-increment with an atomic counter; this function serves imports,
// backfills, and anything else that works off a fixed snapshot.
func GenerateRunningID(prefix, branch string, year int, existingIDs []string) string {
	scope := Scope(prefix, branch, year)
	var max int64
	for _, id := range existingIDs {
		rest, ok := strings.CutPrefix(id, scope+"-")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return Format(scope, max+1)
}
