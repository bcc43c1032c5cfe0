package workflow

// Status is the canonical pipeline state of a return record. Persisted data
// may still carry one of the historical naming schemes; MigrateStatus folds
// those onto this set at load time so decision logic only ever sees canonical
// values.
type Status string

const (
	StatusDraft          Status = "Draft"
	StatusRequested      Status = "Requested"
	StatusJobAccepted    Status = "JobAccepted"
	StatusBranchReceived Status = "BranchReceived"
	StatusConsolidated   Status = "Consolidated"
	StatusInTransit      Status = "InTransit"
	StatusHubReceived    Status = "HubReceived"
	StatusQCGraded       Status = "QCGraded"
	StatusDocumented     Status = "Documented"
	StatusCompleted      Status = "Completed"
	StatusRejected       Status = "Rejected"
)

// Disposition values for a graded item.
const (
	DispositionPending     = "Pending"
	DispositionRestock     = "Restock"
	DispositionRTV         = "RTV"
	DispositionInternalUse = "InternalUse"
	DispositionRecycle     = "Recycle"
	DispositionClaim       = "Claim"
)

// ConditionUnknown is the sentinel grading value meaning "not inspected yet".
const ConditionUnknown = "Unknown"

// Action identifies a requested transition on a return record.
type Action string

const (
	ActionRequest       Action = "Request"
	ActionJobAccept     Action = "JobAccept"
	ActionBranchReceive Action = "BranchReceive"
	ActionConsolidate   Action = "Consolidate"
	ActionDispatch      Action = "Dispatch"
	ActionHubReceive    Action = "HubReceive"
	ActionGrade         Action = "Grade"
	ActionDocument      Action = "Document"
	ActionComplete      Action = "Complete"
	ActionReject        Action = "Reject"
	ActionUndo          Action = "Undo"
)

// IsTerminal reports whether no further transition may leave s.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusRejected
}

// legacyStatuses maps every historical status string onto the canonical set.
// Three naming schemes accreted over the life of the original application:
// plain names, COL_-prefixed collection-flow names, and NCR_-prefixed
// non-conformance-flow names.
var legacyStatuses = map[string]Status{
	"Draft":     StatusDraft,
	"COL_Draft": StatusDraft,
	"NCR_Draft": StatusDraft,

	"Requested":       StatusRequested,
	"ReturnRequested": StatusRequested,
	"COL_Requested":   StatusRequested,
	"NCR_Requested":   StatusRequested,

	"JobAccepted":     StatusJobAccepted,
	"Accepted":        StatusJobAccepted,
	"COL_JobAccepted": StatusJobAccepted,

	"BranchReceived":     StatusBranchReceived,
	"ReceivedAtBranch":   StatusBranchReceived,
	"COL_BranchReceived": StatusBranchReceived,

	"Consolidated":     StatusConsolidated,
	"COL_Consolidated": StatusConsolidated,

	"InTransit":     StatusInTransit,
	"InTransitHub":  StatusInTransit,
	"COL_InTransit": StatusInTransit,
	"NCR_InTransit": StatusInTransit,

	"HubReceived":     StatusHubReceived,
	"ReceivedAtHub":   StatusHubReceived,
	"NCR_HubReceived": StatusHubReceived,

	"QCGraded":   StatusQCGraded,
	"Graded":     StatusQCGraded,
	"QCPassed":   StatusQCGraded,
	"NCR_Graded": StatusQCGraded,

	"Documented":     StatusDocumented,
	"NCR_Documented": StatusDocumented,
	// ReturnToSupplier overlapped status and disposition in the source data.
	// Status is authoritative here: the record is Documented and the RTV
	// routing lives in the disposition field (see MigrateRecordStatus).
	"ReturnToSupplier": StatusDocumented,

	"Completed":     StatusCompleted,
	"Closed":        StatusCompleted,
	"NCR_Completed": StatusCompleted,

	"Rejected":    StatusRejected,
	"Cancelled":   StatusRejected,
	"SoftDeleted": StatusRejected,
}

// MigrateStatus maps a persisted status string (legacy or canonical) onto the
// canonical set. The second return is false when the string is not recognised;
// callers must surface that rather than guess a stage.
func MigrateStatus(raw string) (Status, bool) {
	s, ok := legacyStatuses[raw]
	return s, ok
}

// MigrateRecordStatus resolves a persisted (status, disposition) pair.
// The only legacy value that encoded routing into the status field is
// ReturnToSupplier; it becomes Documented with disposition RTV. Everywhere
// else the stored disposition wins.
func MigrateRecordStatus(rawStatus, disposition string) (Status, string, bool) {
	s, ok := MigrateStatus(rawStatus)
	if !ok {
		return "", disposition, false
	}
	if rawStatus == "ReturnToSupplier" && (disposition == "" || disposition == DispositionPending) {
		disposition = DispositionRTV
	}
	if disposition == "" {
		disposition = DispositionPending
	}
	return s, disposition, true
}
