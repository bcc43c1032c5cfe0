package workflow

// ComputeDisposition maps a grading condition plus the inspector's decision
// onto one of the five disposition categories. Until an item has actually
// been inspected (condition set and not the Unknown sentinel) the answer is
// always Pending, whatever the decision says.
func ComputeDisposition(condition, decision string) string {
	if condition == "" || condition == ConditionUnknown {
		return DispositionPending
	}

	switch decision {
	case "Restock", "Resell":
		return DispositionRestock
	case "RTV", "Return", "ReturnToVendor":
		return DispositionRTV
	case "InternalUse":
		return DispositionInternalUse
	case "Recycle", "Scrap":
		return DispositionRecycle
	case "Claim":
		return DispositionClaim
	default:
		return DispositionPending
	}
}
