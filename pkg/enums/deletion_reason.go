package enums

// DeletionReason classifies the outcome of a connected-account deletion attempt.
type DeletionReason string

const (
	DeletionReasonAlreadyDeleted DeletionReason = "already_deleted"
	DeletionReasonNonZeroBalance DeletionReason = "non_zero_balance"
	DeletionReasonUnknown        DeletionReason = "unknown"
)

// String implements fmt.Stringer.
func (r DeletionReason) String() string {
	return string(r)
}

// IsBenign reports whether the failure is expected and actionable by the owner
// rather than a platform defect.
func (r DeletionReason) IsBenign() bool {
	return r == DeletionReasonAlreadyDeleted || r == DeletionReasonNonZeroBalance
}
