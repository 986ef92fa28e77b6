package dtos

// OutcomeStatus is the per-entity result of one sync invocation.
type OutcomeStatus string

const (
	OutcomeSynced  OutcomeStatus = "synced"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// SyncOutcome is returned to callers for every per-entity operation.
type SyncOutcome struct {
	Status   OutcomeStatus `json:"status"`
	RemoteID string        `json:"remote_id,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Err      error         `json:"-"`
}

// Error returns the outcome's error message, empty when none.
func (o SyncOutcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// BatchError records one entity's failure inside a batch run.
type BatchError struct {
	ProductID   string `json:"product_id"`
	ProductType string `json:"product_type"`
	Error       string `json:"error"`
}

// BatchSummary aggregates a whole batch run.
type BatchSummary struct {
	SuccessCount int          `json:"success_count"`
	Errors       []BatchError `json:"errors"`
	Total        int          `json:"total"`
}

// PreviewResult is the dry-run view of one entity: eligibility, the payload
// that would be sent, and every validation violation found.
type PreviewResult struct {
	Eligible         bool            `json:"eligible"`
	SkipReason       string          `json:"skip_reason,omitempty"`
	Action           string          `json:"action,omitempty"`
	Payload          *ProductPayload `json:"payload,omitempty"`
	ValidationErrors []string        `json:"validation_errors,omitempty"`
}
