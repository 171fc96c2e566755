package automation

// Outcome names the branch a rule took for one entity.
type Outcome string

const (
	OutcomeSkippedCompleted    Outcome = "skipped_completed"
	OutcomeSkippedDisabled     Outcome = "skipped_disabled"
	OutcomeSkippedNotFulfilled Outcome = "skipped_not_fulfilled"
	OutcomeNotUpdating         Outcome = "not_updating"
	OutcomeIssuedAtUpdated     Outcome = "issued_at_updated"
	OutcomeUpdateRejected      Outcome = "update_rejected"

	OutcomeShippingSkipped  Outcome = "shipping_skipped"
	OutcomeShippingZeroed   Outcome = "shipping_zeroed"
	OutcomeShippingRejected Outcome = "shipping_rejected"
)
