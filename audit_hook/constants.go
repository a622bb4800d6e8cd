package audithook

// Action constants for audit events.
const (
	// Creator actions
	ActionCreatorProfileCreated = "creator.profile_created"
	ActionCreatorPricesUpdated  = "creator.prices_updated"

	// Subscription actions
	ActionSubscriptionCreated  = "subscription.created"
	ActionSubscriptionPaused   = "subscription.paused"
	ActionSubscriptionResumed  = "subscription.resumed"
	ActionSubscriptionExtended = "subscription.extended"
	ActionSubscriptionCanceled = "subscription.canceled"

	// Payment actions
	ActionPaymentTransferred = "payment.transferred"

	// Failure actions
	ActionOperationFailed = "operation.failed"
)

// Resource constants for audit events.
const (
	ResourceCreatorConfig = "creator_config"
	ResourceSubscription  = "subscription"
	ResourcePayment       = "payment"
	ResourceOperation     = "operation"
)

// Category constants for audit events.
const (
	CategoryCreator      = "creator"
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
	CategoryAccess       = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
