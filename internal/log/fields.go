package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldUserID      = "user_id"
	FieldAccountID   = "account_id"
	FieldToAccountID = "to_account_id"
	FieldCategoryID  = "category_id"
	FieldGoalID      = "goal_id"
	FieldTxnID       = "transaction_id"
	FieldGroupID     = "transfer_group"
	FieldAmountCents = "amount_cents"
	FieldDeltaCents  = "delta_cents"
	FieldDate        = "date"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldMonth       = "month"
	FieldCount       = "count"
)

// Components defines standard component names.
const (
	ComponentApp      = "app"
	ComponentStorage  = "storage"
	ComponentAccount  = "account"
	ComponentCategory = "category"
	ComponentLedger   = "ledger"
	ComponentTransfer = "transfer"
	ComponentGoal     = "goal"
	ComponentReport   = "report"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentExport   = "export"
	ComponentCache    = "cache"
)

// Operations defines standard operation names.
const (
	OpCreate  = "create"
	OpRead    = "read"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpList    = "list"
	OpReport  = "report"
	OpPublish = "publish"
	OpConsume = "consume"
	OpExport  = "export"
	OpStartup = "startup"
	OpShutdown = "shutdown"
)
