package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldGoalID     = "goal_id"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp           = "app"
	ComponentHTTP          = "http"
	ComponentAccount       = "account"
	ComponentLedger        = "ledger"
	ComponentGoals         = "goals"
	ComponentNotifications = "notifications"
	ComponentReports       = "reports"
	ComponentStorage       = "storage"
	ComponentAMQP          = "amqp"
	ComponentWorker        = "worker"
	ComponentCLI           = "cli"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpDelete     = "delete"
	OpContribute = "contribute"
	OpGenerate   = "generate"
	OpLogin      = "login"
	OpRegister   = "register"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpPurge      = "purge"
	OpRender     = "render"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
