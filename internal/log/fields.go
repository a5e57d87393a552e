package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
	FieldInstanceID  = "instance_id"
	FieldExpenseID   = "expense_id"
	FieldExpenseKind = "kind"
	FieldMonth       = "month"
	FieldSequence    = "sequence"
	FieldAmountCents = "amount_cents"
	FieldBudgetName  = "budget_name"
	FieldEvent       = "event"
	FieldCount       = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentRegistry  = "registry"
	ComponentPlanner   = "planner"
	ComponentForecast  = "forecast"
	ComponentMigration = "migration"
	ComponentStorage   = "storage"
	ComponentBudgets   = "budgets"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpGenerate = "generate"
	OpPay      = "pay"
	OpExport   = "export"
	OpImport   = "import"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
