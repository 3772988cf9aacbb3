package log

// Shared field names so log lines stay greppable across packages.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentBudget  = "budget"
	ComponentStorage = "storage"
	ComponentBackend = "backend"
	ComponentEvents  = "events"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
)
