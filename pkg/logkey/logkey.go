package logkey

// Common keys for structured log attributes so grepping logs stays consistent.
const (
	TraceID = "Trace ID"
	ERROR   = "ERROR"
	URL     = "URL"
	Method  = "METHOD"
	Status  = "STATUS CODE"
)
