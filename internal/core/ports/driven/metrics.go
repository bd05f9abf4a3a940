package driven

import "time"

// Metrics records pipeline outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	JobFinished(status string, elapsed time.Duration)
	ModelCall(provider, outcome string)
	ImageUpload(result string)
	SchemaCache(result string)
}

// NopMetrics discards every observation
type NopMetrics struct{}

func (NopMetrics) JobFinished(string, time.Duration) {}
func (NopMetrics) ModelCall(string, string)          {}
func (NopMetrics) ImageUpload(string)                {}
func (NopMetrics) SchemaCache(string)                {}
