package models

import "time"

// Log levels after normalization. WARNING collapses to WARN at parse time.
const (
	LevelError   = "ERROR"
	LevelWarn    = "WARN"
	LevelInfo    = "INFO"
	LevelDebug   = "DEBUG"
	LevelUnknown = "UNKNOWN"
)

// Placeholder identities for formats that carry no service/host information.
const (
	ServiceUnknown      = "unknown"
	ServiceUnrecognized = "unrecognized"
	HostUnknown         = "unknown"
)

// LogRecord is the normalized form of one raw log line. The parser fills
// every field; AnomalyScore is written later by the scorer and is the only
// field mutated after parsing.
type LogRecord struct {
	ID           string    `json:"id,omitempty"`
	JobID        string    `json:"job_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	Level        string    `json:"level"`   // ERROR | WARN | INFO | DEBUG | UNKNOWN
	Service      string    `json:"service"` // "unknown" when absent, "unrecognized" on fallback
	Message      string    `json:"message"`
	Host         string    `json:"host"`
	TraceID      string    `json:"trace_id,omitempty"` // correlation id, populated by upstream emitters
	AnomalyScore float64   `json:"anomaly_score"`      // [0,1]; 0 = normal, 1 = confident anomaly
	RawLine      string    `json:"raw_line"`
}
