package logsift

// API response/request shapes shared between the HTTP layer and clients.

// UploadResponse acknowledges an accepted log upload.
type UploadResponse struct {
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// ServiceCount is one row of the "top services by volume" breakdown.
type ServiceCount struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
}

// HourCount is one row of the hourly volume breakdown (hour of day, 0-23).
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// AnalyticsResponse is the aggregate view over all stored records.
type AnalyticsResponse struct {
	TotalLogs       int            `json:"total_logs"`
	ErrorCount      int            `json:"error_count"`
	WarnCount       int            `json:"warn_count"`
	ErrorRate       float64        `json:"error_rate"` // percentage 0-100
	TopServices     []ServiceCount `json:"top_services"`
	AnomalyCount    int            `json:"anomaly_count"`
	HourlyBreakdown []HourCount    `json:"hourly_breakdown"`
}

// AskRequest is a natural-language question about the stored logs, optionally
// scoped to specific record ids.
type AskRequest struct {
	Query  string   `json:"query" binding:"required"`
	LogIDs []string `json:"log_ids,omitempty"`
}

// RootCauseAnalysis is the structured narrative produced by the analysis
// collaborator. When that collaborator fails or returns malformed output the
// orchestrator substitutes a fixed placeholder instead of erroring.
type RootCauseAnalysis struct {
	Cause    string `json:"cause"`
	Impact   string `json:"impact"`
	Solution string `json:"solution"`
}

// AskResponse pairs the narrative with the records that informed it.
type AskResponse struct {
	Analysis   RootCauseAnalysis `json:"analysis"`
	SimilarIDs []string          `json:"similar_ids"`
}
