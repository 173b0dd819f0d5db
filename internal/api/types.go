package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Upload describes an upload and its pipelines in a transport-friendly format.
type Upload struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author,omitempty"`
	Description     string    `json:"description,omitempty"`
	ShowID          int64     `json:"showId"`
	Medium          string    `json:"medium"`
	ReferenceNumber string    `json:"referenceNumber"`
	AirAt           string    `json:"airAt,omitempty"`
	CreatedAt       string    `json:"createdAt,omitempty"`
	UpdatedAt       string    `json:"updatedAt,omitempty"`
	DurationSeconds float64   `json:"durationSeconds"`
	PlatformID      int       `json:"platformId,omitempty"`
	Pipelines       Pipelines `json:"pipelines"`
	OptimizationLog string    `json:"optimizationLog,omitempty"`
	Files           Files     `json:"files"`
}

// Pipelines holds the status label of each pipeline.
type Pipelines struct {
	Waveform     string `json:"waveform"`
	Optimization string `json:"optimization"`
	Export       string `json:"export"`
}

// Files lists public URLs of the stored media. Empty fields are not stored yet.
type Files struct {
	Original  string `json:"original,omitempty"`
	Optimized string `json:"optimized,omitempty"`
	Waveform  string `json:"waveform,omitempty"`
	Cover     string `json:"cover,omitempty"`
}

// PipelineCount is one row of the status summary.
type PipelineCount struct {
	Pipeline string `json:"pipeline"`
	Status   string `json:"status"`
	Count    int    `json:"count"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult is a readiness check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Status aggregates runtime health for /api/status.
type Status struct {
	Pipelines    []PipelineCount    `json:"pipelines"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks"`
}

// Accepted acknowledges a background job.
type Accepted struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}
