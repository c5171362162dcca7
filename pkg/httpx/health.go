package httpx

// HealthChecks reports per-dependency status inside a readiness probe.
type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Signer   string `json:"signer,omitempty"`
	KeyCache string `json:"key_cache,omitempty"`
}

// HealthResponse is the body returned by livez/readyz endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
