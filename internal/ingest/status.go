package ingest

// Status is the last-cycle snapshot served by the status API. Stored in an
// atomic.Value and replaced wholesale after each cycle.
type Status struct {
	LastRunAt   string `json:"last_run_at"`
	LastOkAt    string `json:"last_ok_at"`
	LastError   string `json:"last_error"`
	LastScraped int    `json:"last_scraped"`
	LastSaved   int    `json:"last_saved"`
	Running     bool   `json:"running"`
}
