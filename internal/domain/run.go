package domain

import "time"

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one execution of the pipeline. Cycle-level records have an
// empty Source and SpiderCount = number of adapters attempted; per-adapter
// records carry the adapter name and SpiderCount 1.
type RunRecord struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at,omitzero"`
	Status       RunStatus `json:"status"`
	SpiderCount  int       `json:"spider_count"`
	ItemsScraped int       `json:"items_scraped"`
	ItemsSaved   int       `json:"items_saved"`
}
