package httpapi

import (
	"database/sql"
	"sync/atomic"

	"github.com/CDMonsalveA/JobSearchTools/internal/config"
	"github.com/CDMonsalveA/JobSearchTools/internal/events"
)

type Deps struct {
	DB *sql.DB

	Hub *events.Hub

	// Atomic stores
	CfgVal *atomic.Value // config.Config
	Status *atomic.Value // ingest.Status

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	// TriggerRun fires a cycle out of band; false means one is already
	// active and the trigger was dropped.
	TriggerRun func() bool
}
