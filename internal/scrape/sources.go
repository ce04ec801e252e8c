// Package scrape assembles the enabled extraction adapters for a run.
package scrape

import (
	"github.com/CDMonsalveA/JobSearchTools/internal/config"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/emailalert"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/phenom"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/staticsite"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/types"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/util"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/workday"
	"github.com/CDMonsalveA/JobSearchTools/internal/secrets"
)

// Assemble builds one adapter per configured source. All HTTP adapters share
// a single per-host limiter so two boards on the same platform never hammer
// one site together.
func Assemble(cfg config.Config) []types.Adapter {
	limiter := util.NewHostLimiter(cfg.Limits.RequestsPerSecond, cfg.Limits.Burst)

	var adapters []types.Adapter

	if cfg.Sources.Phenom.Enabled {
		for _, b := range cfg.Sources.Phenom.Boards {
			adapters = append(adapters, phenom.New(phenom.Board{
				Name: b.Name, Company: b.Company, URL: b.URL,
			}, limiter))
		}
	}
	if cfg.Sources.Workday.Enabled {
		for _, b := range cfg.Sources.Workday.Boards {
			adapters = append(adapters, workday.New(workday.Board{
				Name: b.Name, Company: b.Company, URL: b.URL,
			}, limiter))
		}
	}
	if cfg.Sources.Static.Enabled {
		for _, s := range cfg.Sources.Static.Sites {
			adapters = append(adapters, staticsite.New(s, limiter))
		}
	}
	if cfg.EmailAlerts.Enabled {
		ec := cfg.EmailAlerts
		adapters = append(adapters, emailalert.New(cfg, func() (string, error) {
			return secrets.GetPassword(secrets.IMAPAccount(ec.Username, ec.IMAPHost))
		}))
	}
	return adapters
}
