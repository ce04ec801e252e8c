package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CDMonsalveA/JobSearchTools/internal/domain"
	"github.com/CDMonsalveA/JobSearchTools/internal/events"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape/types"
	"github.com/CDMonsalveA/JobSearchTools/internal/store"
)

// Notifier is the delivery sink for run results. Both calls are best-effort:
// a false return is logged and never retried or escalated.
type Notifier interface {
	NotifyNewPostings(ctx context.Context, postings []domain.Posting, source string, totalScraped int) bool
	NotifyZeroResults(ctx context.Context, source string) bool
}

type CycleSummary struct {
	Scraped        int
	Saved          int
	FailedAdapters int
}

// Runner executes one scheduled cycle: every adapter isolated on its own
// goroutine, each with its own run record, sharing only the dedup store.
type Runner struct {
	DB                  *sql.DB
	Pipeline            *Pipeline
	Notifier            Notifier
	Hub                 *events.Hub
	NotifyOnZeroResults bool
	AdapterTimeout      time.Duration
}

func (r *Runner) adapterTimeout() time.Duration {
	if r.AdapterTimeout > 0 {
		return r.AdapterTimeout
	}
	return 5 * time.Minute
}

// RunCycle records a cycle-level run, fans the adapters out, and finishes the
// cycle record. One broken site never blocks the others: adapter errors stay
// inside their goroutine. Storage errors cancel the group and fail the cycle,
// since novelty cannot be determined without the store.
func (r *Runner) RunCycle(ctx context.Context, adapters []types.Adapter) (CycleSummary, error) {
	var sum CycleSummary

	cycle, err := store.StartRun(ctx, r.DB, "", len(adapters))
	if err != nil {
		// storage is down before anything started; non-durable channel only
		return sum, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex

	for _, a := range adapters {
		a := a
		g.Go(func() error {
			actx, cancel := context.WithTimeout(gctx, r.adapterTimeout())
			defer cancel()

			rec, err := store.StartRun(actx, r.DB, a.Name(), 1)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStorage, err)
			}

			log.Printf("[ingest] %s: running...", a.Name())
			out, runErr := r.Pipeline.Run(actx, a)

			status := domain.RunCompleted
			if runErr != nil {
				status = domain.RunFailed
			}
			r.finishRun(rec, status, out.ItemsScraped, len(out.NewPostings))

			mu.Lock()
			sum.Scraped += out.ItemsScraped
			sum.Saved += len(out.NewPostings)
			if runErr != nil {
				sum.FailedAdapters++
			}
			mu.Unlock()

			r.notify(out, runErr)

			if errors.Is(runErr, ErrStorage) {
				return runErr // cancels siblings; cycle fails
			}
			if runErr != nil {
				log.Printf("[ingest] %s: run failed: %v", a.Name(), runErr)
				return nil // isolated
			}
			log.Printf("[ingest] %s: scraped=%d new=%d skipped=%d",
				a.Name(), out.ItemsScraped, len(out.NewPostings), out.Skipped)
			return nil
		})
	}

	err = g.Wait()

	status := domain.RunCompleted
	if err != nil {
		status = domain.RunFailed
	}
	r.finishRun(cycle, status, sum.Scraped, sum.Saved)

	if r.Hub != nil {
		r.Hub.Publish(events.TypeRunFinished, map[string]any{
			"status":  string(status),
			"scraped": sum.Scraped,
			"saved":   sum.Saved,
		})
	}
	return sum, err
}

// finishRun writes the terminal state on a fresh context so a cancelled run
// still leaves a terminal record when the store is reachable.
func (r *Runner) finishRun(rec domain.RunRecord, status domain.RunStatus, scraped, saved int) {
	fctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.FinishRun(fctx, r.DB, rec, status, scraped, saved); err != nil {
		log.Printf("[ingest] finish run %s (%s): %v", rec.ID, rec.Source, err)
	}
}

// notify routes one adapter outcome to the right notifier call. New postings
// win over the zero-result signal; a run that failed before scraping anything
// is an adapter problem, not a breakage warning, so it produces neither.
func (r *Runner) notify(out Outcome, runErr error) {
	nctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch {
	case len(out.NewPostings) > 0:
		if r.Hub != nil {
			r.Hub.Publish(events.TypePostingsFound, map[string]any{
				"source": out.Source, "count": len(out.NewPostings),
			})
		}
		if r.Notifier != nil && !r.Notifier.NotifyNewPostings(nctx, out.NewPostings, out.Source, out.ItemsScraped) {
			log.Printf("[notify] new-postings notification failed source=%s count=%d",
				out.Source, len(out.NewPostings))
		}
	case runErr == nil && out.ItemsScraped == 0:
		if r.Hub != nil {
			r.Hub.Publish(events.TypeZeroResults, map[string]any{"source": out.Source})
		}
		if !r.NotifyOnZeroResults {
			return
		}
		if r.Notifier != nil && !r.Notifier.NotifyZeroResults(nctx, out.Source) {
			log.Printf("[notify] zero-results notification failed source=%s", out.Source)
		}
	}
}
