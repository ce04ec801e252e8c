package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/CDMonsalveA/JobSearchTools/internal/config"
	"github.com/CDMonsalveA/JobSearchTools/internal/events"
	"github.com/CDMonsalveA/JobSearchTools/internal/httpapi"
	"github.com/CDMonsalveA/JobSearchTools/internal/ingest"
	"github.com/CDMonsalveA/JobSearchTools/internal/notify"
	"github.com/CDMonsalveA/JobSearchTools/internal/scheduler"
	"github.com/CDMonsalveA/JobSearchTools/internal/scrape"
	"github.com/CDMonsalveA/JobSearchTools/internal/store"
)

func main() {
	// Data dir: use env if provided, else local folder.
	dataDir := os.Getenv("JOBSEARCH_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// The scheduler assumes it is the only writer; a second instance would
	// double-fire every cycle and race the run records.
	lock := flock.New(filepath.Join(dataDir, "jobsearch.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("[main] instance lock: %v", err)
	}
	if !locked {
		log.Fatalf("[main] another instance is already running in %s", dataDir)
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("[main] config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable.
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		norm, vr := config.NormalizeAndValidate(cfg)
		if !vr.OK() {
			return cfg, fmt.Errorf("invalid config: %v", vr.Errors)
		}
		return norm, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("[main] config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(dataDir, dbPath)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("[main] open db: %v", err)
	}
	defer db.Close()
	if err := store.Migrate(db.Pool); err != nil {
		log.Fatalf("[main] migrate: %v", err)
	}

	hub := events.NewHub()
	runner := &ingest.Runner{
		DB:                  db.Pool,
		Pipeline:            &ingest.Pipeline{DB: db.Pool},
		Notifier:            notify.NewEmailNotifier(cfg),
		Hub:                 hub,
		NotifyOnZeroResults: cfg.Notifications.NotifyOnZeroResults,
	}

	var statusVal atomic.Value // stores ingest.Status
	statusVal.Store(ingest.Status{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCycle := func(ctx context.Context) error {
		cur := cfgVal.Load().(config.Config)
		adapters := scrape.Assemble(cur)

		st := statusVal.Load().(ingest.Status)
		st.Running = true
		statusVal.Store(st)

		sum, err := runner.RunCycle(ctx, adapters)

		now := time.Now().UTC().Format(time.RFC3339)
		st = statusVal.Load().(ingest.Status)
		st.Running = false
		st.LastRunAt = now
		st.LastScraped = sum.Scraped
		st.LastSaved = sum.Saved
		if err != nil {
			st.LastError = err.Error()
		} else {
			st.LastError = ""
			st.LastOkAt = now
		}
		statusVal.Store(st)
		return err
	}

	sched := &scheduler.Scheduler{Interval: cfg.Interval(), Run: runCycle}

	// Restart recovery: the last completed cycle record decides whether we
	// owe an immediate catch-up run.
	last, err := store.LastCompletedRun(ctx, db.Pool)
	if err != nil {
		log.Fatalf("[main] read run history: %v", err)
	}
	go sched.Start(ctx, scheduler.InitialDelay(last, cfg.Interval(), time.Now().UTC()))

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db.Pool,
		Hub:         hub,
		CfgVal:      &cfgVal,
		Status:      &statusVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		TriggerRun:  func() bool { return sched.TriggerNow(ctx) },
	})
	handler := httpapi.Chain(mux,
		httpapi.Cors,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
	)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Printf("[main] shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	log.Printf("[main] listening on http://%s (db=%s)", addr, dbPath)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
