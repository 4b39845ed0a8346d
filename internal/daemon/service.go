// Package daemon serves pipeline results over HTTP and reloads the input
// tables when they change on disk.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/theirongolddev/marginfc/internal/pipeline"
	"github.com/theirongolddev/marginfc/internal/source"
	"github.com/theirongolddev/marginfc/internal/store"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Tables       pipeline.Tables
	Columns      source.Columns
	Options      pipeline.Options
	CachePath    string // empty disables the result cache
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Logger       *zap.Logger
}

// Snapshot describes the currently loaded tables.
type Snapshot struct {
	At          time.Time `json:"at"`
	DataVersion string    `json:"data_version"`
	Records     int       `json:"records"`
	Categories  int       `json:"categories"`
	GrowthRates int       `json:"growth_rates"`
	FutureRows  int       `json:"future_rows"`
	ParseErrors int       `json:"parse_errors"`
}

// Event is emitted whenever the tables are (re)loaded.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastLoadAt      time.Time `json:"last_load_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	LoadCount       int64     `json:"load_count"`
	HistoryPath     string    `json:"history_path"`
	GrowthPath      string    `json:"growth_path,omitempty"`
	FuturePath      string    `json:"future_path,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg   Config
	log   *zap.Logger
	cache *store.Cache

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	lastLoadAt  time.Time
	pollCount   int64
	loadCount   int64
	lastError   string
	fingerprint string
	runner      *pipeline.Runner
	snapshot    Snapshot
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 15 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:       cfg,
		log:       log.Named("daemon"),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP routes.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/categories", s.handleCategories)
	mux.HandleFunc("GET /v1/pipeline", s.handlePipeline)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.CachePath != "" {
		cache, err := store.Open(s.cfg.CachePath)
		if err != nil {
			s.log.Warn("result cache unavailable", zap.String("path", s.cfg.CachePath), zap.Error(err))
		} else {
			s.cache = cache
			defer func() { _ = cache.Close() }()
		}
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial load so queries are answerable immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce reloads the tables when any of their files changed since the last load.
func (s *Service) pollOnce(ctx context.Context) {
	now := time.Now()
	fp, err := s.tablesFingerprint()
	if err == nil {
		s.mu.RLock()
		unchanged := s.runner != nil && fp == s.fingerprint
		s.mu.RUnlock()
		if unchanged {
			s.mu.Lock()
			s.lastPollAt = now
			s.pollCount++
			s.mu.Unlock()
			return
		}
	}

	var (
		loaded *pipeline.LoadResult
		runner *pipeline.Runner
	)
	if err == nil {
		loaded, err = pipeline.LoadTables(ctx, s.cfg.Tables, s.cfg.Columns, nil)
	}
	if err == nil {
		runner, err = pipeline.NewRunner(loaded.Input, s.cfg.Options, s.cache, s.log)
	}
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.log.Error("loading tables", zap.Error(err))
		return
	}

	snap := Snapshot{
		At:          now,
		DataVersion: runner.Version(),
		Records:     len(loaded.Input.Records),
		Categories:  len(runner.Categories()) - 1,
		GrowthRates: len(loaded.Input.GrowthRates),
		FutureRows:  len(loaded.Input.FutureRows),
		ParseErrors: loaded.ParseErrors(),
	}

	s.mu.Lock()
	eventType := "reload"
	if s.runner == nil {
		eventType = "snapshot"
	}
	s.runner = runner
	s.fingerprint = fp
	s.snapshot = snap
	s.lastPollAt = now
	s.lastLoadAt = now
	s.pollCount++
	s.loadCount++
	s.lastError = ""
	s.nextEventID++
	ev := Event{ID: s.nextEventID, Type: eventType, Timestamp: now, Snapshot: snap}
	s.mu.Unlock()

	s.log.Info("tables loaded",
		zap.String("data_version", snap.DataVersion),
		zap.Int("records", snap.Records),
		zap.Int("parse_errors", snap.ParseErrors))

	if s.cache != nil {
		if n, err := s.cache.Prune(snap.DataVersion); err != nil {
			s.log.Warn("pruning result cache", zap.Error(err))
		} else if n > 0 {
			s.log.Debug("pruned stale results", zap.Int64("rows", n))
		}
	}

	s.publishEvent(ev)
}

// tablesFingerprint summarizes the size and mtime of every configured table.
func (s *Service) tablesFingerprint() (string, error) {
	var fp string
	for _, path := range []string{s.cfg.Tables.HistoryPath, s.cfg.Tables.GrowthPath, s.cfg.Tables.FuturePath} {
		if path == "" {
			fp += "-;"
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		fp += fmt.Sprintf("%d:%d;", info.Size(), info.ModTime().UnixNano())
	}
	return fp, nil
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastLoadAt:      s.lastLoadAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		LoadCount:       s.loadCount,
		HistoryPath:     s.cfg.Tables.HistoryPath,
		GrowthPath:      s.cfg.Tables.GrowthPath,
		FuturePath:      s.cfg.Tables.FuturePath,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) currentRunner() *pipeline.Runner {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runner
}
