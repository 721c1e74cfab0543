package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/energy-climate-stats/internal/ingest"
)

// DirImporter imports every pending file in a directory.
type DirImporter interface {
	ImportDir(ctx context.Context, dir string) ([]ingest.Result, error)
}

// Scheduler periodically imports CSV exports dropped into a directory.
type Scheduler struct {
	scheduler *gocron.Scheduler
	importer  DirImporter
	dir       string
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(dir string, interval time.Duration, importer DirImporter) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		importer:  importer,
		dir:       dir,
		interval:  interval,
		timeout:   5 * time.Minute,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if s.dir == "" {
		log.Info().Msg("scheduler: no import directory configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	if _, err := s.scheduler.Every(interval).Do(s.RunOnce); err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Info().Str("dir", s.dir).Dur("interval", interval).Msg("scheduler: csv import scheduled")
	return nil
}

// RunOnce performs a single import pass.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log.Debug().Str("dir", s.dir).Msg("scheduler: running csv import job")
	results, err := s.importer.ImportDir(ctx, s.dir)
	if err != nil {
		log.Error().Err(err).Str("dir", s.dir).Msg("scheduler: csv import finished with errors")
	}

	imported := 0
	for _, r := range results {
		imported += r.Imported
	}
	log.Info().Int("files", len(results)).Int("rows", imported).Msg("scheduler: completed csv import job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
