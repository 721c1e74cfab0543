package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/i474232898/energy-climate-stats/internal/ingest"
)

type fakeImporter struct {
	calls chan string
	err   error
}

func (f *fakeImporter) ImportDir(ctx context.Context, dir string) ([]ingest.Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected a bounded context")
	}
	f.calls <- dir
	return []ingest.Result{{Kind: ingest.KindEnergy, Imported: 3}}, f.err
}

func TestStartWithoutDirIsNoop(t *testing.T) {
	imp := &fakeImporter{calls: make(chan string, 1)}
	s := New("", time.Minute, imp)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case dir := <-imp.calls:
		t.Fatalf("expected no import, got one for %q", dir)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestStartRunsImmediately(t *testing.T) {
	imp := &fakeImporter{calls: make(chan string, 1)}
	s := New("/inbox", time.Minute, imp)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case dir := <-imp.calls:
		if dir != "/inbox" {
			t.Fatalf("expected /inbox, got %q", dir)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected the first import to run on start")
	}
}

func TestStartHonoursSubMinuteInterval(t *testing.T) {
	imp := &fakeImporter{calls: make(chan string, 16)}
	s := New("/inbox", 100*time.Millisecond, imp)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for runs := 0; runs < 3; runs++ {
		select {
		case <-imp.calls:
		case <-deadline:
			t.Fatalf("expected at least 3 runs within 2s, got %d", runs)
		}
	}
}

func TestRunOnceToleratesErrors(t *testing.T) {
	imp := &fakeImporter{calls: make(chan string, 1), err: errors.New("boom")}
	s := New("/inbox", time.Minute, imp)

	s.RunOnce()

	if got := <-imp.calls; got != "/inbox" {
		t.Fatalf("expected /inbox, got %q", got)
	}
}
