package profilesync

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubRepairer struct {
	mu    sync.Mutex
	calls int
	count int
	err   error
}

func (s *stubRepairer) RepairProfiles(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.count, s.err
}

func (s *stubRepairer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRunOnceLogsRepairs(t *testing.T) {
	var buf bytes.Buffer
	repairer := &stubRepairer{count: 2}
	w := NewWorker(Config{Repairer: repairer, Logger: zerolog.New(&buf)})

	w.runOnce(context.Background())

	if repairer.Calls() != 1 {
		t.Fatalf("expected one repair pass, got %d", repairer.Calls())
	}
	if !strings.Contains(buf.String(), `"repaired":2`) {
		t.Fatalf("expected repair count to be logged, got %q", buf.String())
	}
}

func TestRunOnceLogsErrors(t *testing.T) {
	var buf bytes.Buffer
	w := NewWorker(Config{Repairer: &stubRepairer{err: errors.New("db down")}, Logger: zerolog.New(&buf)})

	w.runOnce(context.Background())

	if !strings.Contains(buf.String(), "profile repair failed") || !strings.Contains(buf.String(), "db down") {
		t.Fatalf("expected error to be logged, got %q", buf.String())
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repairer := &stubRepairer{}
	w := NewWorker(Config{Repairer: repairer, Logger: zerolog.Nop(), Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	if repairer.Calls() < 2 {
		t.Fatalf("expected immediate and periodic passes, got %d", repairer.Calls())
	}
}
