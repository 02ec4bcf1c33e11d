package snapshot

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/salesdash/salesdash/internal/dashboard"
	"github.com/salesdash/salesdash/internal/shared"
)

// ErrStageClosed is returned by Fill once the stage was torn down.
var ErrStageClosed = errors.New("snapshot: stage torn down")

// Stage is the off-screen container an export is laid out in, plus the
// loading indicator shown meanwhile. Both are page singletons.
type Stage struct {
	page    *dashboard.Page
	settled chan struct{}
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

// Mount attaches the export container and shows the loading indicator,
// reusing either node when it already exists.
func Mount(page *dashboard.Page) *Stage {
	page.Attach(dashboard.ExportContainer)
	page.Attach(dashboard.LoadingIndicator)
	return &Stage{page: page, settled: make(chan struct{})}
}

// Fill places the assembled document in the container and signals that its
// layout is settled. A torn down stage no longer owns the container, which a
// later export may have mounted again, so Fill leaves it alone.
func (s *Stage) Fill(html []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStageClosed
	}
	err := s.page.SetContent(dashboard.ExportContainer, template.HTML(html))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.Settle()
	return nil
}

// Settle releases waiters. Safe to call more than once.
func (s *Stage) Settle() {
	s.once.Do(func() { close(s.settled) })
}

// Settled is closed once the stage content is laid out.
func (s *Stage) Settled() <-chan struct{} {
	return s.settled
}

// Await blocks until the stage settles, ctx ends or timeout elapses.
func (s *Stage) Await(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-s.settled:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", shared.ErrConversionFailure, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("%w: layout not settled after %s", shared.ErrConversionFailure, timeout)
	}
}

// Teardown removes the container and hides the indicator. Idempotent.
func (s *Stage) Teardown() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.page.Remove(dashboard.ExportContainer)
		s.page.Hide(dashboard.LoadingIndicator)
	}
	s.mu.Unlock()
	s.Settle()
}
