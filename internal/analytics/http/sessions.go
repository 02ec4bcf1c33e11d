package analytichttp

import (
	"sync"
	"time"

	"github.com/salesdash/salesdash/internal/dashboard"
	"github.com/salesdash/salesdash/internal/snapshot"
)

// dashboardSession is the live view of one browser session: its controller
// and the exporter that serialises its PDF exports.
type dashboardSession struct {
	controller *dashboard.Controller
	exporter   *snapshot.Exporter
	lastSeen   time.Time
}

// registry keeps dashboard sessions in memory, keyed by session ID. Entries
// idle for longer than ttl are dropped on the next access.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*dashboardSession
	ttl      time.Duration
	now      func() time.Time
}

func newRegistry(ttl time.Duration) *registry {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &registry{sessions: make(map[string]*dashboardSession), ttl: ttl, now: time.Now}
}

func (r *registry) get(id string) (*dashboardSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	s, ok := r.sessions[id]
	if ok {
		s.lastSeen = r.now()
	}
	return s, ok
}

// put stores s under id, replacing any previous session.
func (r *registry) put(id string, s *dashboardSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.lastSeen = r.now()
	r.sessions[id] = s
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *registry) pruneLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) && (s.exporter == nil || s.exporter.State() == snapshot.StateIdle) {
			delete(r.sessions, id)
		}
	}
}
