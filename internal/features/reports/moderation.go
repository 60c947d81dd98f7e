package reports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
	"github.com/xyz-asif/roadwatch/internal/pkg/metrics"
)

var transitions = map[Status]Status{
	StatusReported:   StatusInProgress,
	StatusInProgress: StatusResolved,
}

// CanTransition reports whether from -> to is one of the two legal steps
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// AllowedTransitions lists the targets reachable from status
func AllowedTransitions(status Status) []Status {
	if next, ok := transitions[status]; ok {
		return []Status{next}
	}
	return nil
}

// ActionsFor maps the allowed transitions to moderator buttons
func ActionsFor(status Status) Actions {
	return Actions{
		CanMarkInProgress: CanTransition(status, StatusInProgress),
		CanMarkResolved:   CanTransition(status, StatusResolved),
	}
}

// ParseFilter accepts all, reported, in-progress and resolved
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	f := Filter(s)
	if f == FilterAll || Status(f).Valid() {
		return f, nil
	}
	return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown filter %q", s)}
}

// ViewState describes the moderation view
type ViewState struct {
	Loading     bool      `json:"loading"`
	Error       string    `json:"error,omitempty"`
	Stale       bool      `json:"stale"`
	RefreshedAt time.Time `json:"refreshedAt,omitempty"`
	Count       int       `json:"count"`
}

// Moderator keeps the in-memory moderation view and performs guarded transitions
type Moderator struct {
	store Store
	log   *logger.Logger

	mu          sync.RWMutex
	reports     []Report
	loading     bool
	err         error
	stale       bool
	refreshedAt time.Time

	// seq numbers each fetch as it starts. A result older than applied is
	// dropped, and stale is only cleared by a fetch started after staleSeq.
	seq      uint64
	applied  uint64
	staleSeq uint64
}

func NewModerator(store Store) *Moderator {
	return &Moderator{
		store:   store,
		log:     logger.Default().Named("moderation"),
		loading: true,
	}
}

// Refresh replaces the view with the store's newest-first listing. On failure
// the view is emptied, stays loading and keeps the error. A fetch that finishes
// after a later-started one leaves the view alone.
func (m *Moderator) Refresh(ctx context.Context) ([]Report, error) {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	list, err := m.store.ListNewestFirst(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if seq < m.applied {
		m.log.Debug("dropping fetch %d, view already at %d", seq, m.applied)
		if err != nil {
			return nil, err
		}
		return append([]Report(nil), m.reports...), nil
	}
	m.applied = seq

	if err != nil {
		m.reports = nil
		m.loading = true
		m.err = err
		m.log.Error("failed to fetch reports: %v", err)
		return nil, err
	}

	m.reports = list
	m.loading = false
	m.err = nil
	if seq > m.staleSeq {
		m.stale = false
	}
	m.refreshedAt = time.Now()
	return append([]Report(nil), list...), nil
}

// MarkStale asks the next listing to refresh first
func (m *Moderator) MarkStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stale = true
	m.staleSeq = m.seq
}

// NeedsRefresh is true before the first successful fetch, after a failure or after MarkStale
func (m *Moderator) NeedsRefresh() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading || m.stale
}

// State snapshots the view status
func (m *Moderator) State() ViewState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := ViewState{
		Loading:     m.loading,
		Stale:       m.stale,
		RefreshedAt: m.refreshedAt,
		Count:       len(m.reports),
	}
	if m.err != nil {
		s.Error = m.err.Error()
	}
	return s
}

// List filters the current view. The newest-first order is preserved.
func (m *Moderator) List(filter Filter) ([]Report, error) {
	if filter == "" {
		filter = FilterAll
	}
	if filter != FilterAll && !Status(filter).Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown filter %q", filter)}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Report, 0, len(m.reports))
	for _, r := range m.reports {
		if filter == FilterAll || r.Status == Status(filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Advance moves a report one legal step. Illegal requests never reach the
// store. The update is a compare-and-set on the current status, so a lost race
// also ends in a *TransitionError. After success the view is refreshed.
func (m *Moderator) Advance(ctx context.Context, id string, target Status) (*Report, error) {
	if !target.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", target)}
	}

	current, err := m.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanTransition(current.Status, target) {
		metrics.StatusTransitions.WithLabelValues(string(target), "illegal").Inc()
		return nil, &TransitionError{From: current.Status, To: target}
	}

	ok, err := m.store.UpdateStatusIfCurrent(ctx, id, current.Status, target)
	if err != nil {
		metrics.StatusTransitions.WithLabelValues(string(target), "error").Inc()
		return nil, &PersistError{Err: err}
	}
	if !ok {
		metrics.StatusTransitions.WithLabelValues(string(target), "conflict").Inc()
		latest := current.Status
		if fresh, err := m.store.GetByID(ctx, id); err == nil {
			latest = fresh.Status
		}
		return nil, &TransitionError{From: latest, To: target}
	}
	metrics.StatusTransitions.WithLabelValues(string(target), "ok").Inc()

	if _, err := m.Refresh(ctx); err != nil {
		m.log.Warn("report %s moved to %s but the view refresh failed: %v", id, target, err)
	}

	updated, err := m.store.GetByID(ctx, id)
	if err != nil {
		current.Status = target
		return current, nil
	}
	return updated, nil
}

// Items decorates reports with their moderator actions
func Items(list []Report) []ModerationItem {
	items := make([]ModerationItem, len(list))
	for i, r := range list {
		items[i] = ModerationItem{Report: r, Actions: ActionsFor(r.Status)}
	}
	return items
}
