package engine

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/remote"
)

// Snapshot is the counter block shown above the list. Authoritative is
// set once the figures came from the remote store rather than a local
// recompute.
type Snapshot struct {
	Total         int
	Unread        int
	Today         int
	Alerts        int
	Visible       int
	VisibleUnread int
	Authoritative bool
	Seq           uint64
}

// Refresh is one issued summary fetch.
type Refresh struct {
	Seq uint64

	// Reload asks the engine to hydrate the list from the answer too.
	Reload bool
}

// RefreshOutcome carries a fetched summary back with its sequence.
type RefreshOutcome struct {
	Seq     uint64
	Reload  bool
	Summary *model.Summary
	Err     error
}

// Run fetches the summary. Safe to call off the engine goroutine.
func (r Refresh) Run(ctx context.Context, store remote.Store) RefreshOutcome {
	sum, err := store.FetchSummary(ctx)
	return RefreshOutcome{Seq: r.Seq, Reload: r.Reload, Summary: sum, Err: err}
}

// Stats projects the counters. Local recomputes are immediate; remote
// refreshes overwrite them and are applied only in increasing sequence.
type Stats struct {
	snap    Snapshot
	issued  uint64
	applied uint64
	log     zerolog.Logger
}

func newStats(log zerolog.Logger) *Stats {
	return &Stats{log: log}
}

func (s *Stats) Snapshot() Snapshot { return s.snap }

// Recompute derives every counter from the local collection.
func (s *Stats) Recompute(all, visible []model.Notification, cal Calendar) {
	s.snap.Total = len(all)
	s.snap.Unread, s.snap.Today, s.snap.Alerts = 0, 0, 0
	for _, n := range all {
		if !n.Read {
			s.snap.Unread++
		}
		if strings.EqualFold(string(n.Type), string(model.TypeAlert)) {
			s.snap.Alerts++
		}
		if t, ok := ParseCreatedAt(n.CreatedAt, cal.Now); ok && cal.inPeriod(t, PeriodToday) {
			s.snap.Today++
		}
	}
	s.snap.Authoritative = false
	s.RecomputeVisible(visible)
}

// RecomputeVisible updates only the visible counters.
func (s *Stats) RecomputeVisible(visible []model.Notification) {
	s.snap.Visible = len(visible)
	s.snap.VisibleUnread = 0
	for _, n := range visible {
		if !n.Read {
			s.snap.VisibleUnread++
		}
	}
}

// BeginRefresh issues the next sequence number.
func (s *Stats) BeginRefresh(reload bool) Refresh {
	s.issued++
	return Refresh{Seq: s.issued, Reload: reload}
}

// Fresh reports whether seq is newer than the last applied refresh.
func (s *Stats) Fresh(seq uint64) bool { return seq > s.applied }

// Apply installs out when its sequence is newer than the last applied
// one. Failed fetches never advance the sequence.
func (s *Stats) Apply(out RefreshOutcome) bool {
	log := s.log.With().Uint64("seq", out.Seq).Uint64("applied", s.applied).Logger()
	if out.Err != nil {
		log.Warn().Err(out.Err).Msg("stats refresh failed")
		return false
	}
	if out.Summary == nil || out.Seq <= s.applied {
		log.Debug().Msg("stats refresh discarded")
		return false
	}

	s.applied = out.Seq
	s.snap.Total = out.Summary.TotalCount
	s.snap.Unread = out.Summary.UnreadCount
	s.snap.Today = out.Summary.TodayCount
	s.snap.Alerts = out.Summary.AlertsCount
	s.snap.Authoritative = true
	s.snap.Seq = out.Seq
	log.Debug().Msg("stats refresh applied")
	return true
}
