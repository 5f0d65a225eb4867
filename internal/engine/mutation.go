package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/fleet-notify/internal/remote"
)

// Action is a mutation the user can invoke on one or more notifications.
type Action string

const (
	ActionMarkRead    Action = "markRead"
	ActionMarkUnread  Action = "markUnread"
	ActionDelete      Action = "delete"
	ActionMarkAllRead Action = "markAllRead"
)

// Phase is the lifecycle position of a Mutation.
type Phase string

const (
	PhaseOptimistic Phase = "optimistic"
	PhaseCommitted  Phase = "committed"
	PhaseRolledBack Phase = "rolledBack"
)

const (
	msgEmptyTarget = "Select at least one notification."
	msgAllRead     = "Every notification is already read."
)

// Prompt is what the confirmation collaborator shows before a
// destructive action.
type Prompt struct {
	Title   string
	Message string
	Warning string
}

// Request is a validated action waiting to begin. Requests that need
// confirmation must not be passed to Begin until the user agreed.
type Request struct {
	Action       Action
	IDs          []string
	NeedsConfirm bool
	Prompt       Prompt
}

// Mutation is one in-flight optimistic change. Action and IDs never
// change after Begin, so Run may be called from another goroutine.
type Mutation struct {
	ID     string
	Action Action
	IDs    []string

	phase Phase
	prior map[string]bool
}

// Phase returns the current phase.
func (m *Mutation) Phase() Phase { return m.phase }

// Outcome is the result of the single remote call of a Mutation.
// Count is -1 when the remote does not report one.
type Outcome struct {
	Count int
	Err   error
}

// Run issues the one remote request carrying the whole id batch.
func (m *Mutation) Run(ctx context.Context, store remote.Store) Outcome {
	var (
		res remote.BatchResult
		err error
	)
	switch m.Action {
	case ActionMarkRead:
		res, err = store.MarkRead(ctx, m.IDs)
	case ActionMarkUnread:
		res, err = store.MarkUnread(ctx, m.IDs)
	case ActionDelete:
		res, err = store.Delete(ctx, m.IDs)
	case ActionMarkAllRead:
		if err = store.MarkAllRead(ctx); err != nil {
			return Outcome{Count: -1, Err: err}
		}
		return Outcome{Count: -1}
	default:
		return Outcome{Count: -1, Err: fmt.Errorf("unknown action %q", m.Action)}
	}
	if err != nil {
		return Outcome{Count: -1, Err: err}
	}
	return Outcome{Count: res.Count}
}

// Resolution describes what Resolve did with an Outcome.
type Resolution struct {
	MutationID string
	Action     Action
	IDs        []string
	Phase      Phase

	// Err is the classified failure, nil on commit.
	Err error

	// Missing counts ids the remote no longer had. They are treated as
	// already applied.
	Missing int

	// Declined is set by Engine.Do when the confirmation was refused.
	Declined bool

	SelectionCleared bool

	// Refresh is the stats refresh issued after the mutation settled.
	Refresh *Refresh
}

// Mutations applies optimistic transforms to a Collection and commits or
// rolls them back once the remote answers. An id belongs to at most one
// optimistic mutation at a time.
type Mutations struct {
	items    *Collection
	inflight map[string]*Mutation
	log      zerolog.Logger
}

func newMutations(items *Collection, log zerolog.Logger) *Mutations {
	return &Mutations{
		items:    items,
		inflight: make(map[string]*Mutation),
		log:      log,
	}
}

// InFlight reports whether id is targeted by an optimistic mutation.
func (ms *Mutations) InFlight(id string) bool {
	_, ok := ms.inflight[id]
	return ok
}

// Pending returns the number of unresolved mutations.
func (ms *Mutations) Pending() int {
	seen := make(map[*Mutation]struct{})
	for _, m := range ms.inflight {
		seen[m] = struct{}{}
	}
	return len(seen)
}

// Prepare validates an action against the current collection. Ids that
// no longer exist are dropped. For ActionMarkAllRead ids is ignored and
// every shown unread notification is targeted.
func (ms *Mutations) Prepare(action Action, ids []string) (Request, error) {
	if action == ActionMarkAllRead {
		ids = ms.items.UnreadIDs()
		if len(ids) == 0 {
			return Request{}, newError(KindValidation, msgAllRead, nil)
		}
	}

	live, err := ms.check(ids)
	if err != nil {
		return Request{}, err
	}

	req := Request{Action: action, IDs: live}
	if action == ActionDelete {
		req.NeedsConfirm = true
		req.Prompt = deletePrompt(ms.items, live)
	}
	return req, nil
}

// check dedupes ids, drops stale ones and applies the in-flight guard.
func (ms *Mutations) check(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	live := make([]string, 0, len(ids))
	var stale int
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !ms.items.Has(id) {
			stale++
			continue
		}
		live = append(live, id)
	}
	if stale > 0 {
		ms.log.Debug().Int("stale", stale).Msg("dropped ids missing from collection")
	}
	if len(live) == 0 {
		return nil, newError(KindValidation, msgEmptyTarget, nil)
	}

	var busy []string
	for _, id := range live {
		if ms.InFlight(id) {
			busy = append(busy, id)
		}
	}
	if len(busy) > 0 {
		return nil, newError(KindBusy, "", busy)
	}
	return live, nil
}

func deletePrompt(items *Collection, ids []string) Prompt {
	p := Prompt{
		Title:   "Delete notification",
		Warning: "This cannot be undone.",
	}
	if len(ids) == 1 {
		title := items.Get(ids[0]).Title
		p.Message = fmt.Sprintf("Delete %q?", title)
		return p
	}
	p.Title = "Delete notifications"
	p.Message = fmt.Sprintf("Delete %d notifications?", len(ids))
	return p
}

// Begin applies the optimistic transform for req and registers the
// mutation as in flight. The request is checked again because the
// collection may have changed while a confirmation was open.
func (ms *Mutations) Begin(req Request) (*Mutation, error) {
	ids, err := ms.check(req.IDs)
	if err != nil {
		return nil, err
	}

	m := &Mutation{
		ID:     uuid.NewString(),
		Action: req.Action,
		IDs:    ids,
		phase:  PhaseOptimistic,
		prior:  make(map[string]bool, len(ids)),
	}
	for _, id := range ids {
		m.prior[id] = ms.items.Get(id).Read
		ms.inflight[id] = m
	}
	ms.apply(m)

	ms.logger(m).Debug().Str("phase", string(m.phase)).Msg("mutation applied")
	return m, nil
}

// apply performs the optimistic transform of m on whatever of its ids
// the collection holds.
func (ms *Mutations) apply(m *Mutation) {
	for _, id := range m.IDs {
		it := ms.items.Get(id)
		if it == nil {
			continue
		}
		switch m.Action {
		case ActionMarkRead, ActionMarkAllRead:
			it.Read = true
		case ActionMarkUnread:
			it.Read = false
		case ActionDelete:
			it.PendingDelete = true
		}
	}
}

// rollback restores exactly what apply changed.
func (ms *Mutations) rollback(m *Mutation) {
	for _, id := range m.IDs {
		it := ms.items.Get(id)
		if it == nil {
			continue
		}
		if m.Action == ActionDelete {
			it.PendingDelete = false
			continue
		}
		it.Read = m.prior[id]
	}
}

// reapply runs after a hydration: fresh records become the new rollback
// baseline and every optimistic transform is applied on top of them.
func (ms *Mutations) reapply() {
	done := make(map[*Mutation]struct{})
	for _, m := range ms.inflight {
		if _, ok := done[m]; ok {
			continue
		}
		done[m] = struct{}{}
		for _, id := range m.IDs {
			if it := ms.items.Get(id); it != nil {
				m.prior[id] = it.Read
			}
		}
		ms.apply(m)
	}
}

// Resolve settles m with the remote outcome. Resolving a mutation that
// already left the optimistic phase returns its phase and does nothing.
func (ms *Mutations) Resolve(m *Mutation, out Outcome) Resolution {
	res := Resolution{
		MutationID: m.ID,
		Action:     m.Action,
		IDs:        m.IDs,
		Phase:      m.phase,
	}
	if m.phase != PhaseOptimistic {
		return res
	}

	for _, id := range m.IDs {
		if ms.inflight[id] == m {
			delete(ms.inflight, id)
		}
	}

	log := ms.logger(m)
	if out.Err != nil {
		ms.rollback(m)
		m.phase = PhaseRolledBack
		e := classify(out.Err, m.IDs)
		res.Phase = m.phase
		res.Err = e
		log.Warn().Err(out.Err).Str("phase", string(m.phase)).Str("error_kind", string(e.Kind)).Msg("mutation rolled back")
		return res
	}

	if m.Action == ActionDelete {
		ms.items.Remove(m.IDs)
	}
	if out.Count >= 0 && out.Count < len(m.IDs) {
		res.Missing = len(m.IDs) - out.Count
		log.Info().Int("missing", res.Missing).Msg("remote no longer had some targets")
	}
	m.phase = PhaseCommitted
	res.Phase = m.phase
	log.Debug().Str("phase", string(m.phase)).Msg("mutation committed")
	return res
}

func (ms *Mutations) logger(m *Mutation) *zerolog.Logger {
	l := ms.log.With().
		Str("mutation_id", m.ID).
		Str("kind", string(m.Action)).
		Strs("ids", m.IDs).
		Logger()
	return &l
}
