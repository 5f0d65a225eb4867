// Package engine is the notification list engine: filtering, sorting,
// selection, optimistic mutations, the context menu and the stats
// projection over one in-memory collection.
//
// An Engine is not safe for concurrent use. The client drives it from
// the Bubble Tea update loop; remote calls run through Mutation.Run and
// Refresh.Run on other goroutines and come back through Resolve and
// ApplyRefresh.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/remote"
)

// ErrClosed is returned by actions dispatched after Close.
var ErrClosed = newError(KindValidation, "The notification list is closed.", nil)

// Confirmer is the confirmation prompt awaited before destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "now" for date parsing and periods.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithLocale sets the collation language for title sorting.
func WithLocale(tag language.Tag) Option {
	return func(e *Engine) { e.locale = tag }
}

// WithWeekStart sets the first day of the week for the week period.
func WithWeekStart(d time.Weekday) Option {
	return func(e *Engine) { e.weekStart = d }
}

// WithConfirmer sets the prompt used by Do. Without one, Do declines
// every delete.
func WithConfirmer(c Confirmer) Option {
	return func(e *Engine) { e.confirmer = c }
}

// Engine owns the notification collection and every component that
// reads or changes it.
type Engine struct {
	items     *Collection
	filter    FilterState
	sort      SortState
	sorter    *Sorter
	selection *Selection
	mutations *Mutations
	menu      *ContextMenu
	stats     *Stats

	// settled is the refresh sequence issued by the latest commit or
	// rollback. Reloads issued before it carry a pre-mutation snapshot.
	settled uint64

	now       func() time.Time
	locale    language.Tag
	weekStart time.Weekday
	confirmer Confirmer
	log       zerolog.Logger
	closed    bool
}

// New returns an empty engine with default filter and sort.
func New(opts ...Option) *Engine {
	e := &Engine{
		filter:    DefaultFilter(),
		sort:      DefaultSort(),
		now:       time.Now,
		locale:    language.French,
		weekStart: time.Monday,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.items = newCollection()
	e.sorter = NewSorter(e.locale)
	e.selection = NewSelection()
	e.mutations = newMutations(e.items, e.log)
	e.menu = &ContextMenu{}
	e.stats = newStats(e.log)
	return e
}

// Calendar returns the period anchor for the current instant.
func (e *Engine) Calendar() Calendar {
	return Calendar{Now: e.now(), WeekStart: e.weekStart}
}

// Hydrate replaces the collection with ns. Optimistic changes of
// mutations still in flight are applied on top of the fresh records.
func (e *Engine) Hydrate(ns []model.Notification) {
	e.items.Replace(ns)
	e.mutations.reapply()
	if e.menu.State().Open() && !e.interactive(e.menu.State().ID) {
		e.menu.Close()
	}
	if e.items.Len() == 0 {
		e.selection.Clear()
	}
	e.recompute()
}

// Visible returns the filtered, sorted notifications. Items waiting on
// a delete are hidden.
func (e *Engine) Visible() []model.Notification {
	cal := e.Calendar()
	return e.sorter.Sort(Filter(e.items.Shown(), e.filter, cal), e.sort, cal.Now)
}

// Get returns the notification for id.
func (e *Engine) Get(id string) (model.Notification, bool) {
	it := e.items.Get(id)
	if it == nil {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// Len returns the size of the collection, pending deletes included.
func (e *Engine) Len() int { return e.items.Len() }

// Busy reports whether id is targeted by an unresolved mutation.
func (e *Engine) Busy(id string) bool { return e.mutations.InFlight(id) }

func (e *Engine) interactive(id string) bool {
	it := e.items.Get(id)
	return it != nil && !it.PendingDelete && !e.mutations.InFlight(id)
}

func (e *Engine) Filter() FilterState { return e.filter }

func (e *Engine) SetFilter(f FilterState) {
	e.filter = f
	e.stats.RecomputeVisible(e.Visible())
}

func (e *Engine) SetTypeFilter(t string) {
	f := e.filter
	f.Type = t
	e.SetFilter(f)
}

func (e *Engine) SetReadStatus(s ReadStatus) {
	f := e.filter
	f.ReadStatus = s
	e.SetFilter(f)
}

func (e *Engine) SetPeriod(p Period) {
	f := e.filter
	f.Period = p
	e.SetFilter(f)
}

func (e *Engine) SetSearch(term string) {
	f := e.filter
	f.Search = term
	e.SetFilter(f)
}

// ResetFilter restores the default filter.
func (e *Engine) ResetFilter() { e.SetFilter(DefaultFilter()) }

func (e *Engine) Sort() SortState { return e.sort }

// ToggleSort activates a sort control and returns the new state.
func (e *Engine) ToggleSort(c SortControl) SortState {
	e.sort = e.sort.Toggle(c)
	return e.sort
}

func (e *Engine) SetSort(s SortState) { e.sort = s }

func (e *Engine) Selection() *Selection { return e.selection }

// ToggleSelect flips the selection of id.
func (e *Engine) ToggleSelect(id string) bool { return e.selection.Toggle(id) }

// SelectVisible selects every visible notification.
func (e *Engine) SelectVisible() {
	for _, n := range e.Visible() {
		e.selection.Add(n.ID)
	}
}

func (e *Engine) ClearSelection() { e.selection.Clear() }

// Dispatch validates an action on ids. Delete requests come back with
// NeedsConfirm set; pass them to Begin only after the user agreed.
func (e *Engine) Dispatch(action Action, ids []string) (Request, error) {
	if e.closed {
		return Request{}, ErrClosed
	}
	return e.mutations.Prepare(action, ids)
}

// DispatchSelection dispatches action on the live part of the selection.
func (e *Engine) DispatchSelection(action Action) (Request, error) {
	return e.Dispatch(action, e.selection.Live(e.items.Has))
}

// MarkAllRead dispatches a mark-read of every unread notification.
func (e *Engine) MarkAllRead() (Request, error) {
	return e.Dispatch(ActionMarkAllRead, nil)
}

// Begin applies req optimistically. A selection the batch intersects is
// cleared here and is not restored if the mutation fails.
func (e *Engine) Begin(req Request) (*Mutation, error) {
	if e.closed {
		return nil, ErrClosed
	}
	m, err := e.mutations.Begin(req)
	if err != nil {
		return nil, err
	}
	if e.selection.Intersects(m.IDs) {
		e.selection.Clear()
	}
	if e.menu.State().Open() && !e.interactive(e.menu.State().ID) {
		e.menu.Close()
	}
	e.recompute()
	return m, nil
}

// Resolve settles m and issues the stats refresh that follows every
// commit or rollback. After Close it only releases the mutation.
func (e *Engine) Resolve(m *Mutation, out Outcome) Resolution {
	wasOptimistic := m.Phase() == PhaseOptimistic
	res := e.mutations.Resolve(m, out)
	if !wasOptimistic || e.closed {
		return res
	}

	if res.Phase == PhaseCommitted && e.selection.Intersects(m.IDs) {
		e.selection.Clear()
		res.SelectionCleared = true
	}
	if e.items.Len() == 0 && e.selection.Size() > 0 {
		e.selection.Clear()
		res.SelectionCleared = true
	}
	e.recompute()

	r := e.stats.BeginRefresh(false)
	e.settled = r.Seq
	res.Refresh = &r
	return res
}

func (e *Engine) recompute() {
	e.stats.Recompute(e.items.Shown(), e.Visible(), e.Calendar())
}

// OpenMenu opens the context menu for id, closing any other.
func (e *Engine) OpenMenu(id string) ([]MenuOption, error) {
	if !e.items.Has(id) {
		e.menu.Close()
		return nil, newError(KindStaleTarget, "", []string{id})
	}
	if !e.interactive(id) {
		return nil, newError(KindBusy, "", []string{id})
	}
	return e.menu.Open(id, e.items.Get(id).Read), nil
}

func (e *Engine) Menu() MenuState { return e.menu.State() }

// ChooseMenu closes the menu and dispatches the chosen option.
func (e *Engine) ChooseMenu(opt MenuOption) (Request, error) {
	intent, ok := e.menu.Choose(opt)
	if !ok {
		return Request{}, newError(KindValidation, "No action selected.", nil)
	}
	return e.Dispatch(intent.Action, intent.IDs)
}

// CloseMenu closes the context menu, as a click outside or cancel key.
func (e *Engine) CloseMenu() { e.menu.Cancel() }

func (e *Engine) Stats() Snapshot { return e.stats.Snapshot() }

// Refresh issues a summary fetch. With reload the answer also replaces
// the collection.
func (e *Engine) Refresh(reload bool) Refresh { return e.stats.BeginRefresh(reload) }

// ApplyRefresh installs a fetched summary unless a newer one was already
// applied. A reload issued before the latest mutation settled is dropped
// whole. It reports whether out was applied.
func (e *Engine) ApplyRefresh(out RefreshOutcome) bool {
	if e.closed {
		return false
	}
	if out.Reload && out.Seq < e.settled {
		e.log.Debug().Uint64("seq", out.Seq).Uint64("settled", e.settled).
			Msg("reload predates a settled mutation, discarded")
		return false
	}
	if out.Reload && out.Err == nil && out.Summary != nil && e.stats.Fresh(out.Seq) {
		e.Hydrate(out.Summary.Notifications)
	}
	return e.stats.Apply(out)
}

// Do runs action on ids to completion on the calling goroutine, asking
// the Confirmer before a delete. A declined confirmation returns a
// Resolution with Declined set and no error.
func (e *Engine) Do(ctx context.Context, store remote.Store, action Action, ids []string) (Resolution, error) {
	req, err := e.Dispatch(action, ids)
	if err != nil {
		return Resolution{}, err
	}
	if req.NeedsConfirm {
		ok := false
		if e.confirmer != nil {
			if ok, err = e.confirmer.Confirm(ctx, req.Prompt); err != nil {
				return Resolution{}, err
			}
		}
		if !ok {
			return Resolution{Action: req.Action, IDs: req.IDs, Declined: true}, nil
		}
	}

	m, err := e.Begin(req)
	if err != nil {
		return Resolution{}, err
	}
	res := e.Resolve(m, m.Run(ctx, store))
	if res.Refresh != nil {
		e.ApplyRefresh(res.Refresh.Run(ctx, store))
	}
	return res, res.Err
}

// Reload fetches the summary and hydrates the collection from it.
func (e *Engine) Reload(ctx context.Context, store remote.Store) error {
	out := e.Refresh(true).Run(ctx, store)
	if out.Err != nil {
		return classify(out.Err, nil)
	}
	e.ApplyRefresh(out)
	return nil
}

// Close tears the engine down. Later dispatches fail with ErrClosed and
// late outcomes are dropped. Close is idempotent.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.menu.Close()
	e.selection.Clear()
	e.log.Debug().Int("pending", e.mutations.Pending()).Msg("engine closed")
}

// IsClosedErr reports whether err came from a closed engine.
func IsClosedErr(err error) bool { return errors.Is(err, ErrClosed) }
