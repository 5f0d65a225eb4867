package testutil

import (
	"context"
	"sync"

	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/remote"
)

// Call is one request received by a FakeRemote.
type Call struct {
	Op  string
	IDs []string
}

// FakeRemote is a scriptable remote.Store. Each batch call succeeds with
// a count equal to the batch size unless an error or count override is
// set for its op. Summaries are returned in order; the last one repeats.
type FakeRemote struct {
	mu sync.Mutex

	calls     []Call
	errs      map[string]error
	counts    map[string]int
	summaries []*model.Summary
}

var _ remote.Store = (*FakeRemote)(nil)

func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		errs:   make(map[string]error),
		counts: make(map[string]int),
	}
}

// Fail makes every later call to op return err. A nil err clears it.
func (f *FakeRemote) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

// ReportCount makes op report n touched records.
func (f *FakeRemote) ReportCount(op string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[op] = n
}

// QueueSummary appends a summary for FetchSummary to return.
func (f *FakeRemote) QueueSummary(s *model.Summary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, s)
}

// Calls returns a copy of the recorded calls.
func (f *FakeRemote) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded calls for op.
func (f *FakeRemote) CallsTo(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeRemote) record(op string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]string, len(ids))
	copy(cp, ids)
	f.calls = append(f.calls, Call{Op: op, IDs: cp})
	return f.errs[op]
}

func (f *FakeRemote) batch(op string, ids []string) (remote.BatchResult, error) {
	if err := f.record(op, ids); err != nil {
		return remote.BatchResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if n, ok := f.counts[op]; ok {
		return remote.BatchResult{Count: n}, nil
	}
	return remote.BatchResult{Count: len(ids)}, nil
}

func (f *FakeRemote) MarkRead(_ context.Context, ids []string) (remote.BatchResult, error) {
	return f.batch("markRead", ids)
}

func (f *FakeRemote) MarkUnread(_ context.Context, ids []string) (remote.BatchResult, error) {
	return f.batch("markUnread", ids)
}

func (f *FakeRemote) Delete(_ context.Context, ids []string) (remote.BatchResult, error) {
	return f.batch("delete", ids)
}

func (f *FakeRemote) MarkAllRead(_ context.Context) error {
	return f.record("markAllRead", nil)
}

func (f *FakeRemote) FetchSummary(_ context.Context) (*model.Summary, error) {
	if err := f.record("fetchSummary", nil); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.summaries) == 0 {
		return &model.Summary{}, nil
	}
	s := f.summaries[0]
	if len(f.summaries) > 1 {
		f.summaries = f.summaries[1:]
	}
	return s, nil
}
