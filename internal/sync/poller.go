// Package sync schedules periodic summary refreshes for the client.
package sync

import (
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// SyncState represents the current state of the summary refresh.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of the last refresh.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// PollMsg is a tea.Msg asking the app to issue a summary refresh. Manual
// is set for refreshes the user asked for.
type PollMsg struct {
	At     time.Time
	Manual bool
}

const defaultInterval = 60 * time.Second

// Poller emits PollMsg on an interval and on demand. It never talks to
// the remote store itself: the app owns refresh sequencing and reports
// back through Done.
type Poller struct {
	interval  time.Duration
	status    SyncStatus
	pollCh    chan PollMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	now       func() time.Time
}

// New creates a Poller ticking every interval, 60s when not positive.
func New(interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		interval:  interval,
		pollCh:    make(chan PollMsg, 1),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
}

// Start launches the ticking goroutine and returns a tea.Cmd waiting for
// the first PollMsg. Calling Start twice returns nil; Start after Stop
// polls again.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	stop := p.stopCh
	p.mu.Unlock()

	go p.loop(stop)

	return p.WaitForNext()
}

// Stop halts the ticking goroutine.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// Trigger asks for an immediate refresh.
func (p *Poller) Trigger() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A trigger is already pending.
	}
}

// Begin marks a refresh as running.
func (p *Poller) Begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.State = SyncRunning
}

// Done records the result of a refresh.
func (p *Poller) Done(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.Error = err
	if err != nil {
		p.status.State = SyncError
		return
	}
	p.status.State = SyncIdle
	p.status.LastSync = p.now()
}

// Status returns the state of the last refresh.
func (p *Poller) Status() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case t := <-ticker.C:
			p.send(PollMsg{At: t})
		case <-p.triggerCh:
			p.send(PollMsg{At: p.now(), Manual: true})
		}
	}
}

// send delivers msg without blocking. A tick arriving while the previous
// one is still unread is dropped.
func (p *Poller) send(msg PollMsg) {
	select {
	case p.pollCh <- msg:
	default:
	}
}

// WaitForNext returns a tea.Cmd that waits for the next PollMsg. Call it
// again after handling each PollMsg to keep listening.
func (p *Poller) WaitForNext() tea.Cmd {
	p.mu.Lock()
	stop := p.stopCh
	p.mu.Unlock()

	return func() tea.Msg {
		select {
		case msg := <-p.pollCh:
			return msg
		case <-stop:
			return nil
		}
	}
}
