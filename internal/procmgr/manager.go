// Package procmgr implements the process registry spec.md §4.6 describes:
// PID allocation, creation, kill, listing, and subscriber fan-out. New
// relative to the teacher (GVM runs a single VM per invocation); grounded
// on the teacher's device bus (vm/devices.go's mutex-guarded consoleIO
// and its subscriber-style status dispatch), generalized from "one VM's
// device table" to "many VM instances in a process table".
package procmgr

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/optimuspime123/optimus-core/internal/process"
)

// startingPID matches spec.md §4.6's PID counter starting point.
const startingPID = 100

// Entry is one tracked process: the live VM plus whatever bookkeeping the
// registry needs to describe it in a listing, per spec.md §4.6's
// {vm, name, start_time, memory_usage_hint, owning_window_id?} record.
type Entry struct {
	PID       int
	Name      string
	System    bool
	WindowID  string
	StartTime time.Time

	Proc *process.Process
}

// MemoryUsage reports the entry's current memory usage hint, delegating
// to the live process's heap bump pointer (spec.md §4.6).
func (e *Entry) MemoryUsage() int { return e.Proc.MemoryUsage() }

// Event is delivered to subscribers on create/kill/autonomous-termination,
// mirroring the teacher's device bus dispatching a Response to whichever
// goroutine is listening (vm/devices.go).
type Event struct {
	Kind string // "created", "killed", "terminated"
	PID  int
}

// Manager is the process table: PID allocation, lookup, and subscriber
// fan-out, guarded by a mutex the way the teacher guards consoleIO even
// though its own driver loop is single-threaded - cheap insurance for
// callers arriving from a different goroutine than the step pump.
type Manager struct {
	mu sync.Mutex

	nextPID     int
	entries     map[int]*Entry
	subscribers []chan Event
}

// NewManager builds an empty process table with the PID counter starting
// at spec.md §4.6's 100.
func NewManager() *Manager {
	return &Manager{
		nextPID: startingPID,
		entries: make(map[int]*Entry),
	}
}

// CreateProcess registers an already-constructed process under its own
// PID and notifies subscribers. It neither allocates the PID (callers
// reserve one with NextPID) nor builds the process from a program.
func (m *Manager) CreateProcess(name string, proc *process.Process) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &Entry{PID: proc.PID, Name: name, StartTime: time.Now(), Proc: proc}
	m.entries[proc.PID] = e
	glog.Infof("process %d (%s) created", proc.PID, name)
	m.notifyLocked(Event{Kind: "created", PID: proc.PID})
	return e
}

// NextPID reserves and returns the next PID without registering anything,
// for callers that must construct a process.Process (which needs its PID
// up front) before handing it to CreateProcess.
func (m *Manager) NextPID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	pid := m.nextPID
	m.nextPID++
	return pid
}

// RegisterSystemProcess registers a process that did not come through the
// normal compile-and-run path (e.g. a host-provided background task),
// flagged so List/Kill can distinguish it if a caller cares to.
func (m *Manager) RegisterSystemProcess(name string, proc *process.Process) *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &Entry{PID: proc.PID, Name: name, System: true, StartTime: time.Now(), Proc: proc}
	m.entries[proc.PID] = e
	glog.Infof("system process %d (%s) registered", proc.PID, name)
	m.notifyLocked(Event{Kind: "created", PID: proc.PID})
	return e
}

// Get returns the entry for pid, if tracked.
func (m *Manager) Get(pid int) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[pid]
	return e, ok
}

// Kill marks the process Terminated and removes it from the table,
// notifying subscribers, per spec.md §4.6.
func (m *Manager) Kill(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.killLocked(pid)
}

// KillByWindow kills whichever tracked entry carries the given window ID,
// per spec.md §4.6's kill_by_window.
func (m *Manager) KillByWindow(windowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for pid, e := range m.entries {
		if e.WindowID == windowID {
			return m.killLocked(pid)
		}
	}
	return fmt.Errorf("no process owns window %q", windowID)
}

func (m *Manager) killLocked(pid int) error {
	e, ok := m.entries[pid]
	if !ok {
		return fmt.Errorf("no such process: %d", pid)
	}
	e.Proc.Kill()
	delete(m.entries, pid)
	glog.Infof("process %d (%s) killed", pid, e.Name)
	m.notifyLocked(Event{Kind: "killed", PID: pid})
	return nil
}

// List returns all tracked entries, sweeping out any that terminated on
// their own (fault or HALT) first, per spec.md §4.6's "list() sweeps
// autonomously-terminated entries" behavior.
func (m *Manager) List() []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	for pid, e := range m.entries {
		if e.Proc.State() == process.Terminated {
			delete(m.entries, pid)
			glog.Infof("process %d (%s) swept (terminated)", pid, e.Name)
			m.notifyLocked(Event{Kind: "terminated", PID: pid})
		}
	}

	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// Subscribe registers a channel to receive future Events, synchronously,
// from within whichever call mutated the registry - matching spec.md
// §5's "subscriber notifications happen synchronously inside the
// mutating call". The channel buffers up to 16 undelivered events; once
// it is full, the mutating call blocks until the subscriber drains it.
func (m *Manager) Subscribe() <-chan Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan Event, 16)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Unsubscribe removes a previously-subscribed channel and closes it.
func (m *Manager) Unsubscribe(ch <-chan Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subscribers {
		if sub == ch {
			close(sub)
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			return
		}
	}
}

func (m *Manager) notifyLocked(ev Event) {
	for _, sub := range m.subscribers {
		sub <- ev
	}
}
