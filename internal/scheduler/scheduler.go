// Package scheduler runs keyed one-shot callbacks where scheduling a key again replaces the previous callback.
package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs fn once after delay unless the key is rescheduled or cancelled first.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	Cancel(key string) bool
	Pending(key string) bool
}

type entry struct {
	timer *time.Timer
	seq   uint64
}

// TimerScheduler backs Scheduler with time.AfterFunc.
type TimerScheduler struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]entry
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{entries: map[string]entry{}}
}

// Schedule replaces any pending callback for key.
func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok {
		existing.timer.Stop()
	}
	s.seq++
	seq := s.seq
	timer := time.AfterFunc(delay, func() {
		// A replaced timer may already be running when Stop is called; the sequence
		// check keeps it from firing a superseded callback.
		s.mu.Lock()
		current, ok := s.entries[key]
		if !ok || current.seq != seq {
			s.mu.Unlock()
			return
		}
		delete(s.entries, key)
		s.mu.Unlock()
		fn()
	})
	s.entries[key] = entry{timer: timer, seq: seq}
}

// Cancel drops the pending callback for key. It reports whether one was pending.
func (s *TimerScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.entries[key]
	if !ok {
		return false
	}
	existing.timer.Stop()
	delete(s.entries, key)
	return true
}

func (s *TimerScheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Stop cancels every pending callback.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, existing := range s.entries {
		existing.timer.Stop()
		delete(s.entries, key)
	}
}

// Manual is a Scheduler that only fires when told to. Tests use it to control debounce windows.
type Manual struct {
	mu      sync.Mutex
	pending map[string]manualEntry
}

type manualEntry struct {
	delay time.Duration
	fn    func()
}

func NewManual() *Manual {
	return &Manual{pending: map[string]manualEntry{}}
}

func (m *Manual) Schedule(key string, delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[key] = manualEntry{delay: delay, fn: fn}
}

func (m *Manual) Cancel(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key]
	delete(m.pending, key)
	return ok
}

func (m *Manual) Pending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key]
	return ok
}

// Delay returns the delay the key was last scheduled with.
func (m *Manual) Delay(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pending[key]
	return e.delay, ok
}

// Fire runs the pending callback for key synchronously. It reports whether one ran.
func (m *Manual) Fire(key string) bool {
	m.mu.Lock()
	e, ok := m.pending[key]
	delete(m.pending, key)
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.fn()
	return true
}

// FireAll runs every pending callback and returns how many ran.
func (m *Manual) FireAll() int {
	m.mu.Lock()
	keys := make([]string, 0, len(m.pending))
	for key := range m.pending {
		keys = append(keys, key)
	}
	m.mu.Unlock()
	fired := 0
	for _, key := range keys {
		if m.Fire(key) {
			fired++
		}
	}
	return fired
}
