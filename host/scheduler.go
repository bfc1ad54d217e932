package host

import (
	"sort"
	"sync"
	"time"
)

// TimerScheduler runs callbacks on timer goroutines
type TimerScheduler struct{}

func (TimerScheduler) After(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

type task struct {
	due time.Duration
	seq int
	fn  func()
}

// ManualScheduler queues callbacks until the owner advances its clock.
// Game loops call Advance once per tick; tests call it directly.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []task
}

// NewManualScheduler creates a scheduler with its clock at zero
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) After(delay time.Duration, fn func()) {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.tasks = append(s.tasks, task{due: s.now + delay, seq: s.seq, fn: fn})
}

// Advance moves the clock forward by d and runs every callback that became
// due, in due order. Callbacks scheduled while running are honoured if
// they fall inside the window. Returns the number of callbacks run.
func (s *ManualScheduler) Advance(d time.Duration) int {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()
	return s.advanceTo(target, -1)
}

// advanceTo runs due callbacks up to target. A non-negative limit caps the
// number run; the clock then stops at the last callback run.
func (s *ManualScheduler) advanceTo(target time.Duration, limit int) int {
	ran := 0
	for {
		s.mu.Lock()
		if limit >= 0 && ran >= limit {
			s.mu.Unlock()
			return ran
		}
		next, ok := s.popDue(target)
		if !ok {
			s.now = target
			s.mu.Unlock()
			return ran
		}
		if next.due > s.now {
			s.now = next.due
		}
		s.mu.Unlock()

		next.fn()
		ran++
	}
}

// DrainLimit bounds the callbacks one Drain call runs
const DrainLimit = 10000

// Drain runs the callbacks queued when it is called, up to the latest due
// time among them. Callbacks they schedule run too while they fall inside
// that window and DrainLimit is not reached; later ones stay pending.
func (s *ManualScheduler) Drain() int {
	s.mu.Lock()
	target := s.now
	for _, t := range s.tasks {
		if t.due > target {
			target = t.due
		}
	}
	s.mu.Unlock()
	return s.advanceTo(target, DrainLimit)
}

// Pending reports how many callbacks are queued
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Now is the scheduler clock
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// popDue removes the earliest task due at or before target. Caller holds mu.
func (s *ManualScheduler) popDue(target time.Duration) (task, bool) {
	if len(s.tasks) == 0 {
		return task{}, false
	}
	sort.SliceStable(s.tasks, func(i, j int) bool {
		if s.tasks[i].due != s.tasks[j].due {
			return s.tasks[i].due < s.tasks[j].due
		}
		return s.tasks[i].seq < s.tasks[j].seq
	})
	if s.tasks[0].due > target {
		return task{}, false
	}
	next := s.tasks[0]
	s.tasks = s.tasks[1:]
	return next, true
}
