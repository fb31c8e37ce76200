/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"sort"
	"sync"
	"time"
)

// Task is a handle to a scheduled callback. Once Stop returns, the callback
// never runs again, even if its timer already fired.
type Task interface {
	Stop()
}

// Scheduler starts delayed and repeating callbacks.
type Scheduler interface {
	After(d time.Duration, fn func()) Task
	Every(d time.Duration, fn func()) Task
}

// minInterval keeps a repeating task from spinning.
const minInterval = time.Millisecond

type loopTask struct {
	mu      sync.Mutex
	stopped bool
	done    chan struct{}
}

func newLoopTask() *loopTask {
	return &loopTask{done: make(chan struct{})}
}

func (t *loopTask) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.stopped = true
	close(t.done)
}

func (t *loopTask) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stopped
}

// LoopScheduler runs every callback through post, which hands it to the
// single goroutine that owns the game state. A callback whose task was
// stopped between the timer firing and post running it is dropped there.
type LoopScheduler struct {
	post func(func())
}

func NewLoopScheduler(post func(func())) *LoopScheduler {
	return &LoopScheduler{post: post}
}

func (l *LoopScheduler) After(d time.Duration, fn func()) Task {
	t := newLoopTask()
	timer := time.NewTimer(d)

	go func() {
		select {
		case <-timer.C:
			l.post(func() {
				if t.isStopped() {
					return
				}
				t.Stop()
				fn()
			})
		case <-t.done:
			timer.Stop()
		}
	}()

	return t
}

func (l *LoopScheduler) Every(d time.Duration, fn func()) Task {
	t := newLoopTask()
	ticker := time.NewTicker(max(d, minInterval))

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.post(func() {
					if t.isStopped() {
						return
					}
					fn()
				})
			case <-t.done:
				return
			}
		}
	}()

	return t
}

type manualTask struct {
	due     time.Duration
	every   time.Duration
	seq     int
	fn      func()
	stopped bool
}

func (t *manualTask) Stop() {
	t.stopped = true
}

// ManualScheduler only moves when Advance is called, which makes timed play
// reproducible. It is not safe for concurrent use.
type ManualScheduler struct {
	now   time.Duration
	seq   int
	tasks []*manualTask
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) After(d time.Duration, fn func()) Task {
	return m.add(d, 0, fn)
}

func (m *ManualScheduler) Every(d time.Duration, fn func()) Task {
	d = max(d, minInterval)

	return m.add(d, d, fn)
}

func (m *ManualScheduler) add(d, every time.Duration, fn func()) *manualTask {
	t := &manualTask{
		due:   m.now + max(d, 0),
		every: every,
		seq:   m.seq,
		fn:    fn,
	}
	m.seq++
	m.tasks = append(m.tasks, t)

	return t
}

// Now is the virtual time elapsed since the scheduler was created.
func (m *ManualScheduler) Now() time.Duration {
	return m.now
}

// Pending counts tasks that can still fire.
func (m *ManualScheduler) Pending() int {
	n := 0
	for _, t := range m.tasks {
		if !t.stopped {
			n++
		}
	}

	return n
}

// Advance moves virtual time forward by d, running due callbacks in order.
// Callbacks may schedule or stop other tasks.
func (m *ManualScheduler) Advance(d time.Duration) {
	target := m.now + d

	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}

		m.now = next.due
		if next.every > 0 {
			next.due += next.every
		} else {
			next.stopped = true
		}

		next.fn()
	}

	m.now = target
	m.compact()
}

func (m *ManualScheduler) nextDue(limit time.Duration) *manualTask {
	var due []*manualTask
	for _, t := range m.tasks {
		if !t.stopped && t.due <= limit {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})

	return due[0]
}

func (m *ManualScheduler) compact() {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.tasks = live
}
