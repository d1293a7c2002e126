// Package turbodo is a to-do list whose completions play a short celebration before the item
// settles at the bottom of the list.
package turbodo

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// CompletionDelay is how long a checked task shows its celebration.
	CompletionDelay = 2 * time.Second
	// ConfettiPieces is the number of confetti pieces spawned per completion.
	ConfettiPieces = 15
)

var (
	ErrEmptyTask = errors.New("task text is empty")
	ErrNoTask    = errors.New("task not found")
	ErrTaskDone  = errors.New("task already completed")
)

type State int

const (
	Pending State = iota
	Completing
	Done
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Completing:
		return "completing"
	case Done:
		return "done"
	}
	return "unknown"
}

// Confetti is one decorative piece. Left is a percentage of the row width.
type Confetti struct {
	Left  float64
	Hue   float64
	Delay time.Duration
}

type Task struct {
	ID       int
	Text     string
	State    State
	Car      bool
	Zoom     bool
	Confetti []Confetti
	Disabled bool
}

// Timer is the handle returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

// Clock schedules the completion timers.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Option func(*Board)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(b *Board) { b.clock = c }
}

type Board struct {
	clock Clock

	mu        sync.Mutex
	nextID    int
	tasks     []*Task
	timers    map[int]Timer
	listeners []func([]Task)
}

func NewBoard(opts ...Option) *Board {
	b := &Board{
		clock:  realClock{},
		nextID: 1,
		timers: make(map[int]Timer),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnChange registers fn to receive the task list after every change.
func (b *Board) OnChange(fn func([]Task)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

// Tasks returns a copy of the list, top first.
func (b *Board) Tasks() []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

func (b *Board) snapshotLocked() []Task {
	out := make([]Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		c := *t
		c.Confetti = append([]Confetti(nil), t.Confetti...)
		out = append(out, c)
	}
	return out
}

// AddTask puts a new pending task at the top of the list.
func (b *Board) AddTask(text string) (Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Task{}, ErrEmptyTask
	}
	b.mu.Lock()
	t := &Task{ID: b.nextID, Text: text, State: Pending, Car: true}
	b.nextID++
	b.tasks = append([]*Task{t}, b.tasks...)
	added := *t
	b.mu.Unlock()

	b.notify()
	return added, nil
}

// Check starts the completion of a pending task. Checking a task that is already
// completing does nothing. Completed tasks cannot be checked again.
func (b *Board) Check(id int) error {
	b.mu.Lock()
	t := b.findLocked(id)
	if t == nil {
		b.mu.Unlock()
		return ErrNoTask
	}
	switch t.State {
	case Done:
		b.mu.Unlock()
		return ErrTaskDone
	case Completing:
		b.mu.Unlock()
		return nil
	}
	t.State = Completing
	t.Zoom = true
	t.Confetti = make([]Confetti, ConfettiPieces)
	for i := range t.Confetti {
		t.Confetti[i] = Confetti{
			Left:  rand.Float64() * 100,
			Hue:   rand.Float64() * 360,
			Delay: time.Duration(rand.Int64N(int64(500 * time.Millisecond))),
		}
	}
	b.timers[id] = b.clock.AfterFunc(CompletionDelay, func() { b.complete(id) })
	b.mu.Unlock()

	b.notify()
	return nil
}

func (b *Board) complete(id int) {
	b.mu.Lock()
	delete(b.timers, id)
	idx := -1
	for i, t := range b.tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || b.tasks[idx].State != Completing {
		b.mu.Unlock()
		return
	}
	t := b.tasks[idx]
	t.State = Done
	t.Car = false
	t.Zoom = false
	t.Confetti = nil
	t.Disabled = true
	b.tasks = append(append(b.tasks[:idx:idx], b.tasks[idx+1:]...), t)
	b.mu.Unlock()

	b.notify()
}

// Close cancels pending completion timers.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, t := range b.timers {
		t.Stop()
		delete(b.timers, id)
	}
}

func (b *Board) findLocked(id int) *Task {
	for _, t := range b.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (b *Board) notify() {
	b.mu.Lock()
	snapshot := b.snapshotLocked()
	listeners := append([]func([]Task){}, b.listeners...)
	b.mu.Unlock()
	for _, fn := range listeners {
		fn(snapshot)
	}
}

// Line renders the task as a single line of text.
func (t Task) Line() string {
	var b strings.Builder
	switch t.State {
	case Done:
		b.WriteString("[x] ")
	case Completing:
		b.WriteString("[~] ")
	default:
		b.WriteString("[ ] ")
	}
	b.WriteString(strconv.Itoa(t.ID))
	b.WriteString(". ")
	b.WriteString(t.Text)
	if t.Car {
		if t.Zoom {
			b.WriteString(" 💨🏎️")
		} else {
			b.WriteString(" 🏎️")
		}
	}
	if len(t.Confetti) > 0 {
		b.WriteString(" 🎉")
	}
	return b.String()
}
