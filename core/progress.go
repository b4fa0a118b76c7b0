package core

import (
	"sync"
	"time"

	"github.com/huangsam/archflow/schema"
)

// ProgressFunc receives synthetic progress for a stage. Calls for one stage
// are serialized and never decrease.
type ProgressFunc func(stage schema.Stage, percent int)

// Progress is a synthetic progress estimate. It advances by a fixed step on a
// fixed cadence, holds at the ceiling until the tracked call resolves, and
// jumps to done on Complete. All methods are safe on a nil receiver.
type Progress struct {
	mu      sync.Mutex
	value   int
	step    int
	stopped bool
	notify  func(int)
	done    chan struct{}
}

// StartProgress starts a ticker that advances every interval by step.
// notify may be nil; it is invoked while the progress lock is held.
func StartProgress(interval time.Duration, step int, notify func(int)) *Progress {
	p := &Progress{step: step, notify: notify, done: make(chan struct{})}
	go p.run(interval)
	return p
}

func (p *Progress) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

func (p *Progress) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped || p.value >= schema.ProgressCeiling {
		return
	}
	p.value = min(p.value+p.step, schema.ProgressCeiling)
	p.emit()
}

// Complete stops ticking and forces the value to done.
func (p *Progress) Complete() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.halt()
	p.value = schema.ProgressDone
	p.emit()
}

// Stop stops ticking and keeps the current value.
func (p *Progress) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.halt()
}

// Stopped reports whether the ticker was stopped or completed.
func (p *Progress) Stopped() bool {
	if p == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Done is closed once the ticker stops. A nil Progress never finishes.
func (p *Progress) Done() <-chan struct{} {
	if p == nil {
		return nil
	}
	return p.done
}

// Value returns the current percentage.
func (p *Progress) Value() int {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

func (p *Progress) halt() {
	if !p.stopped {
		p.stopped = true
		close(p.done)
	}
}

func (p *Progress) emit() {
	if p.notify != nil {
		p.notify(p.value)
	}
}
