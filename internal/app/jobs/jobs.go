// Package jobs runs export work off the interactive goroutine and hands
// each completion callback back to it, so callbacks never touch the
// collection concurrently with anything else.
package jobs

type completion func()

// Runner is owned by a single goroutine: Submit and Wait must be called
// from it, and completion callbacks run on it. The work itself runs on
// its own goroutine. There is no cancellation; a submitted unit runs to
// completion.
type Runner struct {
	completions chan completion
	pending     int
}

func NewRunner() *Runner {
	return &Runner{completions: make(chan completion)}
}

// Submit starts work on a fresh goroutine and queues done with the
// work's result for the owning goroutine to run during Wait.
func Submit[T any](r *Runner, work func() (T, error), done func(T, error)) {
	r.pending++
	go func() {
		value, err := work()
		r.completions <- func() { done(value, err) }
	}()
}

// Wait blocks until every submitted unit has finished, invoking each
// completion callback on the calling goroutine.
func (r *Runner) Wait() {
	for r.pending > 0 {
		c := <-r.completions
		r.pending--
		c()
	}
}
