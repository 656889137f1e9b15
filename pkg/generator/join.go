package generator

import (
	"errors"
	"sync"
)

// joinGroup runs tasks concurrently and joins all of them before reporting.
// Unlike errgroup it never cancels siblings on the first error: every branch
// runs to completion and all errors are surfaced together.
type joinGroup struct {
	wg   sync.WaitGroup
	mu   sync.Mutex
	errs []error
}

func newJoinGroup() *joinGroup {
	return &joinGroup{}
}

func (g *joinGroup) Go(task func() error) {
	g.wg.Add(1)

	go func() {
		defer g.wg.Done()

		err := task()
		if err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	}()
}

func (g *joinGroup) Wait() error {
	g.wg.Wait()

	return errors.Join(g.errs...)
}
