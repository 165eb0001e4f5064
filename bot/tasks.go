package bot

import (
	"context"
	"sync"
)

// taskGroup runs background work tied to the bot's lifetime. Stop cancels
// the shared context and blocks until every task has returned, so the final
// stats save never races a running backfill.
type taskGroup struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func newTaskGroup(parent context.Context) *taskGroup {
	ctx, cancel := context.WithCancel(parent)
	return &taskGroup{ctx: ctx, cancel: cancel}
}

// Go starts fn on its own goroutine. It returns false without running fn
// once Stop has been called.
func (g *taskGroup) Go(fn func(ctx context.Context)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
	return true
}

// Stop cancels running tasks and waits for them to return
func (g *taskGroup) Stop() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()

	g.cancel()
	g.wg.Wait()
}
