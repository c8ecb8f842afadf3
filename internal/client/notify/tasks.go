package notify

import "sync"

// taskGroup supervises detached background work. Confirmation calls are
// deliberately fire-and-forget for the caller, but they must still run to
// completion, surface their failures in the log, and be drainable at
// session teardown.
type taskGroup struct {
	wg     sync.WaitGroup
	logger logger
}

func newTaskGroup(l logger) *taskGroup {
	return &taskGroup{logger: l}
}

func (g *taskGroup) Go(name string, fn func() error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				g.logger.Printf("task_panic task=%s panic=%v", name, r)
			}
		}()
		if err := fn(); err != nil {
			g.logger.Printf("task_error task=%s error=%v", name, err)
		}
	}()
}

// Wait blocks until every spawned task has settled.
func (g *taskGroup) Wait() {
	g.wg.Wait()
}
