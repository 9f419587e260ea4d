// Package admission bounds concurrent access to the persistent store.
package admission

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/brandgate/catalog-sync/internal/catalog"
	"github.com/brandgate/catalog-sync/internal/telemetry"
)

// DefaultLimit is the ceiling used when a non-positive limit is configured.
const DefaultLimit = 8

// Controller is a counting semaphore with a FIFO wait queue. It gates store
// read operations system-wide; writes are intentionally not gated.
type Controller struct {
	mu       sync.Mutex
	limit    int
	inFlight int
	waiters  *list.List
}

// New builds a Controller with the given ceiling.
func New(limit int) *Controller {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Controller{
		limit:   limit,
		waiters: list.New(),
	}
}

// Acquire grants a slot immediately when capacity is available, otherwise it
// enqueues the caller and blocks until a slot frees or the context finishes.
func (c *Controller) Acquire(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight < c.limit && c.waiters.Len() == 0 {
		c.inFlight++
		c.publishGauges()
		c.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	elem := c.waiters.PushBack(ready)
	c.publishGauges()
	c.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		c.mu.Lock()
		select {
		case <-ready:
			// Granted between ctx.Done and lock acquisition; give the
			// slot back so no capacity leaks.
			c.releaseLocked()
		default:
			c.waiters.Remove(elem)
			c.publishGauges()
		}
		c.mu.Unlock()
		return fmt.Errorf("admission acquire: %w", ctx.Err())
	}
}

// Release frees a slot. If callers are waiting, the slot is handed to the
// oldest waiter so FIFO order holds.
func (c *Controller) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked()
}

func (c *Controller) releaseLocked() {
	if c.inFlight > 0 {
		c.inFlight--
	}
	if elem := c.waiters.Front(); elem != nil {
		c.waiters.Remove(elem)
		c.inFlight++
		close(elem.Value.(chan struct{}))
	}
	c.publishGauges()
}

// Status reports current in-flight count, queue depth and ceiling.
func (c *Controller) Status() catalog.AdmissionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return catalog.AdmissionStatus{
		InFlight: c.inFlight,
		Queued:   c.waiters.Len(),
		Limit:    c.limit,
	}
}

func (c *Controller) publishGauges() {
	telemetry.SetAdmission(c.inFlight, c.waiters.Len())
}
