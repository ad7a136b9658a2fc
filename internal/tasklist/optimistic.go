package tasklist

import (
	"context"

	"go.uber.org/zap"
)

// mutation is one optimistic change. begin and rollback run under the
// controller lock; remote runs without it.
type mutation struct {
	name string

	// id is the task the mutation targets when perTask is set. Only one
	// such mutation per id may be in flight.
	id      int
	perTask bool

	// begin applies the change and reports whether preconditions held.
	begin func(*State) bool

	remote func(context.Context) error

	// rollback undoes the change after remote fails.
	rollback func(*State)

	// finish always runs after remote, when begin succeeded.
	finish func(*State)
}

// optimistic runs m through Idle, Applied, then Confirmed or RolledBack.
func (c *Controller) optimistic(ctx context.Context, m mutation) (Outcome, error) {
	c.mu.Lock()
	if m.perTask {
		if _, busy := c.inflight[m.id]; busy {
			c.mu.Unlock()
			c.log.Debug("mutation ignored, task busy", zap.String("op", m.name), zap.Int("id", m.id))
			return Ignored, nil
		}
	}
	if !m.begin(&c.state) {
		c.mu.Unlock()
		return Ignored, nil
	}
	if m.perTask {
		c.inflight[m.id] = struct{}{}
	}
	c.mu.Unlock()

	err := m.remote(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if m.perTask {
		delete(c.inflight, m.id)
	}
	if m.finish != nil {
		defer m.finish(&c.state)
	}
	if err != nil {
		c.log.Warn("mutation rolled back", zap.String("op", m.name), zap.Int("id", m.id), zap.Error(err))
		m.rollback(&c.state)
		return RolledBack, err
	}
	c.log.Debug("mutation confirmed", zap.String("op", m.name), zap.Int("id", m.id))
	return Confirmed, nil
}
