// flight/clock.go
// Copyright(c) 2025-2026 cesium-flight-simulator contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package flight

import (
	"sync"
	"time"
)

// TickerClock is a wall-time Clock that fires tick listeners from a
// background goroutine at a fixed interval. Listeners are dispatched
// sequentially and outside the clock's lock, so a listener may add or
// remove listeners, including itself.
type TickerClock struct {
	mu        sync.Mutex
	ticker    *time.Ticker
	done      chan struct{}
	listeners map[int]func(time.Time)
	nextId    int
}

var _ Clock = (*TickerClock)(nil)

// NewTickerClock returns a running clock that ticks every interval.
// Call Stop when done with it.
func NewTickerClock(interval time.Duration) *TickerClock {
	c := &TickerClock{
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		listeners: make(map[int]func(time.Time)),
	}
	go c.run()
	return c
}

func (c *TickerClock) run() {
	for {
		select {
		case now := <-c.ticker.C:
			c.mu.Lock()
			fns := make([]func(time.Time), 0, len(c.listeners))
			for _, fn := range c.listeners {
				fns = append(fns, fn)
			}
			c.mu.Unlock()

			for _, fn := range fns {
				fn(now)
			}

		case <-c.done:
			return
		}
	}
}

func (c *TickerClock) Now() time.Time { return time.Now() }

func (c *TickerClock) OnTick(fn func(time.Time)) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextId
	c.nextId++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Stop shuts down the ticker goroutine. Listeners registered at the
// time of the call are not removed but will no longer fire.
func (c *TickerClock) Stop() {
	c.ticker.Stop()
	close(c.done)
}
