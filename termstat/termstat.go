// Package termstat provides a stats implementation which periodically
// prints pipeline counters to the given writer. It is meant for watching a
// long ingest run at the terminal in lieu of a real metrics collector.
package termstat

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Collector collects counters and prints them to the terminal.
type Collector struct {
	lock    sync.Mutex
	indexes map[string]int
	names   []string
	stats   []int64
	changed bool
	out     io.Writer
}

// NewCollector initializes and returns a new Collector which rewrites its
// output line every couple of seconds while counters change.
func NewCollector(out io.Writer) *Collector {
	c := &Collector{
		indexes: make(map[string]int),
		out:     out,
	}
	go func() {
		tick := time.NewTicker(time.Second * 2)
		for ; ; <-tick.C {
			c.write()
		}
	}()
	return c
}

// Count adds value to the named counter. The rate argument exists to
// satisfy spindash.Statter and is ignored; a terminal collector has no
// reason to sample.
func (c *Collector) Count(name string, value int64, rate float64, tags ...string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	idx, ok := c.indexes[name]
	if !ok {
		idx = len(c.stats)
		c.stats = append(c.stats, 0)
		c.names = append(c.names, name)
		c.indexes[name] = idx
	}
	c.stats[idx] += value
	c.changed = true
}

// Snapshot returns a copy of the current counter values.
func (c *Collector) Snapshot() map[string]int64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	out := make(map[string]int64, len(c.stats))
	for name, idx := range c.indexes {
		out[name] = c.stats[idx]
	}
	return out
}

func (c *Collector) write() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.changed {
		return
	}
	sb := strings.Builder{}
	for i := range c.stats {
		fmt.Fprintf(&sb, "%s: %d ", c.names[i], c.stats[i])
	}
	c.changed = false
	fmt.Fprintf(c.out, "\r%s", sb.String())
}
