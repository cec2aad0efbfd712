package notifier

import (
	"fmt"
	"strings"
	"sync"
)

// maxGroupLines bounds the body of a coalesced notification.
const maxGroupLines = 5

type groupEntry struct {
	id    uint32
	count int
	lines []string
}

// groups tracks the on-screen notification of every grouping key so that
// GROUP pushes can replace it in place.
type groups struct {
	mu      sync.Mutex
	entries map[string]*groupEntry
}

func newGroups() *groups {
	return &groups{entries: make(map[string]*groupEntry)}
}

// merge returns the notification to replace (0 for none) and the coalesced
// summary and body for a new push under key. Nothing is recorded until
// commit.
func (g *groups) merge(key, title, line string) (replaces uint32, summary, body string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.entries[key]
	if e == nil {
		return 0, title, line
	}
	lines := appendLine(e.lines, line)
	summary = fmt.Sprintf("%s (%d)", title, e.count+1)
	return e.id, summary, joinLines(lines)
}

// commit records that id now shows the group after a successful send.
func (g *groups) commit(key string, id uint32, line string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e := g.entries[key]
	if e == nil {
		e = &groupEntry{}
		g.entries[key] = e
	}
	e.id = id
	e.count++
	e.lines = appendLine(e.lines, line)
}

// forget drops the group shown by id, e.g. after the user dismissed it.
func (g *groups) forget(id uint32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, e := range g.entries {
		if e.id == id {
			delete(g.entries, key)
		}
	}
}

func appendLine(lines []string, line string) []string {
	out := append(append([]string(nil), lines...), line)
	if len(out) > maxGroupLines {
		out = out[len(out)-maxGroupLines:]
	}
	return out
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
