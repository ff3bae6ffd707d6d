// core/cleanup/cleanup.go
package cleanup

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Guard collects the temp files, directories and open handles created during
// one prediction run and removes them exactly once when Close is called,
// typically via defer so removal happens on every exit path. Removal failures
// are logged and swallowed: teardown must never mask the error that caused
// the exit, and a half-cleaned temp area is a degraded state, not a fatal one.
type Guard struct {
	mu      sync.Mutex
	closed  bool
	files   []string
	dirs    []string
	handles []io.Closer
	log     zerolog.Logger
}

func New(log zerolog.Logger) *Guard {
	return &Guard{log: log}
}

// Files registers file paths for removal.
func (g *Guard) Files(paths ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.files = append(g.files, paths...)
}

// Dirs registers directory trees for recursive removal.
func (g *Guard) Dirs(paths ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dirs = append(g.dirs, paths...)
}

// Handles registers open handles to be closed before their backing paths are
// removed.
func (g *Guard) Handles(cs ...io.Closer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handles = append(g.handles, cs...)
}

// Close tears everything down, best effort. Safe to call more than once;
// only the first call does any work.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true

	for _, c := range g.handles {
		if err := c.Close(); err != nil {
			g.log.Warn().Err(err).Msg("cleanup: close handle")
		}
	}
	for _, path := range g.files {
		g.log.Debug().Str("path", path).Msg("cleanup: remove file")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			g.log.Warn().Err(err).Str("path", path).Msg("cleanup: remove file failed")
		}
	}
	for _, path := range g.dirs {
		g.log.Debug().Str("path", path).Msg("cleanup: remove dir")
		if err := os.RemoveAll(path); err != nil {
			g.log.Warn().Err(err).Str("path", path).Msg("cleanup: remove dir failed")
		}
	}
}
