// Package clipboard is the output sink boundary for rendered citations:
// both flavors are handed over in one call so they can never drift apart.
package clipboard

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Sink accepts one rendered output in both flavors atomically.
type Sink interface {
	Write(rich, plain string) error
}

// MemorySink keeps the last written pair. Used by the CLI to print the
// result and by tests to observe what would reach the clipboard.
type MemorySink struct {
	mu    sync.Mutex
	rich  string
	plain string
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(rich, plain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rich = rich
	s.plain = plain
	return nil
}

// Contents returns the last written pair.
func (s *MemorySink) Contents() (rich, plain string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rich, s.plain
}

// CommandSink pipes the plain flavor to an external clipboard command
// (xclip, pbcopy, wl-copy). The rich flavor has no portable transport on
// a bare command pipe and is dropped here.
type CommandSink struct {
	command string
	args    []string
}

func NewCommandSink(command string, args ...string) *CommandSink {
	return &CommandSink{command: command, args: args}
}

func (s *CommandSink) Write(rich, plain string) error {
	cmd := exec.Command(s.command, s.args...)
	cmd.Stdin = strings.NewReader(plain)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("clipboard command %s: %w", s.command, err)
	}
	return nil
}
