package host

import (
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalOps captures the minimal terminal surface the shell needs:
// whether a real terminal is present (a window can be shown at all) and the
// raw-mode lifecycle the toolkit depends on. Implementations other than
// stdio exist only in tests.
type TerminalOps interface {
	io.Reader
	io.Writer

	// Fd returns the descriptor of the underlying terminal.
	Fd() uintptr

	// MakeRaw puts the terminal into raw mode, returning the prior state.
	MakeRaw() (*term.State, error)

	// Restore returns the terminal to a previously captured state.
	Restore(state *term.State) error

	// GetSize returns the current terminal size.
	GetSize() (width, height int, err error)

	// IsTerminal reports whether the underlying resource is a terminal.
	IsTerminal() bool
}

// StdioTerminal implements TerminalOps over the process's stdin/stdout.
type StdioTerminal struct{}

func (StdioTerminal) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (StdioTerminal) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (StdioTerminal) Fd() uintptr                 { return os.Stdin.Fd() }

func (StdioTerminal) MakeRaw() (*term.State, error) {
	return term.MakeRaw(int(os.Stdin.Fd()))
}

func (StdioTerminal) Restore(state *term.State) error {
	return term.Restore(int(os.Stdin.Fd()), state)
}

func (StdioTerminal) GetSize() (int, int, error) {
	return term.GetSize(int(os.Stdout.Fd()))
}

func (StdioTerminal) IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
