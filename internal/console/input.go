package console

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/term"
)

// LineReader yields one input line at a time and io.EOF at the end.
type LineReader interface {
	ReadLine() (string, error)
}

// ScanReader reads newline-terminated lines from any reader.
type ScanReader struct {
	sc *bufio.Scanner
}

// NewScanReader wraps r.
func NewScanReader(r io.Reader) *ScanReader {
	return &ScanReader{sc: bufio.NewScanner(r)}
}

func (s *ScanReader) ReadLine() (string, error) {
	if s.sc.Scan() {
		return s.sc.Text(), nil
	}
	if err := s.sc.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Terminal is an interactive line editor on a TTY.  Output written to
// it is drawn above the prompt, so inbound messages do not clobber a
// half-typed line.
type Terminal struct {
	*term.Terminal
	fd    int
	state *term.State
}

// OpenTerminal puts in into raw mode and returns a line editor that
// reads from in and writes to out.  It fails if in is not a terminal.
func OpenTerminal(in *os.File, out io.Writer, prompt string) (*Terminal, error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	rw := struct {
		io.Reader
		io.Writer
	}{in, out}
	return &Terminal{
		Terminal: term.NewTerminal(rw, prompt),
		fd:       fd,
		state:    state,
	}, nil
}

// IsTerminal reports whether f is attached to a TTY.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Close restores the terminal's previous mode.
func (t *Terminal) Close() error {
	return term.Restore(t.fd, t.state)
}
