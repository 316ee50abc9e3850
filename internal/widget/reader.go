package widget

import (
	"bufio"
	"errors"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/term"
)

// LineReader yields one line of user input at a time; io.EOF ends the session.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// pipeReader reads newline separated input from a pipe or file. Lines
// longer than max bytes are cut short and the remainder is discarded.
type pipeReader struct {
	r   *bufio.Reader
	max int
}

// NewPipeReader wraps r, keeping at most maxBytes of each line.
func NewPipeReader(r io.Reader, maxBytes int) LineReader {
	if maxBytes <= 0 {
		maxBytes = 4 * DefaultMaxInput
	}
	return &pipeReader{r: bufio.NewReader(r), max: maxBytes}
}

func (p *pipeReader) ReadLine() (string, error) {
	var line []byte
	for {
		chunk, isPrefix, err := p.r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				break
			}
			return "", err
		}
		if room := p.max - len(line); room > 0 {
			if len(chunk) > room {
				chunk = chunk[:room]
			}
			line = append(line, chunk...)
		}
		if !isPrefix {
			break
		}
	}
	return string(trimPartialRune(line)), nil
}

func (p *pipeReader) Close() error {
	return nil
}

// trimPartialRune drops a multi-byte sequence cut by truncation.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax-1 && len(b) > 0; i++ {
		r, size := utf8.DecodeLastRune(b)
		if r != utf8.RuneError || size != 1 {
			break
		}
		b = b[:len(b)-1]
	}
	return b
}

// TermReader is an interactive line editor on a raw-mode terminal. Output
// must go through Writer so newlines are translated while raw mode is on.
type TermReader struct {
	fd       int
	state    *term.State
	terminal *term.Terminal
}

// NewTermReader puts stdin into raw mode and returns the editor with prompt.
func NewTermReader(prompt string) (*TermReader, error) {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	return &TermReader{fd: fd, state: state, terminal: term.NewTerminal(screen, prompt)}, nil
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Writer returns the terminal as an output sink.
func (t *TermReader) Writer() io.Writer {
	return t.terminal
}

func (t *TermReader) ReadLine() (string, error) {
	return t.terminal.ReadLine()
}

// Close restores the terminal state.
func (t *TermReader) Close() error {
	return term.Restore(t.fd, t.state)
}
