package output

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

type line struct {
	text string
	err  error
}

// Console reads typed answers. The first ReadLine starts a reader goroutine
// so a pending read never blocks cancellation.
type Console struct {
	in    io.Reader
	out   io.Writer
	once  sync.Once
	lines chan line
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:    in,
		out:   out,
		lines: make(chan line),
	}
}

func (c *Console) ReadLine(ctx context.Context, prompt string) (string, error) {
	c.once.Do(func() { go c.pump() })

	fmt.Fprintf(c.out, "%s\n%s ", TitleStyle.Render(prompt), DimStyle.Render("(Enter para hablar) >"))

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-c.lines:
		if !ok {
			return "", io.EOF
		}
		return l.text, l.err
	}
}

func (c *Console) pump() {
	defer close(c.lines)

	scanner := bufio.NewScanner(c.in)
	for scanner.Scan() {
		c.lines <- line{text: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		c.lines <- line{err: fmt.Errorf("reading console: %w", err)}
	}
}
