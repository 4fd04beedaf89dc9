package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	"searchpipe/model"
)

const defaultWidth = 80

// ConsoleOptions control how a ConsoleSink prints.
type ConsoleOptions struct {
	// Render buffers the answer and prints it as formatted markdown once the
	// stream is done instead of echoing text as it arrives.
	Render bool

	// Width is the terminal width used for wrapping and truncation.
	Width int
}

// ConsoleSink prints a pipe's output to a terminal.
type ConsoleSink struct {
	out  io.Writer
	opts ConsoleOptions

	mu        sync.Mutex
	answer    strings.Builder
	citations []model.Citation
	failed    string
}

// NewConsoleSink returns a sink writing to out.
func NewConsoleSink(out io.Writer, opts ConsoleOptions) *ConsoleSink {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	return &ConsoleSink{out: out, opts: opts}
}

// Emit implements events.Sink.
func (c *ConsoleSink) Emit(_ context.Context, chunk model.StreamChunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	switch chunk.Kind {
	case model.ChunkText:
		c.answer.WriteString(chunk.Text)
		if !c.opts.Render {
			_, err = fmt.Fprint(c.out, AssistantStyle.Render(chunk.Text))
		}

	case model.ChunkCitations:
		c.citations = append(c.citations, chunk.Citations...)
		for _, cit := range chunk.Citations {
			_, err = fmt.Fprintln(c.out, c.sourceLine(cit))
			if err != nil {
				break
			}
		}

	case model.ChunkError:
		c.failed = chunk.Text
		_, err = fmt.Fprintf(c.out, "\n%s\n", ErrorStyle.Render(chunk.Text))

	case model.ChunkDone:
		if c.opts.Render {
			_, err = fmt.Fprint(c.out, RenderMarkdown(c.answer.String(), c.opts.Width))
		}
		if err == nil {
			_, err = fmt.Fprintln(c.out)
		}
	}
	return err
}

func (c *ConsoleSink) sourceLine(cit model.Citation) string {
	label := truncate(cit.Label, c.opts.Width/2)
	line := SourceStyle.Render(label)
	if len(cit.URLs) > 0 {
		line += " " + DimStyle.Render(truncate(cit.URLs[0], c.opts.Width-len([]rune(label))-1))
	}
	return line
}

// Answer returns the text received so far.
func (c *ConsoleSink) Answer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.answer.String()
}

// Citations returns every citation received so far.
func (c *ConsoleSink) Citations() []model.Citation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Citation(nil), c.citations...)
}

// Failure returns the terminal error text, or "" if none was received.
func (c *ConsoleSink) Failure() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// RenderMarkdown formats content for a terminal of the given width.
func RenderMarkdown(content string, width int) string {
	// Bare URLs stay plain text; the sources list already shows them.
	defaultExt := markdown.Extensions()
	customExt := defaultExt &^ parser.Autolink
	p := parser.NewWithExtensions(customExt)

	r := markdown.NewRenderer(width-4, 0)
	doc := p.Parse([]byte(content))
	return string(gomarkdown.Render(doc, r))
}
