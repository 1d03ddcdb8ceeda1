package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/aretw0/policydesk/pkg/ports"
)

// ContentRenderer transforms step descriptions before they are printed,
// e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)

// TextHandler reads lines from a reader and writes styled text to a writer.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	out       *termenv.Output
	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithColorProfile forces a color profile. termenv.Ascii disables styling.
func WithColorProfile(p termenv.Profile) TextHandlerOption {
	return func(h *TextHandler) {
		h.out = termenv.NewOutput(h.Writer, termenv.WithProfile(p))
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	h.out = termenv.NewOutput(w)
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honor ctx.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			close(h.inputChan)
			return
		}
	}
}

// Input prints prompt and reads one sanitized line.
func (h *TextHandler) Input(ctx context.Context, prompt string) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, h.out.String(prompt).Bold())
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

// Heading prints a step header.
func (h *TextHandler) Heading(title, step string, index, total int) {
	fmt.Fprintln(h.Writer)
	fmt.Fprintln(h.Writer, h.out.String(title).Bold().Foreground(h.out.Color("#a78bfa")))
	fmt.Fprintf(h.Writer, "%s %s\n", h.out.String(fmt.Sprintf("[%d/%d]", index+1, total)).Faint(), step)
}

// Content prints markdown through the renderer, if any.
func (h *TextHandler) Content(markdown string) {
	if strings.TrimSpace(markdown) == "" {
		return
	}
	output := markdown
	if h.Renderer != nil {
		if rendered, err := h.Renderer(markdown); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(h.Writer, strings.TrimSpace(output))
}

// Notify prints a notification; errors are shown in red.
func (h *TextHandler) Notify(n ports.Notification) {
	line := fmt.Sprintf("%s: %s", n.Title, n.Message)
	if n.Error {
		fmt.Fprintln(h.Writer, h.out.String("✗ "+line).Foreground(h.out.Color("#f87171")))
		return
	}
	fmt.Fprintln(h.Writer, h.out.String("ℹ "+line).Foreground(h.out.Color("#60a5fa")))
}

// SystemOutput presents a meta-message to the user.
func (h *TextHandler) SystemOutput(msg string) {
	fmt.Fprintf(h.Writer, "%s\n", h.out.String(msg).Faint())
}
