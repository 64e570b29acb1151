// Package notice shows blocking messages to the field worker.
package notice

import (
	"context"
	"io"
	"sync"

	"github.com/fatih/color"
)

type Notifier interface {
	PresentBlockingNotice(ctx context.Context, title, message string) error
}

// Console prints notices to a terminal.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) PresentBlockingNotice(ctx context.Context, title, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	t := color.New(color.FgHiRed, color.Bold)
	if _, err := t.Fprintln(c.out, title); err != nil {
		return err
	}
	_, err := color.New(color.Faint).Fprintln(c.out, message)
	return err
}

// Notice is one recorded notice.
type Notice struct {
	Title   string
	Message string
}

// Recorder keeps notices in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) PresentBlockingNotice(_ context.Context, title, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Title: title, Message: message})
	return nil
}

func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
