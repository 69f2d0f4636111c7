package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// consoleLine is one emission written by a console element.
type consoleLine struct {
	Time    time.Time `json:"time"`
	Binding string    `json:"binding"`
	Kind    string    `json:"kind"`
	Value   any       `json:"value,omitempty"`
}

// console serialises element output from every binding onto one writer.
type console struct {
	mu     sync.Mutex
	enc    *json.Encoder
	now    func() time.Time
	logger *slog.Logger
}

func newConsole(w io.Writer, logger *slog.Logger) *console {
	return &console{enc: json.NewEncoder(w), now: time.Now, logger: logger}
}

func (c *console) write(id, kind string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enc.Encode(consoleLine{Time: c.now().UTC(), Binding: id, Kind: kind, Value: value}); err != nil {
		c.logger.Warn("console write failed", "binding", id, "error", err)
	}
}

// element returns the binding.Element for binding id.
func (c *console) element(id string) *consoleElement {
	return &consoleElement{console: c, id: id}
}

type consoleElement struct {
	console *console
	id      string
}

func (e *consoleElement) Render(value any)    { e.console.write(e.id, "render", value) }
func (e *consoleElement) Clear()              { e.console.write(e.id, "clear", nil) }
func (e *consoleElement) SetText(text string) { e.console.write(e.id, "text", text) }
