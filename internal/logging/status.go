package logging

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Status is the label of a per-entry status line.
type Status string

const (
	StatusUpdate      Status = "UPDATE"
	StatusUpdateArxiv Status = "UPD_ARX"
	StatusKeepArxiv   Status = "KEEP_ARX"
	StatusKeep        Status = "KEEP"
	StatusSkip        Status = "SKIP"
	StatusReject      Status = "REJECT"
	StatusWarning     Status = "WARNING"
	StatusInfo        Status = "INFO"
	StatusError       Status = "ERROR"
)

var statusColors = map[Status][]color.Attribute{
	StatusUpdate:      {color.FgGreen},
	StatusUpdateArxiv: {color.FgGreen, color.Bold},
	StatusKeepArxiv:   {color.FgYellow},
	StatusKeep:        {color.FgWhite},
	StatusSkip:        {color.FgHiBlack},
	StatusReject:      {color.FgMagenta},
	StatusWarning:     {color.FgYellow, color.Bold},
	StatusInfo:        {color.FgBlue},
	StatusError:       {color.FgRed, color.Bold},
}

// StatusPrinter writes "[LABEL] message" lines, coloured when enabled.
// It is safe for concurrent use.
type StatusPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
}

// NewStatusPrinter returns a printer writing to w.
func NewStatusPrinter(w io.Writer, colorize bool) *StatusPrinter {
	return &StatusPrinter{w: w, color: colorize}
}

// Label renders the bracketed label for s.
func (p *StatusPrinter) Label(s Status) string {
	label := "[" + string(s) + "]"
	attrs, ok := statusColors[s]
	if !ok {
		return label
	}
	c := color.New(attrs...)
	if p.color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(label)
}

// Printf writes one status line.
func (p *StatusPrinter) Printf(s Status, format string, args ...any) {
	line := p.Label(s) + " " + fmt.Sprintf(format, args...) + "\n"
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = io.WriteString(p.w, line)
}
