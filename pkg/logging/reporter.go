package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Reporter writes one line per answered request plus categorised messages.
// Colors are applied only when out is a terminal.
type Reporter struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
	now    func() time.Time

	methods  map[string]lipgloss.Style
	method   lipgloss.Style
	statuses map[int]lipgloss.Style
	status   lipgloss.Style
	elapsed  lipgloss.Style
	kinds    map[string]messageStyle
}

type messageStyle struct {
	category lipgloss.Style
	text     lipgloss.Style
}

// NewReporter creates a Reporter writing to out (os.Stdout when nil). Each
// line is also sent to logger at debug level when logger is non-nil.
func NewReporter(out io.Writer, logger *slog.Logger) *Reporter {
	if out == nil {
		out = os.Stdout
	}
	r := lipgloss.NewRenderer(out)
	badge := func(bg, fg string) lipgloss.Style {
		return r.NewStyle().Background(lipgloss.Color(bg)).Foreground(lipgloss.Color(fg))
	}
	fg := func(c string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(c))
	}

	return &Reporter{
		out:    out,
		logger: logger,
		now:    time.Now,
		methods: map[string]lipgloss.Style{
			"DELETE": badge("1", "15"),
			"GET":    badge("2", "0"),
			"HEAD":   badge("14", "0"),
			"PATCH":  badge("6", "0"),
			"POST":   badge("4", "15"),
			"PUT":    badge("12", "15"),
		},
		method: badge("5", "0"),
		statuses: map[int]lipgloss.Style{
			2: fg("2"),
			3: fg("3"),
			4: fg("9"),
			5: fg("1"),
		},
		status:  fg("5"),
		elapsed: fg("8"),
		kinds: map[string]messageStyle{
			"error":   {category: badge("1", "15"), text: fg("1")},
			"success": {category: badge("2", "0"), text: fg("2")},
		},
	}
}

// NopReporter returns a Reporter that discards everything.
func NopReporter() *Reporter {
	return NewReporter(io.Discard, nil)
}

// Response reports an answered request. A zero start prints an elapsed time
// of 0 ms.
func (r *Reporter) Response(method string, status int, start time.Time, uri string) {
	var elapsed time.Duration
	if !start.IsZero() {
		elapsed = r.now().Sub(start)
	}

	methodStyle, ok := r.methods[method]
	if !ok {
		methodStyle = r.method
	}
	statusStyle, ok := r.statuses[status/100]
	if !ok {
		statusStyle = r.status
	}

	line := methodStyle.Render(" "+padEnd(method, 7)+" ") +
		statusStyle.Render(" "+strconv.Itoa(status)+" ") +
		r.elapsed.Render(FormatElapsed(elapsed.Milliseconds())) +
		uri
	r.println(line)

	if r.logger != nil {
		r.logger.Debug("response", "method", method, "status", status, "elapsed", elapsed, "uri", uri)
	}
}

// Error reports a failure. Category is optional.
func (r *Reporter) Error(message, category string) {
	r.message(message, category, "error")
	if r.logger != nil {
		r.logger.Debug(message, "category", category, "kind", "error")
	}
}

// Success reports progress. Category is optional.
func (r *Reporter) Success(message, category string) {
	r.message(message, category, "success")
	if r.logger != nil {
		r.logger.Debug(message, "category", category, "kind", "success")
	}
}

func (r *Reporter) message(message, category, kind string) {
	style := r.kinds[kind]
	var prefix string
	if category != "" {
		prefix = style.category.Render("[" + category + "]")
	}
	r.println(prefix + " " + style.text.Render(message))
}

func (r *Reporter) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.out, line)
}

// FormatElapsed renders a duration given in milliseconds as a fixed width
// column. Durations above one second switch to seconds with two, one or no
// fraction digits as they grow past 10s and 100s.
func FormatElapsed(ms int64) string {
	str := strconv.FormatInt(ms, 10)
	unit := "ms"

	if ms > 1000 {
		seconds := float64(ms) / 1000
		digits := 2
		if seconds > 100 {
			digits = 0
		} else if seconds > 10 {
			digits = 1
		}
		str = strconv.FormatFloat(seconds, 'f', digits, 64)
		unit = "s"
	}

	return padStart(str, 5) + " " + padStart(unit, 2) + " "
}

func padEnd(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func padStart(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}
