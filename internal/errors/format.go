package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// contextLines is the number of config lines shown around a location.
const contextLines = 5

var colorEnabled = os.Getenv("NO_COLOR") == ""

// SetColors turns ANSI colors in Format on or off and returns the previous
// setting. Colors start off when NO_COLOR is set.
func SetColors(enabled bool) bool {
	prev := colorEnabled
	colorEnabled = enabled
	return prev
}

func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

// Format renders the error for a terminal:
//
//	error[E201] config: Invalid port
//	  --> codegame.json:3:13
//	      |
//	    2 |   "server": {
//	>   3 |     "port": 70000
//	      |             ^
//	    4 |   }
//	      |
//	  Ports must be between 1 and 65535.
func (e *CodegameError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(color(colorRed+colorBold, e.label()))
	if e.Category != "" {
		b.WriteString(" " + color(colorGray, string(e.Category)+":"))
	}
	b.WriteString(" " + color(colorBold, e.Message) + "\n")

	if e.Location != nil {
		b.WriteString("  " + color(colorCyan, "--> ") + e.Location.String() + "\n")
		if len(e.Context) > 0 {
			e.writeContext(&b)
		}
	}

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  " + line + "\n")
		}
	}

	for _, cause := range causes(e.Wrapped) {
		if cause == e.Message {
			continue
		}
		b.WriteString("  " + color(colorGray, "caused by: ") + cause + "\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  " + color(colorCyan, "hint: ") + e.Suggestion + "\n")
	}

	b.WriteString("\n")
	return b.String()
}

func (e *CodegameError) label() string {
	if e.Code == "" {
		return "error"
	}
	return "error[" + e.Code + "]"
}

func (e *CodegameError) writeContext(b *strings.Builder) {
	gutter := color(colorGray, "      |")
	b.WriteString(gutter + "\n")

	start := max(1, e.Location.Line-contextLines/2)
	for i, line := range e.Context {
		n := start + i
		marker := "  "
		if n == e.Location.Line {
			marker = color(colorRed, "> ")
		}
		fmt.Fprintf(b, "%s%3d %s %s\n", marker, n, color(colorGray, "|"), line)

		if n == e.Location.Line && e.Location.Column > 0 {
			b.WriteString(gutter + " " + strings.Repeat(" ", e.Location.Column-1) + color(colorRed, "^") + "\n")
		}
	}
	b.WriteString(gutter + "\n")
}

// causes lists the messages along err's Unwrap chain, outermost first,
// with each inner message trimmed from the one wrapping it.
func causes(err error) []string {
	var out []string
	for err != nil {
		msg := err.Error()
		next := stderrors.Unwrap(err)
		if next != nil {
			msg = strings.TrimSuffix(msg, ": "+next.Error())
		}
		out = append(out, msg)
		err = next
	}
	return out
}

type jsonError struct {
	Code       string    `json:"code,omitempty"`
	Category   Category  `json:"category,omitempty"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Location   *Location `json:"location,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	Causes     []string  `json:"causes,omitempty"`
}

// FormatJSON returns the error as a single-line JSON object, for
// --log-format=json.
func (e *CodegameError) FormatJSON() string {
	data, err := json.Marshal(jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Location:   e.Location,
		Suggestion: e.Suggestion,
		Causes:     causes(e.Wrapped),
	})
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

func wrapText(text string, width int) []string {
	var lines []string
	var current strings.Builder

	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// Fprint classifies err and writes it to w, as JSON when asJSON is set.
func Fprint(w io.Writer, err error, asJSON bool) {
	if err == nil {
		return
	}
	ce := Classify(err)
	if asJSON {
		fmt.Fprintln(w, ce.FormatJSON())
		return
	}
	fmt.Fprint(w, ce.Format())
}
