package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryProtocol  Category = "protocol"
	CategoryTransport Category = "transport"
	CategoryHandshake Category = "handshake"
	CategoryConfig    Category = "config"
	CategoryMatch     Category = "match"
	CategoryReplay    Category = "replay"
	CategoryStrategy  Category = "strategy"
	CategoryCLI       Category = "cli"
)

// Location represents a position in a file, such as a config file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// CodegameError is a structured error with a code, an explanation and a
// suggested fix.
type CodegameError struct {
	// Code is a unique error identifier (e.g., "E100").
	Code string

	// Category is the error type (protocol, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position the error refers to, if any.
	Location *Location

	// Context contains the lines around Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *CodegameError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.Wrapped != nil && e.Wrapped.Error() != e.Message {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *CodegameError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file position to the error.
func (e *CodegameError) WithLocation(file string, line, column int) *CodegameError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, contextLines)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *CodegameError) WithSuggestion(s string) *CodegameError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *CodegameError) WithDetail(d string) *CodegameError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *CodegameError) Wrap(err error) *CodegameError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := max(1, targetLine-contextSize/2)
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a CodegameError from a registered error code.
func New(code string) *CodegameError {
	template, ok := registry[code]
	if !ok {
		return &CodegameError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &CodegameError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new CodegameError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *CodegameError {
	return &CodegameError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a CodegameError.
func FromError(err error, code string) *CodegameError {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*CodegameError); ok {
		return ce
	}
	return New(code).Wrap(err)
}
