package errors

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Category represents the type of error.
type Category string

const (
	CategoryConnection Category = "connection"
	CategoryProtocol   Category = "protocol"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// Location represents a position in a file, usually websock.yaml.
type Location struct {
	File   string
	Line   int
	Column int
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

// WebsockError is a structured error with file location, suggestions, and
// documentation links.
type WebsockError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (connection, protocol, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position where the error occurred.
	Location *Location

	// Context contains surrounding file lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WebsockError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WebsockError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file location to the error.
func (e *WebsockError) WithLocation(file string, line, column int) *WebsockError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// yamlLineRe matches the "line N" fragment of yaml.v3 error strings.
var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// WithLocationFromYAML extracts the line number from a yaml.v3 parse or
// type error and points the location at that line of the given file.
func (e *WebsockError) WithLocationFromYAML(file string, err error) *WebsockError {
	if err == nil {
		return e
	}
	m := yamlLineRe.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	line, convErr := strconv.Atoi(m[1])
	if convErr != nil || line <= 0 {
		return e
	}
	e.Location = &Location{File: file, Line: line}
	e.Context = readContextLines(file, line, 5)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WebsockError) WithSuggestion(s string) *WebsockError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *WebsockError) WithDetail(d string) *WebsockError {
	e.Detail = d
	return e
}

// WithContext adds custom context lines to the error.
func (e *WebsockError) WithContext(lines []string) *WebsockError {
	e.Context = lines
	return e
}

// Wrap wraps another error.
func (e *WebsockError) Wrap(err error) *WebsockError {
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
	startLine := targetLine - contextSize/2
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

// New creates a WebsockError from a registered error code.
func New(code string) *WebsockError {
	template, ok := registry[code]
	if !ok {
		return &WebsockError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WebsockError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new WebsockError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *WebsockError {
	return &WebsockError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a WebsockError.
func FromError(err error, code string) *WebsockError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WebsockError); ok {
		return we
	}
	return New(code).Wrap(err)
}
