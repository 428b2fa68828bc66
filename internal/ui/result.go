package ui

import (
	"fmt"
	"strings"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Detail is one key/value line under a result.
type Detail struct {
	Key   string
	Value string
}

// Result is the outcome of one CLI operation.
type Result struct {
	Type    ResultType
	Title   string
	Details []Detail
	Error   error
}

// NewSuccessResult creates a success result
func NewSuccessResult(title string) *Result {
	return &Result{Type: ResultSuccess, Title: title}
}

// NewFailureResult creates a failure result
func NewFailureResult(title string, err error) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err}
}

// NewWarningResult creates a warning result
func NewWarningResult(title string) *Result {
	return &Result{Type: ResultWarning, Title: title}
}

// AddDetail adds a detail line. Details render in insertion order.
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result as a string
func (r *Result) Render() string {
	var b strings.Builder

	switch r.Type {
	case ResultFailure:
		b.WriteString(Render(ErrorStyle, fmt.Sprintf("%s %s", FailureMarker, r.Title)))
	case ResultWarning:
		b.WriteString(Render(WarningStyle, fmt.Sprintf("%s %s", WarningMarker, r.Title)))
	default:
		b.WriteString(Render(SuccessStyle, fmt.Sprintf("%s %s", SuccessMarker, r.Title)))
	}
	b.WriteString("\n")

	keyWidth := 0
	for _, d := range r.Details {
		if len(d.Key) > keyWidth {
			keyWidth = len(d.Key)
		}
	}
	for _, d := range r.Details {
		key := fmt.Sprintf("%-*s", keyWidth+1, d.Key+":")
		b.WriteString("  " + Render(KeyStyle, key) + " " + d.Value + "\n")
	}
	if r.Error != nil {
		b.WriteString("  " + Render(ErrorStyle, "error:") + " " + r.Error.Error() + "\n")
	}
	return b.String()
}

// Banner renders a bold title with muted key/value parameters underneath.
func Banner(title string, params ...Detail) string {
	var b strings.Builder
	b.WriteString(Render(TitleStyle, title) + "\n")
	for _, p := range params {
		b.WriteString("  " + Render(MutedStyle, p.Key+":") + " " + p.Value + "\n")
	}
	return b.String()
}
