package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyInput is returned when there is nothing to parse or validate.
var ErrEmptyInput = errors.New("empty input")

// IssueType names the layer that produced an issue.
type IssueType string

const (
	IssueStructural IssueType = "structural"
	IssueField      IssueType = "field"
	IssueIntegrity  IssueType = "integrity"
	IssueBusiness   IssueType = "business"
	IssueParse      IssueType = "parse"
	IssueSchema     IssueType = "schema"
)

// Issue is a single error or warning. Line is 1-based; zero means file-level.
type Issue struct {
	Message   string    `json:"message"`
	Line      int       `json:"line,omitempty"`
	Field     string    `json:"field,omitempty"`
	Type      IssueType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func (i Issue) String() string {
	switch {
	case i.Line > 0 && i.Field != "":
		return fmt.Sprintf("%s: line %d [%s]: %s", i.Type, i.Line, i.Field, i.Message)
	case i.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", i.Type, i.Line, i.Message)
	default:
		return fmt.Sprintf("%s: %s", i.Type, i.Message)
	}
}

// Issues is the error/warning log shared by the parse and validation results.
type Issues struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`

	clock     func() time.Time
	finalized bool
}

func newIssues(clock func() time.Time) Issues {
	if clock == nil {
		clock = time.Now
	}
	return Issues{Errors: []Issue{}, Warnings: []Issue{}, clock: clock}
}

func (l *Issues) add(dst *[]Issue, typ IssueType, line int, field, msg string) {
	if l.finalized {
		panic("model: result already finalized")
	}
	if l.clock == nil {
		l.clock = time.Now
	}
	*dst = append(*dst, Issue{Message: msg, Line: line, Field: field, Type: typ, Timestamp: l.clock()})
}

// HasErrors reports whether any error was recorded.
func (l *Issues) HasErrors() bool { return len(l.Errors) > 0 }

// Now returns the clock the result stamps issues with.
func (l *Issues) Now() time.Time {
	if l.clock == nil {
		return time.Now()
	}
	return l.clock()
}
