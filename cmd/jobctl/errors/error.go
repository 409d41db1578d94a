// Package errors is for errors shown to users of jobctl.
package errors

import (
	"fmt"
	"strings"
)

// Verbose is implemented by errors which can explain themselves in detail.
type Verbose interface {
	Verbose() string
}

// CUIError is an error with a message for terminals.
//
// Error() returns the summary (with detail, if any),
// and Verbose() adds the chain of causes.
type CUIError interface {
	error
	Verbose
}

// Detail renders the message of an error from its summary.
type Detail func(summary string) (string, error)

type cuiError struct {
	summary string
	note    string
	detail  Detail
	cause   error
}

type Option func(*cuiError)

func New(summary string, options ...Option) CUIError {
	ce := &cuiError{summary: summary}
	for _, opt := range options {
		opt(ce)
	}
	return ce
}

// WithVerbose attaches a note shown only in Verbose().
func WithVerbose(note string) Option {
	return func(ce *cuiError) { ce.note = note }
}

// WithDetail sets a printer building the message from the summary.
func WithDetail(d Detail) Option {
	return func(ce *cuiError) { ce.detail = d }
}

func WithCause(err error) Option {
	return func(ce *cuiError) { ce.cause = err }
}

func (ce *cuiError) Unwrap() error {
	return ce.cause
}

func (ce *cuiError) Error() string {
	if ce.detail == nil {
		return ce.summary
	}
	msg, err := ce.detail(ce.summary)
	if err != nil {
		return fmt.Sprintf("%s\n(building detailed message causes error: %s)", ce.summary, err)
	}
	return msg
}

func (ce *cuiError) Verbose() string {
	sb := new(strings.Builder)
	sb.WriteString(ce.Error())
	if ce.note != "" {
		fmt.Fprintf(sb, "\n (%s) ", ce.note)
	}
	if ce.cause == nil {
		return sb.String()
	}

	sb.WriteString("\ncaused by: \n")
	if v, ok := ce.cause.(Verbose); ok {
		sb.WriteString(v.Verbose())
	} else {
		sb.WriteString(ce.cause.Error())
	}
	return sb.String()
}
