package models

import (
	"errors"
	"fmt"
	"time"
)

type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindToolExecution ErrorKind = "tool_execution"
	KindService       ErrorKind = "service"
	KindStore         ErrorKind = "store"
	KindReasoning     ErrorKind = "reasoning"
	KindFatal         ErrorKind = "fatal"
)

var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrToolExecution = &Error{Kind: KindToolExecution}
	ErrService       = &Error{Kind: KindService}
	ErrStore         = &Error{Kind: KindStore}
	ErrReasoning     = &Error{Kind: KindReasoning}
	ErrFatal         = &Error{Kind: KindFatal}
)

type Error struct {
	Kind ErrorKind  `json:"kind"`
	Op   string     `json:"op,omitempty"`
	Err  error      `json:"-"`
	Time *time.Time `json:"time,omitempty"`
}

func NewError(kind ErrorKind, op string, err error) *Error {
	t := time.Now()
	return &Error{Kind: kind, Op: op, Err: err, Time: &t}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	default:
		return string(e.Kind) + " error"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// KindOf returns the kind of the outermost *Error in the chain, or KindFatal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}
