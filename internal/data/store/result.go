package store

import (
	"fmt"
)

type Status string

const (
	StatusOK          Status = "ok"
	StatusEmpty       Status = "empty"
	StatusUnavailable Status = "unavailable"
)

// Result separates "nothing matched" from "the store could not answer".
type Result[T any] struct {
	Status Status
	Value  T
	Err    error
}

func (r Result[T]) OK() bool          { return r.Status == StatusOK }
func (r Result[T]) Empty() bool       { return r.Status == StatusEmpty }
func (r Result[T]) Unavailable() bool { return r.Status == StatusUnavailable }

// ErrorMessage is the user-facing text for an unavailable result.
func (r Result[T]) ErrorMessage() string {
	if r.Status != StatusUnavailable {
		return ""
	}
	if r.Err == nil {
		return "store unavailable"
	}
	return fmt.Sprintf("store unavailable: %v", r.Err)
}

func ok[T any](v T) Result[T]    { return Result[T]{Status: StatusOK, Value: v} }
func empty[T any](v T) Result[T] { return Result[T]{Status: StatusEmpty, Value: v} }
func unavailable[T any](v T, err error) Result[T] {
	return Result[T]{Status: StatusUnavailable, Value: v, Err: err}
}
