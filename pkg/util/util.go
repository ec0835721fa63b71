package util

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// error

type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func (e *Error) Code() error {
	return e.code
}

// ErrorCode code of a WrapErrorf error anywhere in the chain, ErrInternalServerError otherwise.
func ErrorCode(err error) error {
	var ierr *Error
	if errors.As(err, &ierr) && ierr.code != nil {
		return ierr.code
	}
	return ErrInternalServerError
}

var (
	ErrInternalServerError = errors.New("internal Server Error")
	ErrNotFound            = errors.New("your requested Item is not found")
	ErrConflict            = errors.New("your Item already exist")
	ErrBadParamInput       = errors.New("given Param is not valid")
)

var MessageInternalServerError string = "internal server error"

// SortedUnique sorted copy of xs without duplicates, never nil.
func SortedUnique[T constraints.Ordered](xs []T) []T {
	out := make([]T, len(xs))
	copy(out, xs)
	slices.Sort(out)
	return slices.Compact(out)
}

// Union sorted union of several id lists.
func Union[T constraints.Ordered](lists ...[]T) []T {
	all := make([]T, 0)
	for _, l := range lists {
		all = append(all, l...)
	}
	return SortedUnique(all)
}

func MinFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
