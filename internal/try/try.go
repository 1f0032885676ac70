// Copyright (c) 2026 julianocosta89 and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package try turns panics into errors.
package try

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// PanicError is a recovered panic.
type PanicError struct {
	Value any

	// Stack is the goroutine stack at the time of the panic.
	Stack []byte
}

func (e PanicError) Error() string {
	return fmt.Sprintf("recovered from panic: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover must be called with defer. A recovered panic is stored in
// err as a [PanicError], joined with whatever err already held.
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}

	perr := PanicError{Value: r, Stack: debug.Stack()}
	*err = errors.Join(*err, perr)
}
