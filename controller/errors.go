package controller

import (
	"errors"
	"fmt"
)

var (
	ErrServiceNotFound        = errors.New("service not found")
	ErrCharacteristicNotFound = errors.New("characteristic not found")
	ErrNotNotifiable          = errors.New("characteristic does not support notifications")
)

// ConnectionError is the single error kind surfaced by a failed connect sequence, whatever the
// cause. Step is only recorded for logging.
type ConnectionError struct {
	Step string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection failed at %q: %v", e.Step, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
