package game

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrUnknownProducer   = errors.New("unknown producer")
	ErrPrestigeLocked    = errors.New("prestige not available")
	ErrBonusNotFound     = errors.New("bonus event not found")
)

// SaveLoadError reports a failure reading or writing the persisted save.
// The engine always recovers from it; it is surfaced for logging only.
type SaveLoadError struct {
	Op  string
	Err error
}

func (e *SaveLoadError) Error() string {
	return fmt.Sprintf("%s save: %v", e.Op, e.Err)
}

func (e *SaveLoadError) Unwrap() error {
	return e.Err
}
