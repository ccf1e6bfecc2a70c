package stm

import "errors"

var (
	ErrReadOnly = errors.New("read-only")
	ErrNilCell  = errors.New("nil cell")
	ErrTimeout  = errors.New("transaction timed out")
)
