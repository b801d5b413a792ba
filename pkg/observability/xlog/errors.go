package xlog

import "errors"

var (
	ErrNilOutput    = errors.New("xlog: nil output writer")
	ErrUnknownLevel = errors.New("xlog: unknown level")
)
