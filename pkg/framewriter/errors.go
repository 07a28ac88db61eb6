package framewriter

import "errors"

var (
	ErrConfiguration = errors.New("framewriter: invalid configuration")
	ErrDevice        = errors.New("framewriter: hardware device failure")
	ErrContainer     = errors.New("framewriter: container failure")
	ErrClosed        = errors.New("framewriter: writer is closed")
)
