package core

import "errors"

// ErrIO marks failures to read the origin or write the destination.
var ErrIO = errors.New("i/o failure")

// ErrParse marks an origin whose tabular structure cannot be parsed.
var ErrParse = errors.New("invalid csv")

// ErrEmptyFile is returned for uploads with no content.
var ErrEmptyFile = errors.New("empty file")

// ErrBusy is returned when every conversion slot is taken and the wait for one
// expired. Callers should retry after a short delay.
var ErrBusy = errors.New("too many concurrent conversions")
