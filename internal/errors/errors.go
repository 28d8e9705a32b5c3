package errors

import "errors"

var ErrNotFound = errors.New("resource not found")
var ErrBoothUnavailable = errors.New("booth is not available")
var ErrUnknownBooth = errors.New("booth is not on the seat map")
var ErrInvalidInput = errors.New("invalid input")
