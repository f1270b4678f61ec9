package jsonx

import "errors"

// ErrTooLarge is returned by Decode when the body exceeds its limit.
var ErrTooLarge = errors.New("json body too large")
