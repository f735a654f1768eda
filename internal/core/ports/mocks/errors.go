package mocks

import "errors"

// ErrMockFailure is returned by mocks configured to fail.
var ErrMockFailure = errors.New("mock failure")
