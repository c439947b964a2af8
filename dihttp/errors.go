package dihttp

import "errors"

// ErrNoScope is returned when a request was not served through Middleware.
var ErrNoScope = errors.New("dihttp: request has no scope, is Middleware installed?")
