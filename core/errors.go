package core

import "errors"

// ErrBackendUnavailable marks a model or tool backend that is unreachable or
// erroring. Turn failures wrap this sentinel so callers can distinguish
// transport trouble from programming errors via errors.Is.
var ErrBackendUnavailable = errors.New("backend unavailable")
