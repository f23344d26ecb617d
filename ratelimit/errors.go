package ratelimit

import "errors"

// ErrInterrupted is returned by Consume when Interrupt is called while a
// caller is blocked waiting for tokens.
var ErrInterrupted = errors.New("throttle interrupted")
