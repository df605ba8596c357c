package controller

import "errors"

// Controller errors.
var (
	// ErrNoSession is returned by an operation that requires a live
	// session (ApprovePairing, RejectPairing, SendData) when none exists.
	ErrNoSession = errors.New("controller: no active session")
)
