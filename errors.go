// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"errors"
)

// Errors returned by the client.
var (
	// ErrAlreadyConnected is returned by Login when a session already exists
	// or is being established.
	ErrAlreadyConnected = errors.New("converse: already connected")

	// ErrNotConnected is returned by operations that require an established
	// session.
	ErrNotConnected = errors.New("converse: not connected")

	// ErrNoDialer is returned by Login when no dialer was configured.
	ErrNoDialer = errors.New("converse: no dialer configured")

	// ErrNoCredential is returned by LoginCached when the settings
	// collaborator has no stored credential for the client's address.
	ErrNoCredential = errors.New("converse: no cached credential")
)

// ConnectError reports a failure to establish or negotiate a session.
// It is recoverable: the client is back in the Disconnected state and a new
// login may be attempted, possibly with different credentials.
type ConnectError struct {
	Err error
}

// Error satisfies the error interface.
func (e *ConnectError) Error() string {
	return "converse: connect: " + e.Err.Error()
}

// Unwrap returns the underlying transport or negotiation error.
func (e *ConnectError) Unwrap() error {
	return e.Err
}
