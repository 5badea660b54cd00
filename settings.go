// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package converse

import (
	"mellium.im/xmpp/jid"
)

// Settings is the persistence collaborator for cached login material.
// The core reads it during LoginCached and writes it on demand through
// SaveCredential; it never persists anything else.
type Settings interface {
	// Credential returns the stored secret for the identity, if any.
	Credential(addr jid.JID) (string, bool)

	// SetCredential stores the secret for the identity.
	SetCredential(addr jid.JID, secret string) error
}

// SaveCredential stores the secret for the client's identity with the
// settings collaborator.
// It is a no-op if no settings collaborator was configured.
func (c *Client) SaveCredential(secret string) error {
	if c.settings == nil {
		return nil
	}
	return c.settings.SetCredential(c.addr, secret)
}
