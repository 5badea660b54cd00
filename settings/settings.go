// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package settings persists account material between runs.
package settings // import "mellium.im/converse/settings"

import (
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"mellium.im/xmpp/jid"
)

const (
	credentialPrefix = "credential/"
	statusPrefix     = "status/"
)

// Store is an on-disk key value store for login material.
// It satisfies the converse.Settings interface.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the store in the given directory.
// An empty dir opens an in-memory store that is lost on Close, useful for
// tests and for running without persistence.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("settings: opening store: %w", err)
	}
	return &Store{db: db}, nil
}

// Credential returns the stored secret for the identity, if any.
func (s *Store) Credential(addr jid.JID) (string, bool) {
	var secret []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(credentialKey(addr))
		if err != nil {
			return err
		}
		secret, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", false
	}
	return string(secret), true
}

// SetCredential stores the secret for the identity, replacing any previous
// one.
func (s *Store) SetCredential(addr jid.JID, secret string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(credentialKey(addr), []byte(secret))
	})
	if err != nil {
		return fmt.Errorf("settings: storing credential: %w", err)
	}
	return nil
}

// DeleteCredential forgets the stored secret for the identity.
// Deleting a credential that was never stored is not an error.
func (s *Store) DeleteCredential(addr jid.JID) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(credentialKey(addr))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("settings: deleting credential: %w", err)
	}
	return nil
}

// SetStatus records the last presence broadcast for the identity so the next
// login can restore it.
func (s *Store) SetStatus(addr jid.JID, show, text string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(statusKey(addr), []byte(show+"\n"+text))
	})
	if err != nil {
		return fmt.Errorf("settings: storing status: %w", err)
	}
	return nil
}

// Status returns the last recorded presence for the identity, if any.
func (s *Store) Status(addr jid.JID) (show, text string, ok bool) {
	var stored []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(statusKey(addr))
		if err != nil {
			return err
		}
		stored, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return "", "", false
	}
	show, text, _ = strings.Cut(string(stored), "\n")
	return show, text, true
}

// Close flushes and closes the underlying store.
func (s *Store) Close() error {
	return s.db.Close()
}

func credentialKey(addr jid.JID) []byte {
	return []byte(credentialPrefix + addr.Bare().String())
}

func statusKey(addr jid.JID) []byte {
	return []byte(statusPrefix + addr.Bare().String())
}
