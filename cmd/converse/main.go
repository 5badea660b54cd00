// Copyright 2026 The Mellium Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// The converse command is a terminal instant messaging client.
//
// Configuration is read from the environment (a .env file is honored):
//
//	XMPP_ADDR          the address to log in as (required)
//	XMPP_PASS          the password; if unset a previously saved one is used
//	CONVERSE_DATA_DIR  where to persist settings; unset keeps them in memory
//	CONVERSE_DEBUG     log protocol level debug output to stderr
package main

import (
	"context"
	"crypto/tls"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"mellium.im/sasl"
	"mellium.im/xmpp"
	"mellium.im/xmpp/dial"
	"mellium.im/xmpp/jid"

	"mellium.im/converse"
	"mellium.im/converse/internal/ui"
	"mellium.im/converse/settings"
)

const dialTimeout = 30 * time.Second

type config struct {
	Addr    string `envconfig:"XMPP_ADDR" required:"true"`
	Pass    string `envconfig:"XMPP_PASS"`
	DataDir string `envconfig:"CONVERSE_DATA_DIR"`
	Debug   bool   `envconfig:"CONVERSE_DEBUG"`
}

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	_ = godotenv.Load()

	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		logger.Fatalf("error reading configuration: %v", err)
	}
	debug := log.New(io.Discard, "DEBUG ", log.LstdFlags)
	if cfg.Debug {
		debug.SetOutput(os.Stderr)
	}

	addr, err := jid.Parse(cfg.Addr)
	if err != nil {
		logger.Fatalf("error parsing address %q: %v", cfg.Addr, err)
	}

	store, err := settings.Open(cfg.DataDir)
	if err != nil {
		logger.Fatalf("error opening settings: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Printf("error closing settings: %v", err)
		}
	}()

	face := ui.New()
	// Cache the password only once it is known to work, so a typo in the
	// environment cannot clobber a good saved credential.
	var saveOnce sync.Once
	opts := []converse.Option{
		converse.WithDialer(dialer{}),
		converse.WithSettings(store),
		converse.Logger(debug),
		converse.HandleState(func(state converse.State) {
			face.SetState(state)
			if state == converse.Connected && cfg.Pass != "" {
				saveOnce.Do(func() {
					if err := store.SetCredential(addr, cfg.Pass); err != nil {
						logger.Printf("error saving credential: %v", err)
					}
				})
			}
		}),
		converse.HandleActive(face.SetActive),
	}
	if show, text, ok := store.Status(addr); ok {
		opts = append(opts, converse.InitialStatus(converse.Status{
			Availability: converse.ParseAvailability(show),
			Text:         text,
		}))
	}
	client := converse.New(addr, face, opts...)
	face.SetClient(client)

	loginCtx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if cfg.Pass != "" {
		err = client.Login(loginCtx, cfg.Pass)
	} else {
		err = client.LoginCached(loginCtx)
	}
	if err != nil {
		logger.Fatalf("error logging in: %v", err)
	}

	if err := face.Run(); err != nil {
		logger.Fatalf("error running interface: %v", err)
	}

	if status := client.Status(); status != (converse.Status{}) {
		err := store.SetStatus(addr, status.Availability.String(), status.Text)
		if err != nil {
			logger.Printf("error saving status: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := client.Logout(ctx); err != nil {
		logger.Printf("error logging out: %v", err)
	}
}

// dialer establishes TCP connections and negotiates them into client
// sessions.
type dialer struct{}

func (dialer) Dial(ctx context.Context, addr jid.JID, secret string) (converse.Stream, error) {
	ctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, err := dial.Client(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	negotiator := xmpp.NewNegotiator(func(*xmpp.Session, *xmpp.StreamConfig) xmpp.StreamConfig {
		return xmpp.StreamConfig{
			Features: []xmpp.StreamFeature{
				xmpp.BindResource(),
				xmpp.StartTLS(&tls.Config{
					ServerName: addr.Domain().String(),
					MinVersion: tls.VersionTLS12,
				}),
				xmpp.SASL("", secret, sasl.ScramSha256Plus, sasl.ScramSha1Plus, sasl.ScramSha256, sasl.ScramSha1, sasl.Plain),
			},
		}
	})
	session, err := xmpp.NewSession(ctx, addr.Domain(), addr, conn, 0, negotiator)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return converse.BindSession(session), nil
}
