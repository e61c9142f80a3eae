// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package signing signs short strings, typically storage-relative paths, so
// they can round-trip through an untrusted client without tampering.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrMalformedValue is returned when a signed value has no signature part.
	ErrMalformedValue = errors.New("malformed signed value")
	// ErrBadSignature is returned when the signature does not verify.
	ErrBadSignature = errors.New("bad signature")
)

// Signer signs and verifies values with HMAC-SHA256. The signing key is
// derived from the secret and a salt, so signers with different salts cannot
// validate each other's values even when they share a secret.
type Signer struct {
	key []byte
}

// New derives a signer from secret and salt. The secret must be non-empty;
// callers are expected to validate its strength at configuration time.
func New(secret []byte, salt string) *Signer {
	kdf := hkdf.New(sha256.New, secret, []byte(salt), nil)
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(kdf, key); err != nil {
		// Only possible with a broken reader; hkdf over sha256 cannot fail
		// for these lengths.
		panic(err)
	}
	return &Signer{key: key}
}

// Sign appends a base64url HMAC-SHA256 signature to value, separated by a
// colon.
func (s *Signer) Sign(value string) string {
	return value + ":" + s.signature(value)
}

// Unsign splits a signed value on its final colon, verifies the signature
// in constant time and returns the original value.
func (s *Signer) Unsign(signed string) (string, error) {
	idx := strings.LastIndexByte(signed, ':')
	if idx < 0 {
		return "", ErrMalformedValue
	}
	value, sig := signed[:idx], signed[idx+1:]
	if !hmac.Equal([]byte(s.signature(value)), []byte(sig)) {
		return "", ErrBadSignature
	}
	return value, nil
}

func (s *Signer) signature(value string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
