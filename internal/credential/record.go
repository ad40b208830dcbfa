/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

// Package credential derives, stores and verifies the master key that gates
// the privileged shell.
//
// A Record is produced once at provisioning time by Generate and read back
// by Store.Load on every shell start. A missing record is not an error: it
// disables escalation for the lifetime of the process.
package credential

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
	"gopkg.in/ini.v1"
)

const (
	DefaultRecordPath = "/opt/vmidc/bin/pbkdf2_keyinfo.ini"

	recordSection = "pbkdf2_key_decode_info"
)

type Record struct {
	Salt   []byte
	Rounds int
	KeyLen int
	// Key is the hex encoded master key. Empty when provisioning was run
	// without a password.
	Key string
}

// Derive runs PBKDF2-HMAC-SHA1 over password with the record's salt, rounds
// and key length and returns the hex encoded result.
func (r *Record) Derive(password string) string {
	if r == nil {
		return ""
	}
	return deriveKey(password, r.Salt, r.Rounds, r.KeyLen)
}

// Verify reports whether candidate matches the master key. Both values are
// compared digit by digit; the loop does not exit early on a mismatch.
func (r *Record) Verify(candidate string) bool {
	if r == nil || r.Key == "" {
		return false
	}
	if len(candidate) != len(r.Key) {
		return false
	}

	var result byte
	for i := 0; i < len(r.Key); i++ {
		result |= hexDigit(r.Key[i]) ^ hexDigit(candidate[i])
	}
	return result == 0
}

func deriveKey(password string, salt []byte, rounds, keyLen int) string {
	dk := pbkdf2.Key([]byte(password), salt, rounds, keyLen, sha1.New)
	return hex.EncodeToString(dk)
}

// hexDigit maps an ASCII hex digit to its value. Anything else maps to 0x10,
// which can never cancel out against a valid digit.
func hexDigit(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0x10
	}
}

// Store persists a Record as an INI file.
type Store struct {
	Path string
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultRecordPath
	}
	return &Store{Path: path}
}

// Load returns the persisted record, or nil when no record exists.
func (s *Store) Load() (*Record, error) {
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat key info %s: %w", s.Path, err)
	}

	f, err := ini.Load(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key info %s: %w", s.Path, err)
	}

	sec, err := f.GetSection(recordSection)
	if err != nil {
		return nil, fmt.Errorf("key info %s: %w", s.Path, err)
	}

	salt, err := hex.DecodeString(sec.Key("salt").String())
	if err != nil {
		return nil, fmt.Errorf("key info %s: invalid salt: %w", s.Path, err)
	}

	keyLen, err := sec.Key("key_len").Int()
	if err != nil {
		return nil, fmt.Errorf("key info %s: invalid key_len: %w", s.Path, err)
	}

	rounds, err := sec.Key("rounds").Int()
	if err != nil {
		return nil, fmt.Errorf("key info %s: invalid rounds: %w", s.Path, err)
	}

	if len(salt) == 0 {
		return nil, fmt.Errorf("key info %s: empty salt", s.Path)
	}
	if keyLen <= 0 {
		return nil, fmt.Errorf("key info %s: key_len %d out of range", s.Path, keyLen)
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("key info %s: rounds %d out of range", s.Path, rounds)
	}

	rec := &Record{
		Salt:   salt,
		KeyLen: keyLen,
		Rounds: rounds,
	}
	if sec.HasKey("master_key") {
		rec.Key = sec.Key("master_key").String()
	}

	return rec, nil
}

// Save writes rec to the store, replacing any previous record.
func (s *Store) Save(rec *Record) error {
	f := ini.Empty()

	sec, err := f.NewSection(recordSection)
	if err != nil {
		return fmt.Errorf("failed to create key info section: %w", err)
	}

	values := [][2]string{
		{"salt", hex.EncodeToString(rec.Salt)},
		{"key_len", fmt.Sprintf("%d", rec.KeyLen)},
		{"rounds", fmt.Sprintf("%d", rec.Rounds)},
	}
	if rec.Key != "" {
		values = append(values, [2]string{"master_key", rec.Key})
	}

	for _, kv := range values {
		if _, err := sec.NewKey(kv[0], kv[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", kv[0], err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("failed to create key info directory: %w", err)
	}

	tmp := s.Path + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to write key info: %w", err)
	}

	if _, err := f.WriteTo(out); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write key info: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write key info: %w", err)
	}

	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace key info: %w", err)
	}

	return nil
}
