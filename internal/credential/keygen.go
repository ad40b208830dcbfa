/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

package credential

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

const (
	DefaultSaltLen = 24
	DefaultRounds  = 4000
	DefaultKeyLen  = 24

	ConfigFileName = "pbkdf2_key_config.ini"

	configSection = "pbkdf2_key_params"
)

// Bounded is a provisioning parameter together with the range it must fall
// in. Set is false when the value was absent or could not be parsed.
type Bounded struct {
	Value int
	Min   int
	Max   int
	Set   bool
}

// Resolve returns the value when it is set, positive and within [Min, Max],
// and def otherwise.
func (b Bounded) Resolve(def int) int {
	if !b.Set || b.Value <= 0 || b.Value < b.Min || b.Value > b.Max {
		return def
	}
	return b.Value
}

type KeyDerivationConfig struct {
	Password string
	SaltLen  Bounded
	KeyLen   Bounded
	Rounds   Bounded
}

// LoadKeyDerivationConfig reads the provisioning file. It returns nil, nil
// when the file does not exist.
func LoadKeyDerivationConfig(path string) (*KeyDerivationConfig, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat key config %s: %w", path, err)
	}

	f, err := ini.LoadSources(ini.LoadOptions{Insensitive: true, IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse key config %s: %w", path, err)
	}

	sec := f.Section(configSection)

	cfg := &KeyDerivationConfig{
		Password: sec.Key("password").String(),
		SaltLen:  bounded(sec, "salt", "min_salt_val", "max_salt_val"),
		KeyLen:   bounded(sec, "key_len", "min_key_len_val", "max_key_len_val"),
		Rounds:   bounded(sec, "rounds", "min_rounds_val", "max_rounds_val"),
	}
	return cfg, nil
}

func bounded(sec *ini.Section, valueKey, minKey, maxKey string) Bounded {
	var b Bounded
	var err error

	if b.Value, err = sec.Key(valueKey).Int(); err != nil {
		return Bounded{}
	}
	if b.Min, err = sec.Key(minKey).Int(); err != nil {
		return Bounded{}
	}
	if b.Max, err = sec.Key(maxKey).Int(); err != nil {
		return Bounded{}
	}
	b.Set = true
	return b
}

// NewRecord builds a fresh record from cfg, drawing the salt from random.
// The master key is left empty when cfg carries a blank password.
func NewRecord(cfg *KeyDerivationConfig, random io.Reader) (*Record, error) {
	rec := &Record{
		Rounds: cfg.Rounds.Resolve(DefaultRounds),
		KeyLen: cfg.KeyLen.Resolve(DefaultKeyLen),
		Salt:   make([]byte, cfg.SaltLen.Resolve(DefaultSaltLen)),
	}

	if _, err := io.ReadFull(random, rec.Salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	if strings.TrimSpace(cfg.Password) != "" {
		rec.Key = deriveKey(cfg.Password, rec.Salt, rec.Rounds, rec.KeyLen)
	}

	return rec, nil
}

// Generate provisions a new record from the key config at configPath and
// writes it to store. When no key config exists nothing is written and the
// returned record is nil, which leaves escalation disabled.
func Generate(store *Store, configPath string) (*Record, error) {
	cfg, err := LoadKeyDerivationConfig(configPath)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, nil
	}

	rec, err := NewRecord(cfg, rand.Reader)
	if err != nil {
		return nil, err
	}

	if err := store.Save(rec); err != nil {
		return nil, err
	}

	return rec, nil
}
