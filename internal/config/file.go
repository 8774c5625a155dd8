package config

// This file implements the optional TOML configuration file. Keys mirror the
// struct tags on Config; unknown keys are rejected so typos surface early.

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that reads TOML strings like "90s" or "5m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// LoadFile overlays the TOML file at path onto cfg. Keys absent from the
// file keep their current values. A missing file is an error; callers only
// invoke LoadFile when the user named one.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	// Slices are decoded into a nil field so a file value replaces the
	// default list instead of being merged into it.
	next := *cfg
	next.TorrentClient, next.DocumentSuffixes = nil, nil

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config %s: %s", path, strict.String())
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	if next.TorrentClient == nil {
		next.TorrentClient = cfg.TorrentClient
	}
	if next.DocumentSuffixes == nil {
		next.DocumentSuffixes = cfg.DocumentSuffixes
	}
	*cfg = next
	return nil
}

// Encode writes cfg as TOML. Used by "metamirror check" to show the
// effective configuration.
func Encode(cfg *Config) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(cfg); err != nil {
		return "", err
	}
	return buf.String(), nil
}
