// Package snapshot reads per-variant counts from TOML files.
package snapshot

import (
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/headline-goat/hlg-stats/internal/stats"
)

// Snapshot is a point-in-time export of an experiment's counts.
type Snapshot struct {
	Name     string    `toml:"name"`
	Goal     string    `toml:"goal"`
	Variants []Variant `toml:"variants"`
}

// Variant maps one [[variants]] table. The first entry is the control.
type Variant struct {
	Name        string `toml:"name"`
	Views       int    `toml:"views"`
	Conversions int    `toml:"conversions"`
}

// Load decodes and validates a snapshot file.
func Load(path string) (*Snapshot, error) {
	if path == "" {
		return nil, errors.New("snapshot path is empty")
	}
	var snap Snapshot
	md, err := toml.DecodeFile(path, &snap)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return finish(&snap, md)
}

// Decode reads a snapshot from r.
func Decode(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	md, err := toml.NewDecoder(r).Decode(&snap)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return finish(&snap, md)
}

func finish(snap *Snapshot, md toml.MetaData) (*Snapshot, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown snapshot key %q", undecoded[0].String())
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Validate checks the variant count and each variant's counts.
func (s *Snapshot) Validate() error {
	if len(s.Variants) < 2 {
		return fmt.Errorf("snapshot %q: %w", s.Name, stats.ErrTooFewVariants)
	}
	if err := stats.ValidateObservations(s.Observations()); err != nil {
		return fmt.Errorf("snapshot %q: %w", s.Name, err)
	}
	return nil
}

// Observations converts the snapshot for the analysis engine. Unnamed
// variants are labelled by index.
func (s *Snapshot) Observations() []stats.VariantObservation {
	out := make([]stats.VariantObservation, len(s.Variants))
	for i, v := range s.Variants {
		name := v.Name
		if name == "" {
			name = fmt.Sprintf("variant %d", i)
		}
		out[i] = stats.VariantObservation{
			Name:        name,
			Views:       v.Views,
			Conversions: v.Conversions,
		}
	}
	return out
}
