// Package alias provides loading and lookup of the MAC alias table.
package alias

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// DefaultFileName is the alias file expected next to the executable.
const DefaultFileName = "aliases.json"

// Table maps alias names to MAC address strings. Keys are case-sensitive.
type Table map[string]string

// Resolve returns the MAC string mapped to token and true on an exact key
// match. Any other token is returned unchanged so it can be treated as a
// literal MAC address candidate.
func (t Table) Resolve(token string) (string, bool) {
	if mac, ok := t[token]; ok {
		return mac, true
	}
	return token, false
}

// Service defines the interface for alias table access.
type Service interface {
	Load(path string) Table
}

// Impl implements the alias Service interface.
type Impl struct {
	logger zerolog.Logger
}

// New creates a new alias service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{logger: logger}
}

// DefaultPath returns the alias file path co-located with the running
// executable, falling back to the working directory if the executable
// path cannot be determined.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}

// Load reads the alias table at path. A missing file yields an empty
// table. An unreadable or unparseable file yields an empty table for this
// run, logs a warning, and leaves an empty placeholder file behind so the
// next run has a valid file to edit. Load never fails the invocation.
func (s *Impl) Load(path string) Table {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Str("file", path).Msg("no alias file, using empty table")
			return Table{}
		}
		s.logger.Warn().Err(err).Str("file", path).Msg("alias file unreadable, using empty table")
		return Table{}
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		s.logger.Warn().Err(err).Str("file", path).Msg("alias file unparseable, using empty table")
		s.writePlaceholder(path)
		return Table{}
	}

	s.logger.Debug().Str("file", path).Int("aliases", len(table)).Msg("alias table loaded")
	return table
}

// writePlaceholder replaces a corrupt alias file with an empty JSON object.
// Best effort: failure to write is only worth a debug line.
func (s *Impl) writePlaceholder(path string) {
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		s.logger.Debug().Err(err).Str("file", path).Msg("could not write placeholder alias file")
		return
	}
	s.logger.Info().Str("file", path).Msg("wrote empty placeholder alias file")
}
