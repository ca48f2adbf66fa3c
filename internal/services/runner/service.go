// Package runner orchestrates one wake invocation.
package runner

import (
	"fmt"

	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/alias"
	"github.com/fgeck/gowake/internal/services/wol"
	"github.com/rs/zerolog"
)

// Service defines the interface for the wake runner.
type Service interface {
	Run(cfg models.WakeConfig, targets []string) (*models.RunSummary, error)
}

// Impl implements the runner Service interface.
type Impl struct {
	aliasSvc alias.Service
	wolSvc   wol.Service
	logger   zerolog.Logger
}

// New creates a new runner service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		aliasSvc: alias.New(logger),
		wolSvc:   wol.New(logger),
		logger:   logger,
	}
}

// NewWithServices creates a new runner service with custom services (for testing).
func NewWithServices(logger zerolog.Logger, aliasSvc alias.Service, wolSvc wol.Service) *Impl {
	return &Impl{
		aliasSvc: aliasSvc,
		wolSvc:   wolSvc,
		logger:   logger,
	}
}

// Run processes all targets in input order: resolve, validate, build, send.
// Targets fail independently; an invalid token or failed send is logged and
// counted as skipped while the rest proceed. The only fatal error is a
// failure to acquire the broadcast socket during setup.
func (s *Impl) Run(cfg models.WakeConfig, targets []string) (*models.RunSummary, error) {
	table := s.aliasSvc.Load(cfg.AliasFile)

	if err := s.wolSvc.Open(); err != nil {
		return nil, fmt.Errorf("acquiring broadcast socket: %w", err)
	}
	defer func() {
		if err := s.wolSvc.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("closing broadcast socket")
		}
	}()

	summary := &models.RunSummary{}

	for _, target := range targets {
		candidate, resolved := table.Resolve(target)
		if resolved {
			s.logger.Debug().
				Str("alias", target).
				Str("mac", candidate).
				Msg("alias resolved")
		}

		result := s.wolSvc.Wake(cfg, candidate)
		result.Target = target

		if result.Error != nil {
			summary.Skipped++
			s.logger.Warn().
				Err(result.Error).
				Str("target", target).
				Msg("target skipped")
		} else {
			summary.Sent++
		}

		summary.Results = append(summary.Results, *result)
	}

	s.logger.Info().
		Int("sent", summary.Sent).
		Int("skipped", summary.Skipped).
		Msg("wake run finished")

	return summary, nil
}
