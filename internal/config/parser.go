// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/wol"
	"github.com/spf13/viper"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// Default returns the configuration used when no config file is given.
func Default() *models.WakeConfig {
	return &models.WakeConfig{
		BroadcastIP: wol.DefaultBroadcastIP,
		Port:        wol.DefaultPort,
	}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.WakeConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.WakeConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

func (p *Parser) parse() (*models.WakeConfig, error) {
	cfg := &models.WakeConfig{
		BroadcastIP: p.v.GetString("wake.broadcast_ip"),
		Port:        p.v.GetInt("wake.port"),
		AliasFile:   p.expandEnv(p.v.GetString("wake.alias_file")),
	}

	// Set defaults.
	if cfg.BroadcastIP == "" {
		cfg.BroadcastIP = wol.DefaultBroadcastIP
	}
	if cfg.Port == 0 {
		cfg.Port = wol.DefaultPort
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.WakeConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if net.ParseIP(cfg.BroadcastIP) == nil {
		return fmt.Errorf("wake.broadcast_ip %q is not a valid IP address", cfg.BroadcastIP)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("wake.port must be between 1 and 65535")
	}

	return nil
}
