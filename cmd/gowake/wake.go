package main

import (
	"bufio"
	"fmt"

	"github.com/fgeck/gowake/internal/config"
	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/alias"
	"github.com/fgeck/gowake/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	broadcastIP string
	port        int
)

var wakeCmd = &cobra.Command{
	Use:   "wake [target...]",
	Short: "Send a magic packet for each target",
	Long: `Send a Wake-on-LAN magic packet for each target, where a target is
either a literal MAC address or an alias from the alias file.

Targets come from the arguments, or from stdin (whitespace separated) when
no arguments are given or a single "-" is passed:

  gowake wake 00-1F-D0-98-CD-44 Server3
  cat machines.txt | gowake wake

Invalid targets are skipped with a warning; the command still exits 0.`,
	RunE: runWake,
}

func init() {
	wakeCmd.Flags().StringVarP(&broadcastIP, "broadcast", "b", "", "broadcast IP to send to (default 255.255.255.255)")
	wakeCmd.Flags().IntVarP(&port, "port", "p", 0, "UDP port to send to (default 4000)")
}

func runWake(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}

	// Flags override the config file.
	if broadcastIP != "" {
		cfg.BroadcastIP = broadcastIP
	}
	if port != 0 {
		cfg.Port = port
	}
	if aliasFile != "" {
		cfg.AliasFile = aliasFile
	}
	if cfg.AliasFile == "" {
		cfg.AliasFile = alias.DefaultPath()
	}

	if err := config.Validate(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	targets, err := gatherTargets(cmd, args)
	if err != nil {
		log.Error().Err(err).Msg("failed to read targets")
		return err
	}
	if len(targets) == 0 {
		log.Error().Msg("at least one target is required")
		return cmd.Help()
	}

	log.Info().
		Str("broadcast", cfg.BroadcastIP).
		Int("port", cfg.Port).
		Int("targets", len(targets)).
		Msg("starting wake run")

	runnerSvc := runner.New(log.Logger)
	if _, err := runnerSvc.Run(*cfg, targets); err != nil {
		log.Error().Err(err).Msg("wake run failed")
		return err
	}

	return nil
}

func loadConfig() (*models.WakeConfig, error) {
	if configFile == "" {
		return config.Default(), nil
	}
	return config.NewParser().LoadFile(configFile)
}

// gatherTargets returns the argument list, or tokens read from stdin when
// no arguments are given or the single argument "-" is passed. The two
// forms are processed identically downstream.
func gatherTargets(cmd *cobra.Command, args []string) ([]string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return args, nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Split(bufio.ScanWords)

	var targets []string
	for scanner.Scan() {
		targets = append(targets, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading targets from stdin: %w", err)
	}

	return targets, nil
}
