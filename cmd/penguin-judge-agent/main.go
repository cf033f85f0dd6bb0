// Command penguin-judge-agent is the per-submission judge agent: it
// loads its Configuration from a JSON file, then drives exactly one
// session over its own stdin/stdout (spec.md §6).
//
// This is the one place the config loader named in spec.md §6 lives —
// the core session/config packages accept an already-parsed
// Configuration and never open the config file or read
// PENGUIN_JUDGE_AGENT_CONFIG themselves.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/penguin-judge/agent/config"
	"github.com/penguin-judge/agent/session"
)

// defaultConfigPath matches the original agent's default when
// PENGUIN_JUDGE_AGENT_CONFIG is unset (spec.md §6).
const defaultConfigPath = "/config.json"

// configPathEnvVar is the only environment variable the agent honours.
const configPathEnvVar = "PENGUIN_JUDGE_AGENT_CONFIG"

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("penguin-judge-agent: fatal")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Resolve(config.Now); err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	agent := session.New(cfg, os.Stdin, os.Stdout, logger)
	return agent.Run(context.Background())
}

func loadConfig() (config.Configuration, error) {
	path := os.Getenv(configPathEnvVar)
	if path == "" {
		path = defaultConfigPath
	}

	f, err := os.Open(path)
	if err != nil {
		return config.Configuration{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var cfg config.Configuration
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return config.Configuration{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}
