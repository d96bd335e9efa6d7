// Copyright (c) 2024 The Chainhook developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/omahs/chainhook/predicate"
)

// Config is the external configuration loader referenced by spec §1
// ("configuration file parsing" is out of scope for the core; chainhookd
// is where it's wired).
type Config struct {
	Network predicate.Network `yaml:"network"`

	DataDir string `yaml:"data_dir"`
	APIAddr string `yaml:"api_addr"`

	RedisAddr string `yaml:"redis_addr"`

	BaseTipLow uint64 `yaml:"base_tip_low"`
	AppTipLow  uint64 `yaml:"app_tip_low"`

	ArchiveTSVURL string `yaml:"archive_tsv_url"`
	ArchiveSHAURL string `yaml:"archive_sha_url"`
}

// LoadConfig reads and validates a yaml config file (spec §6 "Environment
// variables and subcommand layout are delegated to the external
// configuration loader").
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "config: read file")
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse yaml")
	}
	if !cfg.Network.Valid() {
		return nil, errors.Errorf("config: unknown network %q", cfg.Network)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./chainhookd-data"
	}
	if cfg.APIAddr == "" {
		cfg.APIAddr = "127.0.0.1:20445"
	}
	return &cfg, nil
}
