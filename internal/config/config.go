// Package config owns the agent configuration document.
//
// Ownership boundary:
// - TOML load/validate/persist
// - identity token bootstrap
// - resolution into a fully-populated runtime config
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultInterval is the heartbeat cadence applied when the document does
// not set server.interval.
const DefaultInterval = 180 * time.Second

// Document mirrors the on-disk TOML configuration file.
type Document struct {
	Server         ServerConfig     `toml:"server"`
	Statistics     StatisticsConfig `toml:"statistics"`
	Identification IdentityConfig   `toml:"identification"`
}

type ServerConfig struct {
	ServerAddress      string   `toml:"server_address"`
	Token              string   `toml:"token"`
	BackupServers      []string `toml:"backup_servers,omitempty"`
	Interval           int      `toml:"interval,omitempty"`
	CheckServerVersion bool     `toml:"check_server_version,omitempty"`
}

type StatisticsConfig struct {
	Enabled bool `toml:"enabled"`
}

type IdentityConfig struct {
	Token string `toml:"token,omitempty"`
}

// Runtime is the resolved configuration the session engine consumes. Every
// field is populated; downstream code never branches on absence.
type Runtime struct {
	Endpoints          []string
	Token              string
	Interval           time.Duration
	CheckServerVersion bool
	StatisticsEnabled  bool
	Identity           string
}

func Load(path string) (Document, error) {
	var doc Document
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return Document{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := Validate(doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func Validate(doc Document) error {
	if strings.TrimSpace(doc.Server.ServerAddress) == "" {
		return fmt.Errorf("config missing server.server_address")
	}
	if strings.TrimSpace(doc.Server.Token) == "" {
		return fmt.Errorf("config missing server.token")
	}
	for i, backup := range doc.Server.BackupServers {
		if strings.TrimSpace(backup) == "" {
			return fmt.Errorf("config backup_servers[%d] is empty", i)
		}
	}
	if doc.Server.Interval < 0 {
		return fmt.Errorf("config server.interval must not be negative")
	}
	return nil
}

// Save writes the document back to path. The original file layout is not
// preserved; values are.
func Save(path string, doc Document) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("config save failed (%s): %w", path, err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(doc); err != nil {
		return fmt.Errorf("config encode failed (%s): %w", path, err)
	}
	return nil
}

// Resolve produces the fully-populated runtime view of the document.
// The primary endpoint always sits first, backups follow in order.
func Resolve(doc Document) Runtime {
	endpoints := make([]string, 0, 1+len(doc.Server.BackupServers))
	endpoints = append(endpoints, doc.Server.ServerAddress)
	endpoints = append(endpoints, doc.Server.BackupServers...)

	interval := DefaultInterval
	if doc.Server.Interval > 0 {
		interval = time.Duration(doc.Server.Interval) * time.Second
	}

	return Runtime{
		Endpoints:          endpoints,
		Token:              doc.Server.Token,
		Interval:           interval,
		CheckServerVersion: doc.Server.CheckServerVersion,
		StatisticsEnabled:  doc.Statistics.Enabled,
		Identity:           doc.Identification.Token,
	}
}
