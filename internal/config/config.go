/*
 * FloofOS - Fast Line-rate Offload On Fabric Operating System
 * Copyright (C) 2025 FloofOS Networks <dev@floofos.io>
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License.
 */

// Package config loads oscctl settings from defaults, an optional YAML file
// and OSCCTL_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const envPrefix = "OSCCTL"

type Config struct {
	Console    ConsoleConfig    `mapstructure:"console" yaml:"console"`
	Audit      AuditConfig      `mapstructure:"audit" yaml:"audit"`
	Credential CredentialConfig `mapstructure:"credential" yaml:"credential"`
	Service    ServiceConfig    `mapstructure:"service" yaml:"service"`
	Network    NetworkConfig    `mapstructure:"network" yaml:"network"`
	Sudo       string           `mapstructure:"sudo" yaml:"sudo"`
}

type ConsoleConfig struct {
	// Editor is "liner" or "readline".
	Editor       string `mapstructure:"editor" yaml:"editor"`
	HistoryFile  string `mapstructure:"history_file" yaml:"history_file"`
	HistoryLimit int    `mapstructure:"history_limit" yaml:"history_limit"`
}

type AuditConfig struct {
	File    string `mapstructure:"file" yaml:"file"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
}

type CredentialConfig struct {
	Record string `mapstructure:"record" yaml:"record"`
}

type ServiceConfig struct {
	// Manager is "sysv" or "systemd".
	Manager    string `mapstructure:"manager" yaml:"manager"`
	Controller string `mapstructure:"controller" yaml:"controller"`
	Log        string `mapstructure:"log" yaml:"log"`
}

type NetworkConfig struct {
	Resolv      string `mapstructure:"resolv" yaml:"resolv"`
	Network     string `mapstructure:"network" yaml:"network"`
	Interface   string `mapstructure:"interface" yaml:"interface"`
	NTP         string `mapstructure:"ntp" yaml:"ntp"`
	StepTickers string `mapstructure:"step_tickers" yaml:"step_tickers"`
}

// Defaults returns the built-in settings.
func Defaults() map[string]any {
	return map[string]any{
		"console.editor":        "liner",
		"console.history_file":  "",
		"console.history_limit": 1000,
		"audit.file":            "/var/log/oscctl/audit.log",
		"audit.verbose":         false,
		"credential.record":     "/opt/vmidc/bin/pbkdf2_keyinfo.ini",
		"service.manager":       "sysv",
		"service.controller":    "securityBroker",
		"service.log":           "/opt/vmidc/bin/log/securityBroker.log",
		"network.resolv":        "/etc/resolv.conf",
		"network.network":       "/etc/sysconfig/network",
		"network.interface":     "/etc/sysconfig/network-scripts/ifcfg-eth0",
		"network.ntp":           "/etc/ntp.conf",
		"network.step_tickers":  "/etc/ntp/step-tickers",
		"sudo":                  "/usr/bin/sudo",
	}
}

// Load builds the effective configuration. An explicit path must exist; the
// default search locations are optional.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("oscctl")
		v.SetConfigType("yaml")
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func searchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "oscctl"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "oscctl"))
	}
	return append(paths, "/etc/oscctl")
}

// Render formats cfg as YAML for display.
func Render(cfg *Config) (string, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	return string(out), nil
}
