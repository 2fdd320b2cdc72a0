// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (edge router, stores) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the portal server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Key-Value Store (Redis) — interactions blobs, imgchest cache, audit logs
	RedisURL string `env:"REDIS_URL,required"`

	// AssetOrigin is the base URL of the static asset origin that serves the
	// HTML shells, series JSON records, and all pass-through assets.
	AssetOrigin string `env:"ASSET_ORIGIN,required"`

	// SiteOrigin is the canonical public origin, used to build absolute URLs
	// in Open Graph tags.
	SiteOrigin string `env:"SITE_ORIGIN" envDefault:"https://lesporoiniens.org"`

	// SlugMapPath is the filesystem path to the precomputed slug → filename map.
	SlugMapPath string `env:"SLUGMAP_PATH" envDefault:"./data/slugmap.json"`

	// Admin surface
	AdminToken    string `env:"ADMIN_TOKEN,required"`
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`

	// Upstream image host
	ImgChestUsername string `env:"IMGCHEST_USERNAME" envDefault:"LesPoroïniens"`
	ImgChestBaseURL  string `env:"IMGCHEST_BASE_URL" envDefault:"https://imgchest.com"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
