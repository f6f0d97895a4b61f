/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

// Package config loads the puck's audio effect configuration from the
// environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/loqalabs/loqa-audiofx/internal/device"
	"github.com/loqalabs/loqa-audiofx/internal/effects"
)

// Config is the runtime configuration. Every field can also be set by a
// command line flag in cmd.
type Config struct {
	PuckID      string `env:"LOQA_PUCK_ID" envDefault:"loqa-puck-001"`
	NATSURL     string `env:"LOQA_NATS_URL"`
	LogLevel    string `env:"LOQA_LOG_LEVEL" envDefault:"info"`
	LogJSON     bool   `env:"LOQA_LOG_JSON"`
	MetricsAddr string `env:"LOQA_METRICS_ADDR"`
	Channels    int    `env:"LOQA_CHANNELS" envDefault:"1"`

	ForceSoftwareAEC bool `env:"LOQA_FORCE_SOFTWARE_AEC"`
	ForceSoftwareAGC bool `env:"LOQA_FORCE_SOFTWARE_AGC"`
	ForceSoftwareNS  bool `env:"LOQA_FORCE_SOFTWARE_NS"`
	// SampleRateHz overrides the native sample rate when non-zero.
	SampleRateHz int `env:"LOQA_SAMPLE_RATE_HZ"`

	Device Device `envPrefix:"LOQA_DEVICE_"`
}

// Device describes the host for the compatibility matrix.
type Device struct {
	Model        string `env:"MODEL"`
	Hardware     string `env:"HARDWARE"`
	Brand        string `env:"BRAND"`
	Name         string `env:"NAME"`
	BuildID      string `env:"BUILD_ID"`
	Manufacturer string `env:"MANUFACTURER"`
	Product      string `env:"PRODUCT"`
	Release      string `env:"RELEASE"`
	SDK          int    `env:"SDK"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Identity converts the device section into a device.Identity.
func (c Config) Identity() device.Identity {
	return device.Identity{
		Model:        c.Device.Model,
		Hardware:     c.Device.Hardware,
		Brand:        c.Device.Brand,
		Device:       c.Device.Name,
		BuildID:      c.Device.BuildID,
		Manufacturer: c.Device.Manufacturer,
		Product:      c.Device.Product,
		Release:      c.Device.Release,
		SDKInt:       c.Device.SDK,
	}
}

// ApplyOverrides pushes the configured overrides into p. Unset values leave
// the policy defaults in place.
func (c Config) ApplyOverrides(p *effects.Policy) {
	forced := map[effects.Effect]bool{
		effects.AEC: c.ForceSoftwareAEC,
		effects.AGC: c.ForceSoftwareAGC,
		effects.NS:  c.ForceSoftwareNS,
	}
	for _, e := range effects.Effects() {
		if forced[e] {
			p.SetForceSoftware(e, true)
		}
	}
	if c.SampleRateHz != 0 {
		p.SetSampleRateOverride(c.SampleRateHz)
	}
}

// Validate checks values the policy itself does not check.
func (c Config) Validate() error {
	if c.PuckID == "" {
		return fmt.Errorf("puck id must not be empty")
	}
	if c.SampleRateHz < 0 {
		return fmt.Errorf("sample rate must not be negative: %d", c.SampleRateHz)
	}
	if c.Channels < 1 || c.Channels > 2 {
		return fmt.Errorf("channels must be 1 or 2: %d", c.Channels)
	}
	return nil
}
