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

// Package effects holds the runtime override policy that decides whether the
// pipeline must use the software implementation of an audio effect instead of
// the platform one, and which native sample rate the engine should assume.
//
// A Policy is built once at pipeline startup and passed to every component
// that needs it. All methods are safe for concurrent use.
package effects

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// DefaultSampleRateHz is assumed until an override is set. A higher rate
// might prevent communication mode on some older devices.
const DefaultSampleRateHz = 16000

// State is a consistent view of a Policy.
type State struct {
	ForceSoftwareAEC     bool
	ForceSoftwareAGC     bool
	ForceSoftwareNS      bool
	SampleRateOverridden bool
	SampleRateHz         int
}

// Forced reports the force-software flag held in the snapshot for e.
func (s State) Forced(e Effect) bool {
	switch e {
	case AEC:
		return s.ForceSoftwareAEC
	case AGC:
		return s.ForceSoftwareAGC
	case NS:
		return s.ForceSoftwareNS
	}
	return false
}

// Policy holds the override switches. The zero value is not usable; call
// NewPolicy.
type Policy struct {
	mu                   sync.RWMutex
	forceSoftware        [numEffects]bool
	sampleRateOverridden bool
	sampleRateHz         int

	logger  zerolog.Logger
	metrics *Metrics
}

// Option configures a Policy.
type Option func(*Policy)

// WithLogger sets the logger that receives override diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Policy) {
		p.logger = logger.With().Str("component", "effect-policy").Logger()
	}
}

// WithMetrics exports policy state through m.
func WithMetrics(m *Metrics) Option {
	return func(p *Policy) {
		p.metrics = m
	}
}

// NewPolicy returns a policy that trusts platform effects and assumes
// DefaultSampleRateHz.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		sampleRateHz: DefaultSampleRateHz,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, e := range Effects() {
		p.metrics.setForceSoftware(e, false)
	}
	return p
}

// SetForceSoftware replaces the platform implementation of e with the
// software one when enabled is true.
func (p *Policy) SetForceSoftware(e Effect, enabled bool) {
	if !e.valid() {
		return
	}
	p.mu.Lock()
	p.forceSoftware[e] = enabled
	p.mu.Unlock()

	p.metrics.setForceSoftware(e, enabled)
	p.logger.Debug().Str("effect", e.String()).Bool("enabled", enabled).Msg("force software set")
}

// ForceSoftware reports whether the software implementation of e is forced.
// Every read that returns true logs a warning.
func (p *Policy) ForceSoftware(e Effect) bool {
	if !e.valid() {
		return false
	}
	p.mu.RLock()
	forced := p.forceSoftware[e]
	p.mu.RUnlock()

	return p.observe(e, forced)
}

// observe reports an active override and passes the value through.
func (p *Policy) observe(e Effect, forced bool) bool {
	if forced {
		p.metrics.observe(e)
		p.logger.Warn().
			Str("effect", e.String()).
			Msg("overriding default behavior; now using software " + strings.ToUpper(e.String()))
	}
	return forced
}

// SetSampleRateOverride makes hz the assumed native sample rate. The value is
// not validated here.
func (p *Policy) SetSampleRateOverride(hz int) {
	p.mu.Lock()
	p.sampleRateOverridden = true
	p.sampleRateHz = hz
	p.mu.Unlock()

	p.metrics.setSampleRate(hz)
	p.logger.Debug().Int("sample_rate_hz", hz).Msg("sample rate override set")
}

// SampleRateOverridden reports whether SetSampleRateOverride has been called.
func (p *Policy) SampleRateOverridden() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sampleRateOverridden
}

// SampleRateHz returns the override, or DefaultSampleRateHz if none is set.
func (p *Policy) SampleRateHz() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sampleRateHz
}

// SampleRate returns the rate and whether it was overridden, read together.
func (p *Policy) SampleRate() (hz int, overridden bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sampleRateHz, p.sampleRateOverridden
}

// Snapshot returns every field read under one lock. It does not log.
func (p *Policy) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return State{
		ForceSoftwareAEC:     p.forceSoftware[AEC],
		ForceSoftwareAGC:     p.forceSoftware[AGC],
		ForceSoftwareNS:      p.forceSoftware[NS],
		SampleRateOverridden: p.sampleRateOverridden,
		SampleRateHz:         p.sampleRateHz,
	}
}
