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

// Package session decides, at pipeline setup, which effect implementations
// and which sample rate a capture/playback session uses.
package session

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/loqalabs/loqa-audiofx/internal/audio"
	"github.com/loqalabs/loqa-audiofx/internal/compat"
	"github.com/loqalabs/loqa-audiofx/internal/device"
	"github.com/loqalabs/loqa-audiofx/internal/effects"
)

// EmulatorSampleRateHz is used on the stock emulator, whose reported rate is unreliable.
const EmulatorSampleRateHz = 8000

// ErrRecordPermissionDenied is returned when the process may not record audio.
var ErrRecordPermissionDenied = errors.New("record audio permission not granted")

// Mode selects the implementation of an effect.
type Mode int

const (
	ModeHardware Mode = iota
	ModeSoftware
)

func (m Mode) String() string {
	if m == ModeHardware {
		return "hardware"
	}
	return "software"
}

// Reason explains why an effect runs in software.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonForced      Reason = "forced"
	ReasonUnavailable Reason = "unavailable"
	ReasonDenylisted  Reason = "denylisted"
)

// RateSource records where Plan.SampleRateHz came from.
type RateSource string

const (
	RateFromEmulator RateSource = "emulator"
	RateFromOverride RateSource = "override"
	RateFromPlatform RateSource = "platform"
	RateFromDefault  RateSource = "default"
)

// EffectChoice is the decision for one effect.
type EffectChoice struct {
	Mode   Mode
	Reason Reason
}

// Plan is the combined decision for a session.
type Plan struct {
	Model            string
	Effects          map[effects.Effect]EffectChoice
	LowLatency       bool
	SampleRateHz     int
	SampleRateSource RateSource
}

// Software reports whether e runs in software.
func (p Plan) Software(e effects.Effect) bool {
	return p.Effects[e].Mode == ModeSoftware
}

// Planner combines the compatibility matrix, the override policy and the
// platform into a Plan.
type Planner struct {
	provider device.Provider
	policy   *effects.Policy
	platform audio.Platform
	perms    device.PermissionChecker
	logger   zerolog.Logger
}

// NewPlanner returns a planner. The policy is shared with whatever else
// mutates it; the planner only reads it.
func NewPlanner(provider device.Provider, policy *effects.Policy, platform audio.Platform, perms device.PermissionChecker, logger zerolog.Logger) *Planner {
	return &Planner{
		provider: provider,
		policy:   policy,
		platform: platform,
		perms:    perms,
		logger:   logger.With().Str("component", "session-planner").Logger(),
	}
}

// Plan decides the implementation of every effect, whether the low latency
// output path may be used, and the sample rate to request.
func (p *Planner) Plan() (Plan, error) {
	if !p.perms.HasPermission(device.PermissionRecordAudio) {
		return Plan{}, ErrRecordPermissionDenied
	}

	id := p.provider.Identity()
	device.Log(p.logger, id)
	p.logger.Debug().Str("thread", device.ThreadInfo("session-planner")).Msg("planning session")

	plan := Plan{
		Model:   id.Model,
		Effects: make(map[effects.Effect]EffectChoice, len(effects.Effects())),
	}
	for _, e := range effects.Effects() {
		plan.Effects[e] = p.chooseEffect(e, id.Model)
	}

	plan.LowLatency = p.platform.LowLatencyOutputSupported() && !compat.DenylistedForLowLatency(id)
	plan.SampleRateHz, plan.SampleRateSource = p.sampleRate(id)

	event := p.logger.Info().
		Str("model", id.Model).
		Bool("low_latency", plan.LowLatency).
		Int("sample_rate_hz", plan.SampleRateHz).
		Str("sample_rate_source", string(plan.SampleRateSource))
	for _, e := range effects.Effects() {
		event = event.Str(e.String(), plan.Effects[e].Mode.String())
	}
	event.Msg("session planned")

	return plan, nil
}

func (p *Planner) chooseEffect(e effects.Effect, model string) EffectChoice {
	switch {
	case p.policy.ForceSoftware(e):
		return EffectChoice{Mode: ModeSoftware, Reason: ReasonForced}
	case !p.platform.HardwareEffectAvailable(e.Capability()):
		return EffectChoice{Mode: ModeSoftware, Reason: ReasonUnavailable}
	case compat.IsDenylisted(e.Capability(), model):
		p.logger.Debug().Str("effect", e.String()).Str("model", model).Msg("platform effect denylisted")
		return EffectChoice{Mode: ModeSoftware, Reason: ReasonDenylisted}
	}
	return EffectChoice{Mode: ModeHardware}
}

func (p *Planner) sampleRate(id device.Identity) (int, RateSource) {
	if id.IsEmulator() {
		return EmulatorSampleRateHz, RateFromEmulator
	}

	hz, overridden := p.policy.SampleRate()
	if overridden {
		return hz, RateFromOverride
	}

	native, err := p.platform.NativeSampleRate()
	if err == nil && native > 0 {
		return int(native), RateFromPlatform
	}

	if err == nil {
		err = fmt.Errorf("platform reported %v Hz", native)
	}
	p.logger.Warn().Err(err).Int("sample_rate_hz", hz).Msg("native sample rate unavailable, using default")
	return hz, RateFromDefault
}
