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

package session

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqalabs/loqa-audiofx/internal/audio"
	"github.com/loqalabs/loqa-audiofx/internal/compat"
	"github.com/loqalabs/loqa-audiofx/internal/device"
	"github.com/loqalabs/loqa-audiofx/internal/effects"
)

type plannerFixture struct {
	backend *audio.MockAudioBackend
	policy  *effects.Policy
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, allHardware bool) *plannerFixture {
	t.Helper()
	backend := audio.NewMockAudioBackend()
	if allHardware {
		for _, c := range compat.Capabilities() {
			backend.SetHardwareEffect(c, true)
		}
	}
	var logs bytes.Buffer
	return &plannerFixture{
		backend: backend,
		policy:  effects.NewPolicy(effects.WithLogger(zerolog.New(&logs))),
		logs:    &logs,
	}
}

func (f *plannerFixture) planner(id device.Identity, perms device.PermissionChecker) *Planner {
	return NewPlanner(device.StaticProvider(id), f.policy, f.backend, perms, zerolog.New(f.logs))
}

func granted() device.Permissions {
	return device.GrantAll(device.PermissionRecordAudio)
}

func TestPlan_EffectSelection(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		expect map[effects.Effect]EffectChoice
	}{
		{
			name:  "oneplus_2",
			model: "ONE A2005",
			expect: map[effects.Effect]EffectChoice{
				effects.AEC: {ModeSoftware, ReasonDenylisted},
				effects.AGC: {ModeHardware, ReasonNone},
				effects.NS:  {ModeSoftware, ReasonDenylisted},
			},
		},
		{
			name:  "nexus_9",
			model: "Nexus 9",
			expect: map[effects.Effect]EffectChoice{
				effects.AEC: {ModeHardware, ReasonNone},
				effects.AGC: {ModeSoftware, ReasonDenylisted},
				effects.NS:  {ModeSoftware, ReasonDenylisted},
			},
		},
		{
			name:  "pixel_7",
			model: "Pixel 7",
			expect: map[effects.Effect]EffectChoice{
				effects.AEC: {ModeHardware, ReasonNone},
				effects.AGC: {ModeHardware, ReasonNone},
				effects.NS:  {ModeHardware, ReasonNone},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			plan, err := f.planner(device.Identity{Model: tt.model}, granted()).Plan()
			require.NoError(t, err)
			assert.Equal(t, tt.model, plan.Model)
			assert.Equal(t, tt.expect, plan.Effects)
		})
	}
}

func TestPlan_OverrideTakesPrecedence(t *testing.T) {
	f := newFixture(t, true)
	f.policy.SetForceSoftware(effects.AGC, true)

	plan, err := f.planner(device.Identity{Model: "Pixel 7"}, granted()).Plan()
	require.NoError(t, err)

	assert.Equal(t, EffectChoice{ModeSoftware, ReasonForced}, plan.Effects[effects.AGC])
	assert.True(t, plan.Software(effects.AGC))
	assert.False(t, plan.Software(effects.AEC))
	assert.Contains(t, f.logs.String(), "overriding default behavior; now using software AGC")
}

func TestPlan_ForcedBeatsDenylisted(t *testing.T) {
	f := newFixture(t, true)
	f.policy.SetForceSoftware(effects.NS, true)

	plan, err := f.planner(device.Identity{Model: "Nexus 9"}, granted()).Plan()
	require.NoError(t, err)
	assert.Equal(t, ReasonForced, plan.Effects[effects.NS].Reason)
}

func TestPlan_UnavailableHardware(t *testing.T) {
	f := newFixture(t, false)
	f.backend.SetHardwareEffect(compat.NS, true)

	plan, err := f.planner(device.Identity{Model: "Pixel 7"}, granted()).Plan()
	require.NoError(t, err)
	assert.Equal(t, EffectChoice{ModeSoftware, ReasonUnavailable}, plan.Effects[effects.AEC])
	assert.Equal(t, EffectChoice{ModeSoftware, ReasonUnavailable}, plan.Effects[effects.AGC])
	assert.Equal(t, EffectChoice{ModeHardware, ReasonNone}, plan.Effects[effects.NS])
}

func TestPlan_LowLatency(t *testing.T) {
	f := newFixture(t, true)
	id := device.Identity{Model: "Pixel 7"}

	plan, err := f.planner(id, granted()).Plan()
	require.NoError(t, err)
	assert.False(t, plan.LowLatency, "platform without low latency path")

	f.backend.SetLowLatencyOutput(true)
	plan, err = f.planner(id, granted()).Plan()
	require.NoError(t, err)
	assert.True(t, plan.LowLatency)
}

func TestPlan_SampleRate(t *testing.T) {
	t.Run("platform", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetNativeSampleRate(44100, nil)

		plan, err := f.planner(device.Identity{Model: "Pixel 7"}, granted()).Plan()
		require.NoError(t, err)
		assert.Equal(t, 44100, plan.SampleRateHz)
		assert.Equal(t, RateFromPlatform, plan.SampleRateSource)
	})

	t.Run("override", func(t *testing.T) {
		f := newFixture(t, true)
		f.policy.SetSampleRateOverride(32000)

		plan, err := f.planner(device.Identity{Model: "Pixel 7"}, granted()).Plan()
		require.NoError(t, err)
		assert.Equal(t, 32000, plan.SampleRateHz)
		assert.Equal(t, RateFromOverride, plan.SampleRateSource)
	})

	t.Run("emulator", func(t *testing.T) {
		f := newFixture(t, true)
		f.policy.SetSampleRateOverride(32000)

		id := device.Identity{Model: "sdk", Hardware: "goldfish", Brand: "generic_x86"}
		plan, err := f.planner(id, granted()).Plan()
		require.NoError(t, err)
		assert.Equal(t, EmulatorSampleRateHz, plan.SampleRateHz)
		assert.Equal(t, RateFromEmulator, plan.SampleRateSource)
	})

	t.Run("platform_error_falls_back_to_default", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetNativeSampleRate(0, errors.New("no device"))

		plan, err := f.planner(device.Identity{Model: "Pixel 7"}, granted()).Plan()
		require.NoError(t, err)
		assert.Equal(t, effects.DefaultSampleRateHz, plan.SampleRateHz)
		assert.Equal(t, RateFromDefault, plan.SampleRateSource)
		assert.Contains(t, f.logs.String(), "native sample rate unavailable")
	})

	t.Run("platform_zero_falls_back_to_default", func(t *testing.T) {
		f := newFixture(t, true)
		f.backend.SetNativeSampleRate(0, nil)

		plan, err := f.planner(device.Identity{Model: "Pixel 7"}, granted()).Plan()
		require.NoError(t, err)
		assert.Equal(t, RateFromDefault, plan.SampleRateSource)
	})
}

func TestPlan_PermissionDenied(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.planner(device.Identity{Model: "Pixel 7"}, device.Permissions{}).Plan()
	assert.ErrorIs(t, err, ErrRecordPermissionDenied)
}

func TestPlan_LogsDeviceInfo(t *testing.T) {
	f := newFixture(t, true)
	id := device.Identity{Model: "Nexus 9", Brand: "google", SDKInt: 22}

	_, err := f.planner(id, granted()).Plan()
	require.NoError(t, err)
	assert.Contains(t, f.logs.String(), device.Describe(id))
	assert.Contains(t, f.logs.String(), "session planned")
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "hardware", ModeHardware.String())
	assert.Equal(t, "software", ModeSoftware.String())
}
