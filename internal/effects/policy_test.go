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

package effects

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loqalabs/loqa-audiofx/internal/compat"
)

func newTestPolicy(t *testing.T) (*Policy, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.WarnLevel)
	return NewPolicy(WithLogger(logger)), &buf
}

func logLines(buf *bytes.Buffer) []map[string]interface{} {
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err == nil {
			out = append(out, entry)
		}
	}
	return out
}

func TestNewPolicy_Defaults(t *testing.T) {
	p, buf := newTestPolicy(t)

	for _, e := range Effects() {
		assert.False(t, p.ForceSoftware(e), "%s should default to platform", e)
	}
	assert.False(t, p.SampleRateOverridden())
	assert.Equal(t, 16000, p.SampleRateHz())
	assert.Equal(t, DefaultSampleRateHz, p.SampleRateHz())
	assert.Empty(t, logLines(buf), "reads of inactive overrides must not log")
}

func TestSetForceSoftware_PerEffect(t *testing.T) {
	for _, e := range Effects() {
		t.Run(e.String(), func(t *testing.T) {
			p, _ := newTestPolicy(t)
			p.SetForceSoftware(e, true)

			for _, other := range Effects() {
				assert.Equal(t, other == e, p.ForceSoftware(other), "effect %s", other)
			}

			p.SetForceSoftware(e, false)
			assert.False(t, p.ForceSoftware(e))
		})
	}
}

func TestSetForceSoftware_Idempotent(t *testing.T) {
	once, _ := newTestPolicy(t)
	once.SetForceSoftware(AEC, true)

	twice, _ := newTestPolicy(t)
	twice.SetForceSoftware(AEC, true)
	twice.SetForceSoftware(AEC, true)

	assert.Equal(t, once.Snapshot(), twice.Snapshot())
}

func TestForceSoftware_LogsWarningOnEveryActiveRead(t *testing.T) {
	p, buf := newTestPolicy(t)
	p.SetForceSoftware(NS, true)

	require.True(t, p.ForceSoftware(NS))
	require.True(t, p.ForceSoftware(NS))
	assert.False(t, p.ForceSoftware(AGC))

	lines := logLines(buf)
	require.Len(t, lines, 2)
	for _, entry := range lines {
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, "ns", entry["effect"])
		assert.Equal(t, "overriding default behavior; now using software NS", entry["message"])
	}
}

func TestSnapshot_DoesNotLog(t *testing.T) {
	p, buf := newTestPolicy(t)
	p.SetForceSoftware(AEC, true)

	s := p.Snapshot()
	assert.True(t, s.ForceSoftwareAEC)
	assert.True(t, s.Forced(AEC))
	assert.False(t, s.Forced(AGC))
	assert.Empty(t, logLines(buf))
}

func TestSampleRateOverride_RoundTrip(t *testing.T) {
	p, _ := newTestPolicy(t)

	p.SetSampleRateOverride(44100)
	assert.True(t, p.SampleRateOverridden())
	assert.Equal(t, 44100, p.SampleRateHz())

	hz, overridden := p.SampleRate()
	assert.Equal(t, 44100, hz)
	assert.True(t, overridden)

	p.SetSampleRateOverride(48000)
	assert.Equal(t, 48000, p.SampleRateHz())
}

func TestSampleRateOverride_NoValidation(t *testing.T) {
	p, _ := newTestPolicy(t)
	p.SetSampleRateOverride(0)
	assert.True(t, p.SampleRateOverridden())
	assert.Equal(t, 0, p.SampleRateHz())

	p.SetSampleRateOverride(-1)
	assert.Equal(t, -1, p.SampleRateHz())
}

func TestInvalidEffectIgnored(t *testing.T) {
	p, _ := newTestPolicy(t)
	p.SetForceSoftware(Effect(9), true)
	assert.False(t, p.ForceSoftware(Effect(9)))
	assert.Equal(t, State{SampleRateHz: DefaultSampleRateHz}, p.Snapshot())
}

func TestPolicyInstancesAreIndependent(t *testing.T) {
	a, _ := newTestPolicy(t)
	b, _ := newTestPolicy(t)

	a.SetForceSoftware(AGC, true)
	a.SetSampleRateOverride(8000)

	assert.False(t, b.ForceSoftware(AGC))
	assert.False(t, b.SampleRateOverridden())
}

func TestConcurrentWritesObserveLastWrite(t *testing.T) {
	p, _ := newTestPolicy(t)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				p.SetForceSoftware(AEC, (i+j)%2 == 0)
				_ = p.ForceSoftware(AEC)
			}
		}(i)
	}
	wg.Wait()

	p.SetForceSoftware(AEC, true)
	assert.True(t, p.ForceSoftware(AEC))
	p.SetForceSoftware(AEC, false)
	assert.False(t, p.ForceSoftware(AEC))
}

func TestConcurrentSampleRateNeverTorn(t *testing.T) {
	p, _ := newTestPolicy(t)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	torn := make(chan State, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			s := p.Snapshot()
			if s.SampleRateOverridden && s.SampleRateHz == DefaultSampleRateHz {
				select {
				case torn <- s:
				default:
				}
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		p.SetSampleRateOverride(44100 + i%2)
	}
	close(stop)
	wg.Wait()

	select {
	case s := <-torn:
		t.Fatalf("observed overridden flag with stale rate: %+v", s)
	default:
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	p := NewPolicy(WithMetrics(m))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.forceSoftware.WithLabelValues("aec")))

	p.SetForceSoftware(AEC, true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.forceSoftware.WithLabelValues("aec")))

	p.ForceSoftware(AEC)
	p.ForceSoftware(AEC)
	p.ForceSoftware(AGC)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.observed.WithLabelValues("aec")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.observed.WithLabelValues("agc")))

	p.SetSampleRateOverride(48000)
	assert.Equal(t, 48000.0, testutil.ToFloat64(m.sampleRateHz))
}

func TestEffectNames(t *testing.T) {
	tests := []struct {
		effect     Effect
		name       string
		capability compat.Capability
	}{
		{AEC, "aec", compat.AEC},
		{AGC, "agc", compat.AGC},
		{NS, "ns", compat.NS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.effect.String())
			assert.Equal(t, tt.capability, tt.effect.Capability())

			parsed, err := ParseEffect(strings.ToUpper(tt.name))
			require.NoError(t, err)
			assert.Equal(t, tt.effect, parsed)
		})
	}

	_, err := ParseEffect("howling")
	assert.Error(t, err)
}
