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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports the policy state. A nil *Metrics records nothing.
type Metrics struct {
	forceSoftware *prometheus.GaugeVec
	observed      *prometheus.CounterVec
	sampleRateHz  prometheus.Gauge
}

// NewMetrics registers the policy collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		forceSoftware: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "loqa_audiofx_force_software",
				Help: "Whether the software implementation is forced for an effect (1) or not (0)",
			},
			[]string{"effect"},
		),
		observed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loqa_audiofx_force_software_observed_total",
				Help: "Total number of reads that observed an active software override",
			},
			[]string{"effect"},
		),
		sampleRateHz: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "loqa_audiofx_sample_rate_override_hz",
				Help: "Overridden native sample rate in Hz, 0 when not overridden",
			},
		),
	}
}

func (m *Metrics) setForceSoftware(e Effect, enabled bool) {
	if m == nil {
		return
	}
	v := 0.0
	if enabled {
		v = 1
	}
	m.forceSoftware.WithLabelValues(e.String()).Set(v)
}

func (m *Metrics) observe(e Effect) {
	if m == nil {
		return
	}
	m.observed.WithLabelValues(e.String()).Inc()
}

func (m *Metrics) setSampleRate(hz int) {
	if m == nil {
		return
	}
	m.sampleRateHz.Set(float64(hz))
}
