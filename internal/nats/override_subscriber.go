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

// Package nats lets the hub change a puck's effect overrides at runtime.
package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/loqalabs/loqa-audiofx/internal/effects"
)

// BroadcastSubject reaches every puck.
const BroadcastSubject = "audiofx.broadcast.override"

// OverrideSubject returns the per-puck override subject.
func OverrideSubject(puckID string) string {
	return fmt.Sprintf("audiofx.%s.override", puckID)
}

// StateSubject returns the subject the puck publishes its policy state on.
func StateSubject(puckID string) string {
	return fmt.Sprintf("audiofx.%s.state", puckID)
}

// OverrideMessage changes one or more overrides. Absent fields are left alone.
type OverrideMessage struct {
	Effect        string `json:"effect,omitempty"`         // "aec", "agc" or "ns"
	ForceSoftware *bool  `json:"force_software,omitempty"` // requires Effect
	SampleRateHz  *int   `json:"sample_rate_hz,omitempty"`
}

// StateMessage is published after every applied override.
type StateMessage struct {
	PuckID               string `json:"puck_id"`
	ForceSoftwareAEC     bool   `json:"force_software_aec"`
	ForceSoftwareAGC     bool   `json:"force_software_agc"`
	ForceSoftwareNS      bool   `json:"force_software_ns"`
	SampleRateOverridden bool   `json:"sample_rate_overridden"`
	SampleRateHz         int    `json:"sample_rate_hz"`
}

// PuckNATSConnection interface for dependency injection
type PuckNATSConnection interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Publish(subject string, data []byte) error
	Close()
}

// PuckNATSConnectionAdapter adapts *nats.Conn to PuckNATSConnection interface
type PuckNATSConnectionAdapter struct {
	conn *nats.Conn
}

func NewPuckNATSConnectionAdapter(conn *nats.Conn) *PuckNATSConnectionAdapter {
	return &PuckNATSConnectionAdapter{conn: conn}
}

func (r *PuckNATSConnectionAdapter) Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error) {
	return r.conn.Subscribe(subject, cb)
}

func (r *PuckNATSConnectionAdapter) Publish(subject string, data []byte) error {
	return r.conn.Publish(subject, data)
}

func (r *PuckNATSConnectionAdapter) Close() {
	r.conn.Close()
}

// OverrideSubscriber applies override messages to a policy.
type OverrideSubscriber struct {
	natsConn PuckNATSConnection
	puckID   string
	policy   *effects.Policy
	logger   zerolog.Logger

	// OnApplied, if set, runs after each message that changed the policy.
	OnApplied func(effects.State)
}

// Connect dials natsURL, retrying up to five times.
func Connect(natsURL string, logger zerolog.Logger) (*nats.Conn, error) {
	var nc *nats.Conn
	var err error

	for i := 0; i < 5; i++ {
		nc, err = nats.Connect(natsURL)
		if err == nil {
			break
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("failed to connect to NATS")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS after 5 attempts: %w", err)
	}

	logger.Info().Str("url", natsURL).Msg("connected to NATS")
	return nc, nil
}

// NewOverrideSubscriber returns a subscriber over an existing connection.
func NewOverrideSubscriber(natsConn PuckNATSConnection, puckID string, policy *effects.Policy, logger zerolog.Logger) *OverrideSubscriber {
	return &OverrideSubscriber{
		natsConn: natsConn,
		puckID:   puckID,
		policy:   policy,
		logger:   logger.With().Str("component", "override-subscriber").Str("puck_id", puckID).Logger(),
	}
}

// Start subscribes to the per-puck and broadcast override subjects.
func (s *OverrideSubscriber) Start() error {
	for _, subject := range []string{OverrideSubject(s.puckID), BroadcastSubject} {
		if _, err := s.natsConn.Subscribe(subject, s.handleOverrideMessage); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
	}
	s.logger.Info().Msg("subscribed to override subjects")
	return nil
}

func (s *OverrideSubscriber) handleOverrideMessage(msg *nats.Msg) {
	var override OverrideMessage
	if err := json.Unmarshal(msg.Data, &override); err != nil {
		s.logger.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal override message")
		return
	}

	applied, err := s.Apply(override)
	if err != nil {
		s.logger.Error().Err(err).Str("subject", msg.Subject).Msg("dropping override message")
		return
	}
	if !applied {
		return
	}

	state := s.policy.Snapshot()
	s.publishState(state)
	if s.OnApplied != nil {
		s.OnApplied(state)
	}
}

// Apply validates the whole message before changing anything, so a bad
// message leaves the policy untouched. It reports whether anything changed.
func (s *OverrideSubscriber) Apply(override OverrideMessage) (bool, error) {
	var effect effects.Effect
	if override.ForceSoftware != nil {
		if override.Effect == "" {
			return false, fmt.Errorf("force_software requires an effect")
		}
		e, err := effects.ParseEffect(override.Effect)
		if err != nil {
			return false, err
		}
		effect = e
	}

	applied := false
	if override.ForceSoftware != nil {
		s.policy.SetForceSoftware(effect, *override.ForceSoftware)
		s.logger.Info().Str("effect", effect.String()).Bool("force_software", *override.ForceSoftware).Msg("override applied")
		applied = true
	}
	if override.SampleRateHz != nil {
		s.policy.SetSampleRateOverride(*override.SampleRateHz)
		s.logger.Info().Int("sample_rate_hz", *override.SampleRateHz).Msg("sample rate override applied")
		applied = true
	}
	return applied, nil
}

func (s *OverrideSubscriber) publishState(state effects.State) {
	data, err := json.Marshal(StateMessage{
		PuckID:               s.puckID,
		ForceSoftwareAEC:     state.ForceSoftwareAEC,
		ForceSoftwareAGC:     state.ForceSoftwareAGC,
		ForceSoftwareNS:      state.ForceSoftwareNS,
		SampleRateOverridden: state.SampleRateOverridden,
		SampleRateHz:         state.SampleRateHz,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal state")
		return
	}
	if err := s.natsConn.Publish(StateSubject(s.puckID), data); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish state")
	}
}

// Close closes the NATS connection
func (s *OverrideSubscriber) Close() {
	if s.natsConn != nil {
		s.natsConn.Close()
		s.logger.Info().Msg("NATS connection closed")
	}
}
