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
	"fmt"

	"github.com/loqalabs/loqa-audiofx/internal/audio"
)

// Session holds the capture and playback streams opened for a Plan.
type Session struct {
	Plan   Plan
	Input  audio.StreamInterface
	Output audio.StreamInterface
}

// BufferFrames returns the number of frames in 10 ms at hz.
func BufferFrames(hz int) int {
	return hz / 100
}

// Open creates and starts both streams at the planned sample rate. On error
// any stream already opened is closed.
func Open(backend audio.AudioBackend, plan Plan, channels int) (*Session, error) {
	if plan.SampleRateHz <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d Hz", plan.SampleRateHz)
	}
	rate := float64(plan.SampleRateHz)
	frames := BufferFrames(plan.SampleRateHz)

	input, err := backend.CreateInputStream(rate, channels, frames)
	if err != nil {
		return nil, fmt.Errorf("failed to create input stream: %w", err)
	}
	output, err := backend.CreateOutputStream(rate, channels, frames)
	if err != nil {
		_ = input.Close()
		return nil, fmt.Errorf("failed to create output stream: %w", err)
	}

	s := &Session{Plan: plan, Input: input, Output: output}
	if err := input.Start(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	if err := output.Start(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to start output stream: %w", err)
	}
	return s, nil
}

// Close stops and closes both streams, returning the first error.
func (s *Session) Close() error {
	var first error
	for _, stream := range []audio.StreamInterface{s.Input, s.Output} {
		if stream == nil {
			continue
		}
		if stream.IsActive() {
			if err := stream.Stop(); err != nil && first == nil {
				first = err
			}
		}
		if err := stream.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
