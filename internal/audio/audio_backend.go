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

package audio

import "github.com/loqalabs/loqa-audiofx/internal/compat"

// Platform answers the questions the session planner asks the host before it
// picks effect implementations and a sample rate.
type Platform interface {
	// NativeSampleRate returns the sample rate the default device reports.
	// Some devices report wrong values; the effect policy can override it.
	NativeSampleRate() (float64, error)

	// LowLatencyOutputSupported reports whether the host offers a low
	// latency playback path.
	LowLatencyOutputSupported() bool

	// HardwareEffectAvailable reports whether the platform implements c.
	HardwareEffectAvailable(c compat.Capability) bool
}

// AudioBackend provides the audio subsystem: stream creation plus the
// Platform queries. Tests use MockAudioBackend instead of real hardware.
type AudioBackend interface {
	Platform

	// Initialize the audio subsystem
	Initialize() error

	// Terminate the audio subsystem
	Terminate() error

	// CreateInputStream creates an input stream for recording
	CreateInputStream(sampleRate float64, channels, bufferSize int) (StreamInterface, error)

	// CreateOutputStream creates an output stream for playback
	CreateOutputStream(sampleRate float64, channels, bufferSize int) (StreamInterface, error)
}

// StreamInterface abstracts audio stream operations
type StreamInterface interface {
	Start() error
	Stop() error

	// Close the stream and release resources
	Close() error

	Write(data []float32) error
	Read(data []float32) error
	IsActive() bool
}
