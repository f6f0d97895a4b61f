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

import (
	"fmt"
	"sync"

	"github.com/loqalabs/loqa-audiofx/internal/compat"
)

// MockAudioBackend implements AudioBackend for testing without hardware dependencies
type MockAudioBackend struct {
	mu                sync.Mutex
	initialized       bool
	streams           map[string]*MockStream
	streamCounter     int
	initError         error
	createStreamError error
	nativeRate        float64
	nativeRateError   error
	lowLatency        bool
	hardwareEffects   map[compat.Capability]bool
}

// NewMockAudioBackend creates a mock reporting 48 kHz, no low latency path
// and no hardware effects.
func NewMockAudioBackend() *MockAudioBackend {
	return &MockAudioBackend{
		streams:         make(map[string]*MockStream),
		nativeRate:      48000,
		hardwareEffects: make(map[compat.Capability]bool),
	}
}

// SetInitError configures the backend to return an error on Initialize()
func (m *MockAudioBackend) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initError = err
}

// SetCreateStreamError configures the backend to return an error on stream creation
func (m *MockAudioBackend) SetCreateStreamError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createStreamError = err
}

// SetNativeSampleRate sets the value and error NativeSampleRate returns.
func (m *MockAudioBackend) SetNativeSampleRate(rate float64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nativeRate = rate
	m.nativeRateError = err
}

// SetLowLatencyOutput sets what LowLatencyOutputSupported returns.
func (m *MockAudioBackend) SetLowLatencyOutput(supported bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lowLatency = supported
}

// SetHardwareEffect marks the platform implementation of c as present.
func (m *MockAudioBackend) SetHardwareEffect(c compat.Capability, available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hardwareEffects[c] = available
}

// Initialize initializes the mock audio subsystem
func (m *MockAudioBackend) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initError != nil {
		return m.initError
	}
	m.initialized = true
	return nil
}

// Terminate closes every open stream and marks the backend uninitialized.
func (m *MockAudioBackend) Terminate() error {
	m.mu.Lock()
	streams := make([]*MockStream, 0, len(m.streams))
	for _, stream := range m.streams {
		streams = append(streams, stream)
	}
	m.mu.Unlock()

	// Streams remove themselves from the map on Close.
	for _, stream := range streams {
		_ = stream.Stop()
		_ = stream.Close()
	}

	m.mu.Lock()
	m.initialized = false
	m.mu.Unlock()
	return nil
}

// NativeSampleRate implements Platform.
func (m *MockAudioBackend) NativeSampleRate() (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nativeRate, m.nativeRateError
}

// LowLatencyOutputSupported implements Platform.
func (m *MockAudioBackend) LowLatencyOutputSupported() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lowLatency
}

// HardwareEffectAvailable implements Platform.
func (m *MockAudioBackend) HardwareEffectAvailable(c compat.Capability) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hardwareEffects[c]
}

// OpenStreams returns the number of streams not yet closed.
func (m *MockAudioBackend) OpenStreams() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streams)
}

// CreateInputStream creates a mock input stream
func (m *MockAudioBackend) CreateInputStream(sampleRate float64, channels, bufferSize int) (StreamInterface, error) {
	return m.createStream("input", true, sampleRate, channels, bufferSize)
}

// CreateOutputStream creates a mock output stream
func (m *MockAudioBackend) CreateOutputStream(sampleRate float64, channels, bufferSize int) (StreamInterface, error) {
	return m.createStream("output", false, sampleRate, channels, bufferSize)
}

func (m *MockAudioBackend) createStream(kind string, input bool, sampleRate float64, channels, bufferSize int) (*MockStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("mock audio backend not initialized")
	}
	if m.createStreamError != nil {
		return nil, m.createStreamError
	}

	id := fmt.Sprintf("%s_%d", kind, m.streamCounter)
	m.streamCounter++

	stream := &MockStream{
		id:         id,
		backend:    m,
		SampleRate: sampleRate,
		Channels:   channels,
		BufferSize: bufferSize,
		input:      input,
		open:       true,
	}
	m.streams[id] = stream
	return stream, nil
}

// MockStream implements StreamInterface for testing. The parameters it was
// created with are exported so tests can check what the caller requested.
type MockStream struct {
	SampleRate float64
	Channels   int
	BufferSize int

	mu         sync.Mutex
	id         string
	backend    *MockAudioBackend
	input      bool
	open       bool
	active     bool
	startError error
	written    [][]float32
}

// SetStartError configures the stream to return an error on Start()
func (m *MockStream) SetStartError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startError = err
}

// Start starts the mock stream
func (m *MockStream) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.startError != nil {
		return m.startError
	}
	if !m.open {
		return fmt.Errorf("stream not open")
	}
	if m.active {
		return fmt.Errorf("stream already active")
	}
	m.active = true
	return nil
}

// Stop stops the mock stream
func (m *MockStream) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = false
	return nil
}

// Close closes the stream and removes it from the backend.
func (m *MockStream) Close() error {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return nil
	}
	m.open = false
	m.active = false
	m.mu.Unlock()

	m.backend.mu.Lock()
	delete(m.backend.streams, m.id)
	m.backend.mu.Unlock()
	return nil
}

// Write records data on an output stream.
func (m *MockStream) Write(data []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return fmt.Errorf("stream not open")
	}
	if m.input {
		return fmt.Errorf("cannot write to input stream")
	}
	m.written = append(m.written, append([]float32(nil), data...))
	return nil
}

// Read fills data with silence on an input stream.
func (m *MockStream) Read(data []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.open {
		return fmt.Errorf("stream not open")
	}
	if !m.input {
		return fmt.Errorf("cannot read from output stream")
	}
	clear(data)
	return nil
}

// IsActive returns true if the mock stream is active
func (m *MockStream) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Written returns a copy of every buffer written so far.
func (m *MockStream) Written() [][]float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]float32, len(m.written))
	copy(out, m.written)
	return out
}
