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

	"github.com/gordonklaus/portaudio"

	"github.com/loqalabs/loqa-audiofx/internal/compat"
)

// PortAudioBackend implements AudioBackend using the PortAudio library.
// PortAudio exposes no platform effects, so every effect runs in software.
type PortAudioBackend struct {
	mu          sync.Mutex
	initialized bool
}

// NewPortAudioBackend creates a new PortAudio backend
func NewPortAudioBackend() *PortAudioBackend {
	return &PortAudioBackend{}
}

// Initialize initializes the PortAudio subsystem
func (p *PortAudioBackend) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	p.initialized = true
	return nil
}

// Terminate terminates the PortAudio subsystem
func (p *PortAudioBackend) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}
	p.initialized = false
	return portaudio.Terminate()
}

func (p *PortAudioBackend) isInitialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// NativeSampleRate returns the default input device's sample rate.
func (p *PortAudioBackend) NativeSampleRate() (float64, error) {
	if !p.isInitialized() {
		return 0, fmt.Errorf("PortAudio not initialized")
	}
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return 0, fmt.Errorf("failed to query default input device: %w", err)
	}
	return dev.DefaultSampleRate, nil
}

// LowLatencyOutputSupported reports whether the default output device
// advertises a low latency configuration.
func (p *PortAudioBackend) LowLatencyOutputSupported() bool {
	if !p.isInitialized() {
		return false
	}
	dev, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return false
	}
	return dev.DefaultLowOutputLatency > 0 && dev.DefaultLowOutputLatency < dev.DefaultHighOutputLatency
}

// HardwareEffectAvailable always reports false.
func (p *PortAudioBackend) HardwareEffectAvailable(compat.Capability) bool {
	return false
}

// CreateInputStream creates an input stream for recording
func (p *PortAudioBackend) CreateInputStream(sampleRate float64, channels, bufferSize int) (StreamInterface, error) {
	if !p.isInitialized() {
		return nil, fmt.Errorf("PortAudio not initialized")
	}

	inputBuffer := make([]float32, bufferSize*channels)
	stream, err := portaudio.OpenDefaultStream(channels, 0, sampleRate, bufferSize, inputBuffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	return &PortAudioStream{
		stream: stream,
		buffer: inputBuffer,
		input:  true,
	}, nil
}

// CreateOutputStream creates an output stream for playback
func (p *PortAudioBackend) CreateOutputStream(sampleRate float64, channels, bufferSize int) (StreamInterface, error) {
	if !p.isInitialized() {
		return nil, fmt.Errorf("PortAudio not initialized")
	}

	outputBuffer := make([]float32, bufferSize*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, sampleRate, bufferSize, outputBuffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	return &PortAudioStream{
		stream: stream,
		buffer: outputBuffer,
	}, nil
}

// PortAudioStream implements StreamInterface on a blocking PortAudio stream.
type PortAudioStream struct {
	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []float32
	input  bool
	active bool
}

// Start starts the audio stream
func (p *PortAudioStream) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	if err := p.stream.Start(); err != nil {
		return err
	}
	p.active = true
	return nil
}

// Stop stops the audio stream
func (p *PortAudioStream) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	if !p.active {
		return nil
	}
	p.active = false
	return p.stream.Stop()
}

// Close closes the audio stream
func (p *PortAudioStream) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	p.active = false
	return p.stream.Close()
}

// Write copies data into the output buffer and blocks until it is played.
func (p *PortAudioStream) Write(data []float32) error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	if p.input {
		return fmt.Errorf("cannot write to input stream")
	}
	copy(p.buffer, data)
	return p.stream.Write()
}

// Read blocks until a buffer is captured and copies it into data.
func (p *PortAudioStream) Read(data []float32) error {
	if p.stream == nil {
		return fmt.Errorf("stream is nil")
	}
	if !p.input {
		return fmt.Errorf("cannot read from output stream")
	}
	if err := p.stream.Read(); err != nil {
		return err
	}
	copy(data, p.buffer)
	return nil
}

// IsActive returns true between Start and Stop.
func (p *PortAudioStream) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}
