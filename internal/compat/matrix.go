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

// Package compat holds the device compatibility matrix: fixed per-capability
// lists of device models whose built-in audio processing is known to be bad.
//
// The tables are data, not logic. Adding a model means adding a string to the
// matching list below; nothing else needs to change.
package compat

import (
	"fmt"
	"slices"
)

// Capability identifies a platform audio feature that may be denylisted.
type Capability int

const (
	// AEC is the platform acoustic echo canceler.
	AEC Capability = iota
	// AGC is the platform automatic gain control.
	AGC
	// NS is the platform noise suppressor.
	NS
	// LowLatencyOutput is the low latency playback path.
	LowLatencyOutput

	numCapabilities
)

var capabilityNames = [numCapabilities]string{
	AEC:              "aec",
	AGC:              "agc",
	NS:               "ns",
	LowLatencyOutput: "low-latency-output",
}

// String returns the lowercase name of the capability.
func (c Capability) String() string {
	if !c.valid() {
		return fmt.Sprintf("capability(%d)", int(c))
	}
	return capabilityNames[c]
}

func (c Capability) valid() bool {
	return c >= 0 && c < numCapabilities
}

// ParseCapability maps a name produced by Capability.String back to its value.
func ParseCapability(name string) (Capability, error) {
	for c, n := range capabilityNames {
		if n == name {
			return Capability(c), nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", name)
}

// Capabilities returns every capability in declaration order.
func Capabilities() []Capability {
	out := make([]Capability, 0, numCapabilities)
	for c := Capability(0); c < numCapabilities; c++ {
		out = append(out, c)
	}
	return out
}

// Models where the built-in effect has been verified to be bad and the
// software implementation should be used instead. Entries are device model
// names exactly as the platform reports them.
var denylists = [numCapabilities][]string{
	AEC: {
		"D6503",     // Sony Xperia Z2 D6503
		"ONE A2005", // OnePlus 2
	},
	AGC: {
		"Nexus 10",
		"Nexus 9",
	},
	NS: {
		"Nexus 10",
		"Nexus 9",
		"ONE A2005", // OnePlus 2
	},
	// Models with bad audio quality on the low latency output path.
	// Currently empty.
	LowLatencyOutput: {},
}

var denysets = buildSets()

func buildSets() [numCapabilities]map[string]struct{} {
	var sets [numCapabilities]map[string]struct{}
	for c, models := range denylists {
		set := make(map[string]struct{}, len(models))
		for _, m := range models {
			set[m] = struct{}{}
		}
		sets[c] = set
	}
	return sets
}

// IsDenylisted reports whether model is listed for c. Matching is exact and
// case-sensitive. An unknown capability is never denylisted.
func IsDenylisted(c Capability, model string) bool {
	if !c.valid() {
		return false
	}
	_, ok := denysets[c][model]
	return ok
}

// Denylisted returns a copy of the models listed for c in declaration order.
func Denylisted(c Capability) []string {
	if !c.valid() {
		return nil
	}
	return slices.Clone(denylists[c])
}
