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
	"fmt"
	"strings"

	"github.com/loqalabs/loqa-audiofx/internal/compat"
)

// Effect is an audio effect with both a platform and a software
// implementation.
type Effect int

const (
	AEC Effect = iota
	AGC
	NS

	numEffects
)

// Effects returns every effect in declaration order.
func Effects() []Effect {
	return []Effect{AEC, AGC, NS}
}

// Capability maps the effect onto the compatibility matrix.
func (e Effect) Capability() compat.Capability {
	switch e {
	case AEC:
		return compat.AEC
	case AGC:
		return compat.AGC
	default:
		return compat.NS
	}
}

func (e Effect) String() string {
	switch e {
	case AEC:
		return "aec"
	case AGC:
		return "agc"
	case NS:
		return "ns"
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

// ParseEffect accepts the names produced by String, case-insensitively.
func ParseEffect(name string) (Effect, error) {
	for _, e := range Effects() {
		if strings.EqualFold(name, e.String()) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown effect %q", name)
}

func (e Effect) valid() bool {
	return e >= 0 && e < numEffects
}
