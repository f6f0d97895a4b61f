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

package compat

import "github.com/loqalabs/loqa-audiofx/internal/device"

// DenylistedForLowLatency reports whether the device must avoid the low
// latency output path.
func DenylistedForLowLatency(id device.Identity) bool {
	return IsDenylisted(LowLatencyOutput, id.Model)
}

// Lookup returns every capability that denylists model, in declaration order.
func Lookup(model string) []Capability {
	var out []Capability
	for _, c := range Capabilities() {
		if IsDenylisted(c, model) {
			out = append(out, c)
		}
	}
	return out
}
