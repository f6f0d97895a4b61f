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

package device

// Permission names checked by the audio pipeline.
const (
	PermissionRecordAudio         = "android.permission.RECORD_AUDIO"
	PermissionModifyAudioSettings = "android.permission.MODIFY_AUDIO_SETTINGS"
)

// PermissionChecker answers whether the current process holds a permission.
type PermissionChecker interface {
	HasPermission(name string) bool
}

// Permissions is a fixed set of granted permissions.
type Permissions map[string]bool

// GrantAll returns a Permissions set holding every name given.
func GrantAll(names ...string) Permissions {
	p := make(Permissions, len(names))
	for _, n := range names {
		p[n] = true
	}
	return p
}

// HasPermission implements PermissionChecker.
func (p Permissions) HasPermission(name string) bool {
	return p[name]
}
