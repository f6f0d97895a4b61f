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

// Package device describes the device the audio pipeline is running on.
package device

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// SDKLevel is a platform API level.
type SDKLevel int

const (
	// Gingerbread is Android 2.3, November 2010.
	Gingerbread SDKLevel = 9
	// JellyBean is Android 4.1, June 2012.
	JellyBean SDKLevel = 16
	// JellyBeanMR1 is Android 4.2, November 2012.
	JellyBeanMR1 SDKLevel = 17
	// JellyBeanMR2 is Android 4.3, July 2013.
	JellyBeanMR2 SDKLevel = 18
	// Lollipop is Android 5.0.
	Lollipop SDKLevel = 21
)

// Identity is the build information reported by the host platform.
// Only Model takes part in compatibility decisions; the rest is diagnostic.
type Identity struct {
	Model        string
	Hardware     string
	Brand        string
	Device       string
	BuildID      string
	Manufacturer string
	Product      string
	Release      string
	SDKInt       int
}

// AtLeast reports whether the device runs the given API level or newer.
func (id Identity) AtLeast(level SDKLevel) bool {
	return id.SDKInt >= int(level)
}

// IsEmulator reports whether the identity belongs to the stock emulator.
func (id Identity) IsEmulator() bool {
	return id.Hardware == "goldfish" && strings.HasPrefix(id.Brand, "generic_")
}

// Provider supplies the identity of the running device.
type Provider interface {
	Identity() Identity
}

// StaticProvider returns a fixed identity.
type StaticProvider Identity

// Identity implements Provider.
func (p StaticProvider) Identity() Identity {
	return Identity(p)
}

// Describe renders the identity as a single log line.
func Describe(id Identity) string {
	return fmt.Sprintf("SDK: %d, Release: %s, Brand: %s, Device: %s, Id: %s, "+
		"Hardware: %s, Manufacturer: %s, Model: %s, Product: %s",
		id.SDKInt, id.Release, id.Brand, id.Device, id.BuildID,
		id.Hardware, id.Manufacturer, id.Model, id.Product)
}

// Log writes the identity line to logger at debug level.
func Log(logger zerolog.Logger, id Identity) {
	logger.Debug().Msg(Describe(id))
}
