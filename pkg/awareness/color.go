/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package awareness

import (
	"math/rand"
)

// palette pairs each cursor color with the translucent color used for the
// selection background.
var palette = []struct {
	color string
	light string
}{
	{"#f44336", "#ffcdd2"},
	{"#e91e63", "#f8bbd0"},
	{"#9c27b0", "#e1bee7"},
	{"#673ab7", "#d1c4e9"},
	{"#3f51b5", "#c5cae9"},
	{"#2196f3", "#bbdefb"},
	{"#03a9f4", "#b3e5fc"},
	{"#00bcd4", "#b2ebf2"},
	{"#009688", "#b2dfdb"},
	{"#4caf50", "#c8e6c9"},
	{"#8bc34a", "#dcedc8"},
	{"#cddc39", "#f0f4c3"},
	{"#ffeb3b", "#fff9c4"},
	{"#ffc107", "#ffecb3"},
	{"#ff9800", "#ffe0b2"},
	{"#ff5722", "#ffccbc"},
}

// RandomColor picks a color of the palette. Colors are cosmetic; two clients
// may get the same one.
func RandomColor() string {
	return palette[rand.Intn(len(palette))].color
}

// LightColor returns the light variant of the given color. Colors outside the
// palette get a translucent alpha channel instead.
func LightColor(color string) string {
	for _, c := range palette {
		if c.color == color {
			return c.light
		}
	}
	return color + "33"
}

// NewMeta creates display metadata with a random color.
func NewMeta(name string) Meta {
	color := RandomColor()
	return Meta{
		Name:       name,
		Color:      color,
		ColorLight: LightColor(color),
	}
}
