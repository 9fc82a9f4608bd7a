/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Styles and paint definitions shared by the render backends.

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

// Hex formats the color as #RRGGBB. Alpha is not encoded; backends that
// support it read it separately.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// RGBA converts to the stdlib color type for raster backends.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// ParseHexColor parses #RGB and #RRGGBB forms. Alpha is always 255.
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	var step int
	switch len(h) {
	case 3:
		step = 1
	case 6:
		step = 2
	default:
		return Color{}, fmt.Errorf("parse hex color %q: want 3 or 6 hex digits", s)
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(h[i*step:(i+1)*step], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("parse hex color %q: %w", s, err)
		}
		if step == 1 {
			v = v*16 + v
		}
		ch[i] = uint8(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: 255}, nil
}

// Stroke describes a line style. An empty Dash slice draws solid.
type Stroke struct {
	Color Color
	Width float32
	Dash  []float32
}

// Dashed reports whether the stroke uses a dash pattern.
func (s Stroke) Dashed() bool { return len(s.Dash) > 0 }
