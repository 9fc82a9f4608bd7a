/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Polyline paths for arrowheads, note folds and loop-back shapes.

import (
	"strconv"
	"strings"
)

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	Close
)

type PathCmd struct {
	Op   PathOp
	X, Y float32
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, X: x, Y: y})
}
func (p *Path) LineTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, X: x, Y: y})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Data renders the path as SVG path data with coordinates rounded to two
// decimal places so output stays deterministic across platforms.
func (p *Path) Data() string {
	var sb strings.Builder
	for i, c := range p.Cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch c.Op {
		case MoveTo:
			sb.WriteString("M ")
			sb.WriteString(fmtCoord(c.X))
			sb.WriteByte(' ')
			sb.WriteString(fmtCoord(c.Y))
		case LineTo:
			sb.WriteString("L ")
			sb.WriteString(fmtCoord(c.X))
			sb.WriteByte(' ')
			sb.WriteString(fmtCoord(c.Y))
		case Close:
			sb.WriteString("Z")
		}
	}
	return sb.String()
}

func fmtCoord(v float32) string {
	return strconv.FormatFloat(float64(FloatRound(v, 2)), 'f', -1, 32)
}

// Bounds returns the axis-aligned bounding box over all on-path points.
func (p *Path) Bounds() Rect {
	minX, minY := float32(+1e9), float32(+1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	seen := false
	for _, c := range p.Cmds {
		if c.Op == Close {
			continue
		}
		seen = true
		if c.X < minX {
			minX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	if !seen {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}
