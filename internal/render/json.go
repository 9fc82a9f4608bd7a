/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"encoding/json"
	"fmt"

	"goseqwriter/internal/diagram"
)

// JSON serializes the diagram, geometry included, with a kind discriminator
// on every event so consumers can walk the tree without knowing the Go
// types. Groupings and sync groups nest recursively.
func JSON(d *diagram.Diagram) ([]byte, error) {
	doc := jsonDoc{
		Actors: d.Actors,
		Events: jsonEvents(d.Events),
		Width:  d.Width,
		Height: d.Height,
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode diagram: %w", err)
	}
	return append(out, '\n'), nil
}

type jsonDoc struct {
	Actors []*diagram.Actor `json:"actors"`
	Events []jsonEvent      `json:"events"`
	Width  float32          `json:"width"`
	Height float32          `json:"height"`
}

type jsonEvent struct {
	Kind       string              `json:"kind"`
	Signal     *diagram.Signal     `json:"signal,omitempty"`
	Annotation *diagram.Annotation `json:"annotation,omitempty"`
	Grouping   *jsonGrouping       `json:"grouping,omitempty"`
	Sync       *jsonSync           `json:"sync,omitempty"`
	Lifetime   *diagram.Lifetime   `json:"lifetime,omitempty"`
	Numbering  *diagram.Numbering  `json:"numbering,omitempty"`
}

type jsonGrouping struct {
	Kind   diagram.GroupKind `json:"kind"`
	Cases  []jsonCase        `json:"cases"`
	X      float32           `json:"x"`
	Y      float32           `json:"y"`
	Width  float32           `json:"width"`
	Height float32           `json:"height"`
}

type jsonCase struct {
	Caption string      `json:"caption"`
	Events  []jsonEvent `json:"events"`
	Y       float32     `json:"y"`
	Height  float32     `json:"height"`
}

type jsonSync struct {
	Kind   diagram.SyncKind `json:"kind"`
	Events []jsonEvent      `json:"events"`
}

func jsonEvents(events []diagram.Event) []jsonEvent {
	out := make([]jsonEvent, 0, len(events))
	for _, ev := range events {
		switch t := ev.(type) {
		case *diagram.Signal:
			out = append(out, jsonEvent{Kind: "signal", Signal: t})
		case *diagram.Annotation:
			out = append(out, jsonEvent{Kind: "annotation", Annotation: t})
		case *diagram.Grouping:
			g := &jsonGrouping{
				Kind:   t.Kind,
				Cases:  make([]jsonCase, 0, len(t.Cases)),
				X:      t.X,
				Y:      t.Y,
				Width:  t.Width,
				Height: t.Height,
			}
			for _, cs := range t.Cases {
				g.Cases = append(g.Cases, jsonCase{
					Caption: cs.Caption,
					Events:  jsonEvents(cs.Events),
					Y:       cs.Y,
					Height:  cs.Height,
				})
			}
			out = append(out, jsonEvent{Kind: "grouping", Grouping: g})
		case *diagram.SyncGroup:
			out = append(out, jsonEvent{Kind: "sync", Sync: &jsonSync{Kind: t.Kind, Events: jsonEvents(t.Events)}})
		case *diagram.Lifetime:
			out = append(out, jsonEvent{Kind: "lifetime", Lifetime: t})
		case *diagram.Numbering:
			out = append(out, jsonEvent{Kind: "numbering", Numbering: t})
		}
	}
	return out
}
