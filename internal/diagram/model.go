/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package diagram

// This file defines the core data model for sequence diagrams: the flat
// actor list and the nested event tree the parser produces and the layout
// engine annotates with geometry. Actors are referenced from events by name,
// never by pointer, so subtrees stay free of back-references.

// ActorKind distinguishes plain participant boxes from stick-figure actors.
type ActorKind string

const (
	KindParticipant ActorKind = "participant"
	KindActor       ActorKind = "actor"
)

// Actor is one swim lane of the diagram. Geometry fields are zero until the
// layout engine runs and are immutable afterward.
type Actor struct {
	Kind    ActorKind `json:"kind"`
	Caption string    `json:"caption"`
	Alias   string    `json:"alias"`

	Width   float32 `json:"width"`
	Height  float32 `json:"height"`
	LaneX   float32 `json:"laneX"`
	X       float32 `json:"x"`
	TopY    float32 `json:"topY"`
	BottomY float32 `json:"bottomY"`
}

// Event is one node of the event tree. Concrete types: *Signal, *Annotation,
// *Grouping, *SyncGroup, *Lifetime and *Numbering.
type Event interface{ isEvent() }

// Signal is a directed message between two actors.
type Signal struct {
	Caption     string `json:"caption"`
	Source      string `json:"source"`
	Destination string `json:"destination"`

	Dotted     bool `json:"dotted,omitempty"`
	OpenArrow  bool `json:"openArrow,omitempty"`
	Spawn      bool `json:"spawn,omitempty"`
	Activate   bool `json:"activate,omitempty"`
	Deactivate bool `json:"deactivate,omitempty"`

	StartX float32 `json:"startX"`
	EndX   float32 `json:"endX"`
	StartY float32 `json:"startY"`
	EndY   float32 `json:"endY"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// SelfSignal reports whether source and destination name the same actor, in
// which case renderers draw a loop-back shape instead of a straight arrow.
func (s *Signal) SelfSignal() bool { return s.Source == s.Destination }

// AnnotationKind is the keyword that introduced an annotation.
type AnnotationKind string

const (
	AnnotationNote  AnnotationKind = "note"
	AnnotationRef   AnnotationKind = "ref"
	AnnotationState AnnotationKind = "state"
)

// Annotation is a note/ref/state box anchored to one actor's lane. Captions
// may span multiple lines. Placed stays false when Location does not resolve
// to a known actor; renderers skip unplaced annotations.
type Annotation struct {
	Kind     AnnotationKind `json:"kind"`
	Align    string         `json:"align"`
	Location string         `json:"location"`
	Caption  string         `json:"caption"`

	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
	Placed bool    `json:"placed"`
}

// GroupKind is the keyword that opened a conditional grouping.
type GroupKind string

const (
	GroupAlt  GroupKind = "alt"
	GroupOpt  GroupKind = "opt"
	GroupLoop GroupKind = "loop"
	GroupPar  GroupKind = "par"
	GroupSeq  GroupKind = "seq"
)

// Grouping is an alt/opt/loop/par/seq block with one or more labeled cases.
type Grouping struct {
	Kind  GroupKind `json:"kind"`
	Cases []*Case   `json:"cases"`

	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// Case is one branch of a conditional grouping with its own event sequence.
// Y marks where the case begins inside the frame, so renderers can place
// the dashed division lines without reconstructing margins.
type Case struct {
	Caption string  `json:"caption"`
	Events  []Event `json:"events"`
	Y       float32 `json:"y"`
	Height  float32 `json:"height"`
}

// SyncKind distinguishes the two synchrony grouping forms.
type SyncKind string

const (
	SyncParallel SyncKind = "parallel"
	SyncSerial   SyncKind = "serial"
)

// SyncGroup wraps a nested event sequence. It carries no geometry of its
// own; layout and renderers treat its events as inline content.
type SyncGroup struct {
	Kind   SyncKind `json:"kind"`
	Events []Event  `json:"events"`
}

// LifetimeKind is an explicit or signal-implied lifeline state change.
type LifetimeKind string

const (
	LifetimeActivate   LifetimeKind = "activate"
	LifetimeDeactivate LifetimeKind = "deactivate"
	LifetimeDestroy    LifetimeKind = "destroy"
)

// Lifetime marks an activation, deactivation or destruction of one actor.
type Lifetime struct {
	Kind   LifetimeKind `json:"kind"`
	Target string       `json:"target"`
}

// Numbering is an autonumber marker. Start is opaque to the pipeline.
type Numbering struct {
	Start string `json:"start"`
}

func (*Signal) isEvent()     {}
func (*Annotation) isEvent() {}
func (*Grouping) isEvent()   {}
func (*SyncGroup) isEvent()  {}
func (*Lifetime) isEvent()   {}
func (*Numbering) isEvent()  {}

// Diagram is the full parse/layout product: the flat actor list, the root
// event sequence, and the canvas size once layout has run.
type Diagram struct {
	Actors []*Actor `json:"actors"`
	Events []Event  `json:"events"`

	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// FindActor resolves a name against the actor list, matching alias first and
// caption second, in declaration order. Aliases default to the caption, so
// undeclared auto-created actors always match by either.
func (d *Diagram) FindActor(name string) (*Actor, bool) {
	for _, a := range d.Actors {
		if a.Alias == name {
			return a, true
		}
	}
	for _, a := range d.Actors {
		if a.Caption == name {
			return a, true
		}
	}
	return nil, false
}

// LaneIndex resolves a name to the actor's position in the list, with the
// same matching rules as FindActor. Returns -1 when unknown.
func (d *Diagram) LaneIndex(name string) int {
	for i, a := range d.Actors {
		if a.Alias == name {
			return i
		}
	}
	for i, a := range d.Actors {
		if a.Caption == name {
			return i
		}
	}
	return -1
}

// AddActor appends a declared actor. An empty alias defaults to the caption.
// Duplicate captions are appended as-is; the layout engine sizes a lane per
// entry.
func (d *Diagram) AddActor(kind ActorKind, caption, alias string) *Actor {
	if alias == "" {
		alias = caption
	}
	a := &Actor{Kind: kind, Caption: caption, Alias: alias}
	d.Actors = append(d.Actors, a)
	return a
}

// EnsureActor makes sure a signal endpoint resolves, creating a bare
// participant when the name is unknown. Annotations never call this; their
// unknown locations simply stay unplaced.
func (d *Diagram) EnsureActor(name string) *Actor {
	if a, ok := d.FindActor(name); ok {
		return a
	}
	return d.AddActor(KindParticipant, name, name)
}
