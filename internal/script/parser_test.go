/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"testing"

	"goseqwriter/internal/diagram"
)

func TestParseSimpleSignal(t *testing.T) {
	d := Parse("A->B: hi")
	if len(d.Actors) != 2 {
		t.Fatalf("expected 2 actors, got %d", len(d.Actors))
	}
	if d.Actors[0].Caption != "A" || d.Actors[1].Caption != "B" {
		t.Fatalf("unexpected actors: %+v, %+v", d.Actors[0], d.Actors[1])
	}
	if len(d.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(d.Events))
	}
	sig, ok := d.Events[0].(*diagram.Signal)
	if !ok {
		t.Fatalf("expected a signal, got %T", d.Events[0])
	}
	if sig.Source != "A" || sig.Destination != "B" || sig.Caption != "hi" {
		t.Fatalf("unexpected signal: %+v", sig)
	}
	if sig.Dotted || sig.OpenArrow || sig.Activate || sig.Deactivate || sig.Spawn {
		t.Fatalf("expected no flags, got %+v", sig)
	}
}

func TestParseDeclarations(t *testing.T) {
	d := Parse("participant Database Server as db\nactor User")
	if len(d.Actors) != 2 {
		t.Fatalf("expected 2 actors, got %d", len(d.Actors))
	}
	if d.Actors[0].Caption != "Database Server" || d.Actors[0].Alias != "db" {
		t.Fatalf("unexpected first actor: %+v", d.Actors[0])
	}
	if d.Actors[1].Kind != diagram.KindActor || d.Actors[1].Alias != "User" {
		t.Fatalf("unexpected second actor: %+v", d.Actors[1])
	}
}

func TestParseDuplicateParticipantsKept(t *testing.T) {
	d := Parse("participant A\nparticipant A")
	if len(d.Actors) != 2 {
		t.Fatalf("expected duplicates to be kept, got %d actors", len(d.Actors))
	}
}

func TestParseSignalResolvesAlias(t *testing.T) {
	d := Parse("participant Database Server as db\nA->db: query")
	if len(d.Actors) != 2 {
		t.Fatalf("expected alias reference not to create a new actor, got %d actors", len(d.Actors))
	}
}

func TestParseDottedAndOpenArrow(t *testing.T) {
	d := Parse("A-->B: dotted\nA->>B: open")
	if len(d.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(d.Events))
	}
	first := d.Events[0].(*diagram.Signal)
	second := d.Events[1].(*diagram.Signal)
	if !first.Dotted || first.OpenArrow {
		t.Fatalf("expected dotted=true openArrow=false, got %+v", first)
	}
	if second.Dotted || !second.OpenArrow {
		t.Fatalf("expected dotted=false openArrow=true, got %+v", second)
	}
}

func TestParseDestinationPrefixesCompose(t *testing.T) {
	d := Parse("A->>*+-B: all")
	sig := d.Events[0].(*diagram.Signal)
	if !sig.OpenArrow || !sig.Spawn || !sig.Activate || !sig.Deactivate {
		t.Fatalf("expected all prefixes set, got %+v", sig)
	}
	if sig.Destination != "B" {
		t.Fatalf("expected prefixes stripped from destination, got %q", sig.Destination)
	}
}

func TestParseActivationEmitsLifetimes(t *testing.T) {
	d := Parse("A->+B: on\nA->-B: off")
	if len(d.Events) != 4 {
		t.Fatalf("expected 2 signals + 2 implicit lifetimes, got %d events", len(d.Events))
	}
	lt, ok := d.Events[1].(*diagram.Lifetime)
	if !ok || lt.Kind != diagram.LifetimeActivate || lt.Target != "B" {
		t.Fatalf("expected implicit activate of B, got %+v", d.Events[1])
	}
	lt, ok = d.Events[3].(*diagram.Lifetime)
	if !ok || lt.Kind != diagram.LifetimeDeactivate || lt.Target != "B" {
		t.Fatalf("expected implicit deactivate of B, got %+v", d.Events[3])
	}
}

func TestParseQuotedNames(t *testing.T) {
	d := Parse(`"Order: Service"->"B C": ok`)
	sig := d.Events[0].(*diagram.Signal)
	if sig.Source != "Order: Service" {
		t.Fatalf("expected quoted colon to stay in the name, got %q", sig.Source)
	}
	if sig.Destination != "B C" {
		t.Fatalf("expected quotes stripped, got %q", sig.Destination)
	}
	if sig.Caption != "ok" {
		t.Fatalf("unexpected caption %q", sig.Caption)
	}
}

func TestParseAltElse(t *testing.T) {
	d := Parse("alt ok\nA->B: x\nelse bad\nA->B: y\nend")
	if len(d.Events) != 1 {
		t.Fatalf("expected a single grouping, got %d events", len(d.Events))
	}
	g, ok := d.Events[0].(*diagram.Grouping)
	if !ok {
		t.Fatalf("expected grouping, got %T", d.Events[0])
	}
	if g.Kind != diagram.GroupAlt || len(g.Cases) != 2 {
		t.Fatalf("expected alt with 2 cases, got %+v", g)
	}
	if g.Cases[0].Caption != "ok" || g.Cases[1].Caption != "bad" {
		t.Fatalf("unexpected case captions: %q, %q", g.Cases[0].Caption, g.Cases[1].Caption)
	}
	if len(g.Cases[0].Events) != 1 || len(g.Cases[1].Events) != 1 {
		t.Fatalf("expected 1 signal per case, got %d and %d",
			len(g.Cases[0].Events), len(g.Cases[1].Events))
	}
}

func TestParseNestedGroupings(t *testing.T) {
	d := Parse("loop outer\nopt inner\nA->B: deep\nend\nend\nA->B: after")
	if len(d.Events) != 2 {
		t.Fatalf("expected loop + trailing signal at root, got %d events", len(d.Events))
	}
	outer := d.Events[0].(*diagram.Grouping)
	if len(outer.Cases) != 1 || len(outer.Cases[0].Events) != 1 {
		t.Fatalf("unexpected outer shape: %+v", outer)
	}
	inner, ok := outer.Cases[0].Events[0].(*diagram.Grouping)
	if !ok || inner.Kind != diagram.GroupOpt {
		t.Fatalf("expected nested opt, got %+v", outer.Cases[0].Events[0])
	}
	if len(inner.Cases[0].Events) != 1 {
		t.Fatalf("expected one signal in the nested opt")
	}
}

func TestParseSyncGroups(t *testing.T) {
	d := Parse("parallel\nA->B: one\nend\nserial\nA->B: two\n}")
	if len(d.Events) != 2 {
		t.Fatalf("expected 2 sync groups, got %d events", len(d.Events))
	}
	par := d.Events[0].(*diagram.SyncGroup)
	if par.Kind != diagram.SyncParallel || len(par.Events) != 1 {
		t.Fatalf("unexpected parallel group: %+v", par)
	}
	ser := d.Events[1].(*diagram.SyncGroup)
	if ser.Kind != diagram.SyncSerial || len(ser.Events) != 1 {
		t.Fatalf("expected brace to close the serial group: %+v", ser)
	}
}

func TestParseSingleLineNote(t *testing.T) {
	d := Parse("participant A\nnote right of A: hello")
	if len(d.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(d.Events))
	}
	ann := d.Events[0].(*diagram.Annotation)
	if ann.Kind != diagram.AnnotationNote || ann.Align != "right" || ann.Location != "A" {
		t.Fatalf("unexpected annotation: %+v", ann)
	}
	if ann.Caption != "hello" {
		t.Fatalf("expected caption hello, got %q", ann.Caption)
	}
}

func TestParseBlockNote(t *testing.T) {
	d := Parse("note right of A\nline1\nline2\nend")
	ann := d.Events[0].(*diagram.Annotation)
	if ann.Caption != "line1\nline2\n" {
		t.Fatalf("expected block caption with trailing newline, got %q", ann.Caption)
	}
}

func TestParseBlockNoteKeepsBlankLines(t *testing.T) {
	d := Parse("note right of A\nfirst\n\nsecond\nend")
	ann := d.Events[0].(*diagram.Annotation)
	if ann.Caption != "first\n\nsecond\n" {
		t.Fatalf("expected blank line preserved, got %q", ann.Caption)
	}
}

func TestParseBlockNoteInsideGrouping(t *testing.T) {
	d := Parse("alt c\nnote left of A\nbody\nend\nA->B: x\nend")
	g := d.Events[0].(*diagram.Grouping)
	if len(g.Cases) != 1 || len(g.Cases[0].Events) != 2 {
		t.Fatalf("expected note and signal inside the case, got %+v", g.Cases[0].Events)
	}
	if _, ok := g.Cases[0].Events[0].(*diagram.Annotation); !ok {
		t.Fatalf("expected the note to close without closing the grouping")
	}
}

func TestParseNoteDoesNotCreateActor(t *testing.T) {
	d := Parse("note right of Ghost: x")
	if len(d.Actors) != 0 {
		t.Fatalf("expected no auto-created actor for a note, got %d", len(d.Actors))
	}
	ann := d.Events[0].(*diagram.Annotation)
	if ann.Location != "Ghost" {
		t.Fatalf("expected location to be recorded, got %q", ann.Location)
	}
}

func TestParseRefAndState(t *testing.T) {
	d := Parse("ref over of A: other diagram\nstate left of A: idle")
	if len(d.Events) != 2 {
		t.Fatalf("expected 2 annotations, got %d", len(d.Events))
	}
	if a := d.Events[0].(*diagram.Annotation); a.Kind != diagram.AnnotationRef {
		t.Fatalf("expected ref annotation, got %+v", a)
	}
	if a := d.Events[1].(*diagram.Annotation); a.Kind != diagram.AnnotationState {
		t.Fatalf("expected state annotation, got %+v", a)
	}
}

func TestParseLifetimeAndAutonumber(t *testing.T) {
	d := Parse("activate A\ndeactivate A\ndestroy A\nautonumber 10")
	if len(d.Events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(d.Events))
	}
	if lt := d.Events[2].(*diagram.Lifetime); lt.Kind != diagram.LifetimeDestroy {
		t.Fatalf("expected destroy, got %+v", lt)
	}
	if num := d.Events[3].(*diagram.Numbering); num.Start != "10" {
		t.Fatalf("expected autonumber start 10, got %q", num.Start)
	}
	if len(d.Actors) != 0 {
		t.Fatalf("lifetime markers must not create actors, got %d", len(d.Actors))
	}
}

func TestParseCommentsAndBlanksIgnored(t *testing.T) {
	d := Parse("# header\n\n   \nA->B: x\n#tail")
	if len(d.Events) != 1 {
		t.Fatalf("expected only the signal, got %d events", len(d.Events))
	}
}

func TestParseMalformedSignalsDropped(t *testing.T) {
	inputs := []string{
		"A->B",       // no caption part
		"A B: hi",    // no arrow
		"->B: hi",    // no source
		"A->: hi",    // no destination
		"A->B:",      // empty caption
		"just words", // nothing at all
		"A->+: boom", // destination reduces to nothing
	}
	for _, in := range inputs {
		d := Parse(in)
		if len(d.Events) != 0 {
			t.Fatalf("input %q: expected no events, got %d", in, len(d.Events))
		}
		if len(d.Actors) != 0 {
			t.Fatalf("input %q: expected no actors, got %d", in, len(d.Actors))
		}
	}
}

func TestParseUnbalancedEndsAreHarmless(t *testing.T) {
	d := Parse("end\nend\nA->B: x\nend")
	if len(d.Events) != 1 {
		t.Fatalf("expected stray ends to be no-ops, got %d events", len(d.Events))
	}
	if _, ok := d.Events[0].(*diagram.Signal); !ok {
		t.Fatalf("expected the signal to land at the root")
	}
}

func TestParseMissingEndAbsorbsTail(t *testing.T) {
	d := Parse("alt cond\nA->B: x\nA->B: y")
	g := d.Events[0].(*diagram.Grouping)
	if len(g.Cases[0].Events) != 2 {
		t.Fatalf("expected the open grouping to absorb the tail, got %d events",
			len(g.Cases[0].Events))
	}
}

func TestParseElseOutsideGrouping(t *testing.T) {
	d := Parse("else whatever\nA->B: x")
	if len(d.Events) != 1 {
		t.Fatalf("expected stray else to be ignored, got %d events", len(d.Events))
	}
}

func TestParseLargeNesting(t *testing.T) {
	var sb strings.Builder
	const depth = 200
	for i := 0; i < depth; i++ {
		sb.WriteString("loop L\n")
	}
	sb.WriteString("A->B: deep\n")
	for i := 0; i < depth; i++ {
		sb.WriteString("end\n")
	}
	d := Parse(sb.String())
	if len(d.Events) != 1 {
		t.Fatalf("expected one root grouping, got %d", len(d.Events))
	}
	cur := d.Events[0].(*diagram.Grouping)
	for i := 1; i < depth; i++ {
		next, ok := cur.Cases[0].Events[0].(*diagram.Grouping)
		if !ok {
			t.Fatalf("nesting broke at depth %d", i)
		}
		cur = next
	}
	if _, ok := cur.Cases[0].Events[0].(*diagram.Signal); !ok {
		t.Fatalf("expected the signal at the innermost level")
	}
}

func TestParseCaptionLineBreaks(t *testing.T) {
	d := Parse(`A->B: first\nsecond
note left of A: up\ndown`)
	sig := d.Events[0].(*diagram.Signal)
	if sig.Caption != "first\nsecond" {
		t.Fatalf("expected embedded newline in signal caption, got %q", sig.Caption)
	}
	ann := d.Events[1].(*diagram.Annotation)
	if ann.Caption != "up\ndown" {
		t.Fatalf("expected embedded newline in note caption, got %q", ann.Caption)
	}
}

func FuzzParse(f *testing.F) {
	f.Add("A->B: hi")
	f.Add("alt ok\nA->B: x\nelse bad\nA->B: y\nend")
	f.Add("note right of A\nline1\nline2\nend")
	f.Add("participant \"X:\" as y\ny-->>*+-z: m")
	f.Add("end\n}\nelse\nend")
	f.Add("\x00\xff\"::->->")
	f.Fuzz(func(t *testing.T, input string) {
		d := Parse(input)
		if d == nil {
			t.Fatalf("Parse returned nil")
		}
	})
}
