/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"log/slog"
	"strings"

	"goseqwriter/internal/diagram"
	applog "goseqwriter/internal/log"
)

// frame is one entry on the parser's nesting stack. Exactly one field is
// set: seq for frames that receive events (the root sequence, a grouping
// case, a parallel/serial body), wrap for a conditional grouping whose
// active case sits directly above it, ann for a block annotation that is
// collecting raw lines until "end".
type frame struct {
	seq  *[]diagram.Event
	wrap *diagram.Grouping
	ann  *diagram.Annotation
}

// Parse interprets a sequence-diagram script into actors and a nested event
// tree. One statement per line, indentation ignored:
//
//   - participant NAME [as ALIAS] / actor NAME [as ALIAS]
//   - SRC -> DEST: caption   (SRC may end in "-" for a dotted line; DEST may
//     start with ">", "*", "+", "-" in that order; names may be quoted)
//   - note|ref|state ALIGN of NAME: caption, or the same without the colon
//     followed by raw caption lines up to a closing "end"
//   - alt|opt|loop|par|seq LABEL ... else LABEL ... end
//   - parallel / serial ... end (or "}")
//   - activate|deactivate|destroy NAME, autonumber START, "#" comments
//
// Captions may embed the two-character sequence \n as an explicit line
// break. Malformed lines degrade silently: a line that matches no form and fails
// signal parsing produces no event. Parse never fails and never panics on
// arbitrary input.
func Parse(input string) *diagram.Diagram {
	l := applog.WithComponent("script")
	d := &diagram.Diagram{}
	stack := []frame{{seq: &d.Events}}

	top := func() frame { return stack[len(stack)-1] }
	push := func(f frame) { stack = append(stack, f) }
	pop := func() {
		if len(stack) > 1 {
			stack = stack[:len(stack)-1]
		}
	}
	appendEvent := func(ev diagram.Event) {
		if t := top(); t.seq != nil {
			*t.seq = append(*t.seq, ev)
		}
	}

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(scanner.Text())
		command, rest, _ := strings.Cut(trim, " ")
		rest = strings.TrimSpace(rest)

		// "end" closes the innermost nesting level. Conditional groupings
		// occupy two stack frames (wrapper below the active case), so when
		// the pop exposes the wrapper it is popped as well.
		if command == "end" {
			pop()
			if top().wrap != nil {
				pop()
			}
			continue
		}

		// A block annotation swallows every line verbatim until its "end".
		if t := top(); t.ann != nil {
			t.ann.Caption += trim + "\n"
			continue
		}

		switch command {
		case "participant", "actor":
			kind := diagram.KindParticipant
			if command == "actor" {
				kind = diagram.KindActor
			}
			caption, alias := rest, ""
			if c, a, ok := strings.Cut(rest, " as "); ok {
				caption, alias = strings.TrimSpace(c), strings.TrimSpace(a)
			}
			if caption == "" {
				l.Debug("declaration without name dropped", slog.Int("line", lineNo))
				continue
			}
			d.AddActor(kind, caption, alias)
			continue

		case "note", "ref", "state":
			ann := &diagram.Annotation{Kind: diagram.AnnotationKind(command)}
			head, caption, hasCaption := strings.Cut(rest, ":")
			fields := strings.Split(strings.TrimSpace(head), " ")
			if len(fields) > 0 {
				ann.Align = fields[0]
			}
			if len(fields) > 2 {
				// fields[1] is the preposition ("of"), not kept.
				ann.Location = fields[2]
			}
			if hasCaption {
				ann.Caption = unescapeBreaks(strings.TrimSpace(caption))
			}
			appendEvent(ann)
			if !hasCaption {
				push(frame{ann: ann})
			}
			continue

		case "alt", "opt", "loop", "par", "seq":
			g := &diagram.Grouping{
				Kind:  diagram.GroupKind(command),
				Cases: []*diagram.Case{{Caption: rest}},
			}
			appendEvent(g)
			push(frame{wrap: g})
			push(frame{seq: &g.Cases[0].Events})
			continue

		case "else":
			pop()
			if g := top().wrap; g != nil {
				c := &diagram.Case{Caption: rest}
				g.Cases = append(g.Cases, c)
				push(frame{seq: &c.Events})
			}
			continue

		case "activate", "deactivate", "destroy":
			appendEvent(&diagram.Lifetime{
				Kind:   diagram.LifetimeKind(command),
				Target: rest,
			})
			continue

		case "parallel", "serial":
			sg := &diagram.SyncGroup{Kind: diagram.SyncKind(command)}
			appendEvent(sg)
			push(frame{seq: &sg.Events})
			continue

		case "}":
			pop()
			continue

		case "autonumber":
			appendEvent(&diagram.Numbering{Start: rest})
			continue
		}

		if strings.HasPrefix(trim, "#") {
			continue
		}

		if sig, ok := parseSignal(trim); ok {
			appendEvent(sig)
			if sig.Activate {
				appendEvent(&diagram.Lifetime{Kind: diagram.LifetimeActivate, Target: sig.Destination})
			}
			if sig.Deactivate {
				appendEvent(&diagram.Lifetime{Kind: diagram.LifetimeDeactivate, Target: sig.Destination})
			}
			d.EnsureActor(sig.Source)
			d.EnsureActor(sig.Destination)
			continue
		}

		if trim != "" {
			l.Debug("unrecognized line dropped", slog.Int("line", lineNo), slog.String("text", trim))
		}
	}

	return d
}

// parseSignal attempts to read trim as "SRC -> DEST: caption". It reports
// false for anything that misses a source, destination, arrow or caption;
// such lines vanish without an event.
func parseSignal(trim string) (*diagram.Signal, bool) {
	srcDest, caption, ok := cutUnquoted(trim, ':')
	if !ok {
		return nil, false
	}
	caption = strings.TrimSpace(caption)
	src, dst, ok := strings.Cut(srcDest, "->")
	if !ok {
		return nil, false
	}
	src = stripQuotes(strings.TrimSpace(src))
	dst = stripQuotes(strings.TrimSpace(dst))

	sig := &diagram.Signal{Caption: unescapeBreaks(caption)}
	if strings.HasSuffix(src, "-") {
		src = src[:len(src)-1]
		sig.Dotted = true
	}
	// Destination prefixes compose in this order; each check re-reads the
	// front character left by the previous strip.
	if strings.HasPrefix(dst, ">") {
		dst = dst[1:]
		sig.OpenArrow = true
	}
	if strings.HasPrefix(dst, "*") {
		dst = dst[1:]
		sig.Spawn = true
	}
	if strings.HasPrefix(dst, "+") {
		dst = dst[1:]
		sig.Activate = true
	}
	if strings.HasPrefix(dst, "-") {
		dst = dst[1:]
		sig.Deactivate = true
	}
	if src == "" || dst == "" || caption == "" {
		return nil, false
	}
	sig.Source = src
	sig.Destination = dst
	return sig, true
}

// cutUnquoted splits s at the first sep outside double quotes. The quote
// state simply toggles; there is no escaping.
func cutUnquoted(s string, sep byte) (string, string, bool) {
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case sep:
			if !inQuotes {
				return s[:i], s[i+1:], true
			}
		}
	}
	return s, "", false
}

// unescapeBreaks turns the two-character sequence \n into a real newline so
// captions can carry explicit line breaks on a single script line.
func unescapeBreaks(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func stripQuotes(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
