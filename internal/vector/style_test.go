/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestParseHexColor(t *testing.T) {
	cases := []struct {
		in   string
		want Color
	}{
		{"#000000", Color{0, 0, 0, 255}},
		{"#ffcc00", Color{255, 204, 0, 255}},
		{"FFCC00", Color{255, 204, 0, 255}},
		{"#fc0", Color{255, 204, 0, 255}},
		{"  #112233 ", Color{17, 34, 51, 255}},
	}
	for _, c := range cases {
		got, err := ParseHexColor(c.in)
		if err != nil {
			t.Fatalf("ParseHexColor(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseHexColor(%q): expected %+v, got %+v", c.in, c.want, got)
		}
	}
}

func TestParseHexColorRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "#12", "#12345", "not-a-color"} {
		if _, err := ParseHexColor(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestColorHexRoundTrip(t *testing.T) {
	c := Color{R: 18, G: 52, B: 86, A: 255}
	if got := c.Hex(); got != "#123456" {
		t.Fatalf("expected #123456, got %q", got)
	}
	back, err := ParseHexColor(c.Hex())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != c {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, c)
	}
}

func TestStrokeDashed(t *testing.T) {
	if (Stroke{Width: 1}).Dashed() {
		t.Fatalf("empty dash should be solid")
	}
	if !(Stroke{Width: 1, Dash: []float32{4, 2}}).Dashed() {
		t.Fatalf("dash pattern should report dashed")
	}
}
