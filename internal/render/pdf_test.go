/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"goseqwriter/internal/theme"
)

func TestPDFCreatesFile(t *testing.T) {
	d := layoutDiagram(t, "actor User\nUser->API: request\nAPI-->User: response")
	out := filepath.Join(t.TempDir(), "diagram.pdf")
	if err := PDF(d, theme.Default(), out); err != nil {
		t.Fatalf("PDF error: %v", err)
	}
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() <= 0 {
		t.Fatalf("pdf file empty")
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("missing pdf header, got %q", b[:8])
	}
}

func TestPDFCreatesOutDir(t *testing.T) {
	d := layoutDiagram(t, "A->A: loop\nnote left of A: careful\nalt good\nA->B: ok\nelse bad\nA->B: fail\nend")
	out := filepath.Join(t.TempDir(), "deep", "nested", "diagram.pdf")
	if err := PDF(d, theme.Default(), out); err != nil {
		t.Fatalf("PDF error: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() <= 0 {
		t.Fatalf("expected pdf at %s: %v", out, err)
	}
}
