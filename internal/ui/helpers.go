/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"path/filepath"
	"strings"
)

// scriptBaseName derives the artifact base name from a script path, falling
// back to "diagram" when no usable name remains.
func scriptBaseName(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "diagram"
	}
	return base
}

// previewStatus summarizes a rendered diagram for the status bar.
func previewStatus(participants int, w, h float32) string {
	noun := "participants"
	if participants == 1 {
		noun = "participant"
	}
	return fmt.Sprintf("%d %s, %.0f x %.0f px", participants, noun, w, h)
}
