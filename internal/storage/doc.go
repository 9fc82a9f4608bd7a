/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements workspace persistence for diagram scripts.
// It handles read/write for the canonical .seq script file with transactional
// writes and timestamped backups, and the same transactional write for
// rendered artifacts.
// It also manages the per-workspace embedded SQLite history at
// <workspace>/.gsw/history.sqlite used for script change tracking and the
// rendered preview cache. The embedded history is derived from the script
// file and can be deleted and rebuilt at any time.
package storage
