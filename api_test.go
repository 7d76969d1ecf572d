// SPDX-License-Identifier: Apache-2.0
/*
 * tar: a streaming tar archive codec with safety checking
 * Copyright (C) 2026 Haskell Works
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tar

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haskell-works/tar/compress"
	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, data := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(data), 0o644))
	}
}

func TestCreateExtractRoundTrip(t *testing.T) {
	for _, test := range []struct {
		name string
		algo compress.Algorithm
	}{
		{"Plain", nil},
		{"Gzip", compress.Gzip},
		{"Zstd", compress.Zstd},
	} {
		t.Run(test.name, func(t *testing.T) {
			src := t.TempDir()
			writeTree(t, src, map[string]string{
				"proj/readme.md": "# hello",
				"proj/src/a.c":   "int a;",
			})

			var buf bytes.Buffer
			require.NoError(t, Create(&buf, src, CreateOptions{Compression: test.algo}))

			dst := t.TempDir()
			require.NoError(t, Extract(bytes.NewReader(buf.Bytes()), dst, ExtractOptions{Compression: test.algo}))

			data, err := os.ReadFile(filepath.Join(dst, "proj", "readme.md"))
			require.NoError(t, err)
			assert.Equal(t, "# hello", string(data))

			data, err = os.ReadFile(filepath.Join(dst, "proj", "src", "a.c"))
			require.NoError(t, err)
			assert.Equal(t, "int a;", string(data))
		})
	}
}

func TestList(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"proj/a.txt": "a",
		"proj/b.txt": "bb",
	})

	var buf bytes.Buffer
	require.NoError(t, Create(&buf, src, CreateOptions{}))

	var got []string
	var total int64
	err := entries.Drain(List(bytes.NewReader(buf.Bytes())), func(e *entry.Entry) error {
		got = append(got, e.Path.Posix())
		total += e.Size()
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"proj", "proj/a.txt", "proj/b.txt"}, got)
	assert.EqualValues(t, 3, total)
}

func TestFullVersion(t *testing.T) {
	assert.Contains(t, FullVersion(), Version)
}
