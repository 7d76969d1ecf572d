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

package entry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPath(t *testing.T, isDir bool, name string) Path {
	t.Helper()
	p, err := ToTarPath(isDir, name)
	require.NoErrorf(t, err, "ToTarPath(%q)", name)
	return p
}

func TestConstructorDefaults(t *testing.T) {
	t.Run("File", func(t *testing.T) {
		e := NewFile(mustPath(t, false, "a/file"), 5, strings.NewReader("hello"))
		assert.EqualValues(t, 0o644, e.Permissions, "default file mode")
		assert.EqualValues(t, 0, e.OwnerID)
		assert.EqualValues(t, 0, e.GroupID)
		assert.EqualValues(t, 0, e.ModTime)
		assert.Equal(t, FormatUSTAR, e.Format)
		assert.EqualValues(t, 5, e.Size())
		assert.False(t, e.IsDir())
	})

	t.Run("Directory", func(t *testing.T) {
		e := NewDirectory(mustPath(t, true, "a/dir"))
		assert.EqualValues(t, 0o755, e.Permissions, "default dir mode")
		assert.EqualValues(t, 0, e.Size())
		assert.True(t, e.IsDir())
	})

	t.Run("Symlink", func(t *testing.T) {
		e := NewSymlink(mustPath(t, false, "a/link"), "../target")
		require.IsType(t, Symlink{}, e.Contents)
		assert.Equal(t, "../target", e.Contents.(Symlink).Target)
		assert.EqualValues(t, 0o644, e.Permissions)
	})
}

func TestClone(t *testing.T) {
	body := strings.NewReader("contents")
	e := NewFile(mustPath(t, false, "a/file"), 8, body)
	e.OwnerName = "alice"
	e.Extended = map[string]string{"comment": "hello"}

	dup := e.Clone()

	// Distinct values with equal metadata.
	require.NotSame(t, e, dup)
	assert.Equal(t, e.Path, dup.Path)
	assert.Equal(t, "a/file", dup.Path.Posix(), "clone must preserve the pathname")
	assert.Equal(t, e.OwnerName, dup.OwnerName)
	assert.Equal(t, e.Extended, dup.Extended)

	// The extended map must not be shared.
	dup.Extended["comment"] = "changed"
	assert.Equal(t, "hello", e.Extended["comment"], "clone must not alias the extended map")

	// Bodies are streams and cannot be duplicated, so they are shared.
	df, ok := dup.Contents.(File)
	require.True(t, ok)
	assert.Equal(t, body, df.Body, "body reader is shared, not copied")
	assert.EqualValues(t, 8, df.Size)
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "V7", FormatV7.String())
	assert.Equal(t, "USTAR", FormatUSTAR.String())
	assert.Equal(t, "GNU", FormatGNU.String())
	assert.Equal(t, "<unknown>", FormatUnknown.String())
}
