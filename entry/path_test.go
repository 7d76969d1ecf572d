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

func TestToTarPath(t *testing.T) {
	for _, test := range []struct {
		name    string
		input   string
		wantErr error
		want    string
	}{
		{"Simple", "a/b/c.txt", nil, "a/b/c.txt"},
		{"SingleComponent", "file.txt", nil, "file.txt"},
		{"CleansDot", "./a/b", nil, "a/b"},
		{"CleansInnerDotDot", "a/b/../c", nil, "a/c"},
		{"Absolute", "/etc/passwd", ErrInvalidPathComponent, ""},
		{"DriveLetter", `C:\Windows`, ErrInvalidPathComponent, ""},
		{"DriveLetterLower", "c:/temp", ErrInvalidPathComponent, ""},
		{"Empty", "", ErrInvalidPathComponent, ""},
		{"Dot", ".", ErrInvalidPathComponent, ""},
		{"ParentOnly", "..", ErrInvalidPathComponent, ""},
		{"ParentPrefix", "../escape", ErrInvalidPathComponent, ""},
		{"ParentThroughClean", "a/../../b", ErrInvalidPathComponent, ""},
		{"TooLong", strings.Repeat("a/", longPathMax) + "x", ErrPathTooLong, ""},
	} {
		t.Run(test.name, func(t *testing.T) {
			p, err := ToTarPath(false, test.input)
			if test.wantErr != nil {
				require.Errorf(t, err, "ToTarPath(%q) should fail", test.input)
				assert.ErrorIs(t, err, test.wantErr, "error kind")
				return
			}
			require.NoErrorf(t, err, "ToTarPath(%q)", test.input)
			assert.Equal(t, test.want, p.Posix(), "posix rendering")
		})
	}
}

func TestPathIsDir(t *testing.T) {
	d, err := ToTarPath(true, "some/dir")
	require.NoError(t, err)
	assert.True(t, d.IsDir())

	f, err := ToTarPath(false, "some/file")
	require.NoError(t, err)
	assert.False(t, f.IsDir())
}

func TestPathComponents(t *testing.T) {
	p, err := ToTarPath(false, "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, p.Components())
	assert.Equal(t, "c", p.Base())
}

func TestPathWindows(t *testing.T) {
	for _, test := range []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"Simple", "a/b/c.txt", `a\b\c.txt`, false},
		{"ReservedQuestion", "a/b?.txt", "", true},
		{"ReservedStar", "glob/*", "", true},
		{"ReservedColon", "a/b:c", "", true},
		{"ReservedQuote", `say/"hi"`, "", true},
	} {
		t.Run(test.name, func(t *testing.T) {
			p, err := ToTarPath(false, test.input)
			require.NoError(t, err, "ToTarPath should accept any portable path")

			got, err := p.Windows()
			if test.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUnrepresentablePath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestPathWindowsControlCharacter(t *testing.T) {
	p, err := ToTarPath(false, "weird\x07name")
	require.NoError(t, err, "posix side has no opinion on control characters")

	_, err = p.Windows()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrepresentablePath)
}
