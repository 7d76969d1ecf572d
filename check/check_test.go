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

package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
)

func TestPath(t *testing.T) {
	for _, test := range []struct {
		name   string
		path   string
		escape bool
	}{
		{"Simple", "safe/inner.txt", false},
		{"SingleComponent", "file", false},
		{"DeepTree", "a/b/c/d/e", false},
		{"DotDotWithinTree", "a/b/../c", false},
		{"Absolute", "/etc/passwd", true},
		{"Backslash", `\windows\system32`, true},
		{"DriveLetter", "C:/Windows", true},
		{"ParentPrefix", "../escape", true},
		{"ParentThroughTree", "a/../../b", true},
		{"ParentAtEnd", "a/..", false},
		{"DoubleParentAtEnd", "a/../..", true},
	} {
		t.Run(test.name, func(t *testing.T) {
			err := Path(test.path)
			if test.escape {
				require.Errorf(t, err, "Path(%q) should be rejected", test.path)
				var escErr *PathEscapeError
				require.ErrorAs(t, err, &escErr)
				assert.Equal(t, test.path, escErr.Path)
			} else {
				assert.NoErrorf(t, err, "Path(%q) should be accepted", test.path)
			}
		})
	}
}

func securityEntry(name string, contents entry.Contents) *entry.Entry {
	p, err := entry.ToTarPath(false, name)
	if err != nil {
		panic(err)
	}
	return entry.New(p, contents)
}

func TestSecurityLinkTargets(t *testing.T) {
	for _, test := range []struct {
		name   string
		path   string
		target string
		escape bool
	}{
		{"SiblingTarget", "dir/link", "file.txt", false},
		{"ChildTarget", "dir/link", "sub/file.txt", false},
		{"ParentWithinTree", "dir/sub/link", "../file.txt", false},
		{"AbsoluteTarget", "dir/link", "/etc/passwd", true},
		{"EscapeFromTop", "link", "../outside", true},
		{"EscapeThroughParents", "dir/link", "../../outside", true},
		{"SneakyEscape", "dir/link", "ok/../../../outside", true},
		{"EmptyTarget", "dir/link", "", true},
	} {
		t.Run(test.name, func(t *testing.T) {
			seq := Security(entries.FromSlice([]*entry.Entry{
				securityEntry(test.path, entry.Symlink{Target: test.target}),
			}))
			_, err := entries.ToSlice(seq)
			if test.escape {
				require.Error(t, err)
				var escErr *PathEscapeError
				require.ErrorAs(t, err, &escErr)
				assert.Equal(t, test.path, escErr.Path)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSecurityHardlinkTargets(t *testing.T) {
	// Hardlink targets are archive-root relative, so even a target that would
	// be safe relative to the entry's own directory is an escape when it
	// steps above the root.
	for _, test := range []struct {
		name    string
		path    string
		target  string
		escapes bool
	}{
		{"RootRelative", "dir/copy", "other/original", false},
		{"SelfDirectory", "dir/copy", "dir/original", false},
		{"ResolvedWithin", "dir/copy", "dir/../original", false},
		{"ParentOfEntryDir", "a/link", "../outside", true},
		{"DeepEscape", "dir/copy", "../../outside", true},
		{"Absolute", "dir/copy", "/etc/passwd", true},
		{"Empty", "dir/copy", "", true},
	} {
		t.Run(test.name, func(t *testing.T) {
			seq := Security(entries.FromSlice([]*entry.Entry{
				securityEntry(test.path, entry.Hardlink{Target: test.target}),
			}))
			_, err := entries.ToSlice(seq)
			if test.escapes {
				var escErr *PathEscapeError
				require.ErrorAs(t, err, &escErr)
				assert.Equal(t, test.path, escErr.Path)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSecurityIsLazy(t *testing.T) {
	// The safe prefix of a sequence must be delivered even when a later entry
	// is dangerous.
	seq := Security(entries.FromSlice([]*entry.Entry{
		securityEntry("safe/one", entry.File{}),
		securityEntry("safe/two", entry.File{}),
		securityEntry("dir/link", entry.Symlink{Target: "/etc/passwd"}),
	}))

	var seen []string
	err := entries.Drain(seq, func(e *entry.Entry) error {
		seen = append(seen, e.Path.Posix())
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, []string{"safe/one", "safe/two"}, seen)
}

func TestTarbomb(t *testing.T) {
	for _, test := range []struct {
		name  string
		paths []string
		bad   string // first offending path, empty when all confined
	}{
		{"AllConfined", []string{"proj", "proj/src", "proj/src/a.c"}, ""},
		{"BareFile", []string{"evil.sh"}, "evil.sh"},
		{"SecondRoot", []string{"proj/a.c", "other/b.c"}, "other/b.c"},
		{"RootItself", []string{"proj"}, ""},
	} {
		t.Run(test.name, func(t *testing.T) {
			var es []*entry.Entry
			for _, p := range test.paths {
				es = append(es, securityEntry(p, entry.File{}))
			}
			_, err := entries.ToSlice(Tarbomb("proj", entries.FromSlice(es)))
			if test.bad == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var bombErr *TarbombError
			require.ErrorAs(t, err, &bombErr)
			assert.Equal(t, test.bad, bombErr.Path)
			assert.Equal(t, "proj", bombErr.Root)
		})
	}
}

func TestTarbombDoesNotImplySecurity(t *testing.T) {
	// A pathname confined to the right top-level component can still escape
	// through parent references. The tarbomb policy only looks at the first
	// component, so only the escape check catches it.
	name := "proj/a/../../../outside"
	assert.Equal(t, "proj", topOf(name), "the tarbomb policy would accept this path")

	err := Path(name)
	var escErr *PathEscapeError
	require.ErrorAs(t, err, &escErr)
}

func topOf(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			return name[:i]
		}
	}
	return name
}
