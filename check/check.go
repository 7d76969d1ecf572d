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

// Package check validates decoded archive sequences against path-escape and
// tarbomb policies. Both checks are purely structural: they operate on the
// pathname strings carried by the entries, never on the file system, so they
// are safe to run as a pre-pass before anything is written to disk.
//
// Each check is a lazy transform over an entries sequence. A violation turns
// the sequence into a failure at the offending entry, consistent with the
// streaming contract: the consumer discovers the problem exactly at the
// point it would have consumed the dangerous entry.
package check

import (
	"fmt"
	"path"
	"strings"

	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
)

// PathEscapeError reports an entry whose extraction path would resolve
// outside the tree rooted at the extraction target.
type PathEscapeError struct {
	// Path is the offending pathname as stored in the archive.
	Path string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("tar: entry path escapes extraction root: %q", e.Path)
}

// TarbombError reports an entry that is not confined to the expected
// top-level directory.
type TarbombError struct {
	// Path is the offending pathname as stored in the archive.
	Path string

	// Root is the expected enclosing top-level directory.
	Root string
}

func (e *TarbombError) Error() string {
	return fmt.Sprintf("tar: entry %q not contained in expected root directory %q", e.Path, e.Root)
}

// Security rejects entries whose path or link target would land outside the
// extraction root. Symlink targets are resolved against the directory
// containing the entry; hardlink targets name a previously archived member
// relative to the extraction root, so they are checked as-is. Safe entries
// pass through unchanged.
//
// This is a semantic complement to the format-level validation done at path
// construction: it also covers link targets and sequences assembled from
// arbitrary producers, not just decoded streams.
func Security(seq entries.Entries) entries.Entries {
	return entries.Map(seq, func(e *entry.Entry) (*entry.Entry, error) {
		name := e.Path.Posix()
		if err := Path(name); err != nil {
			return nil, err
		}
		switch c := e.Contents.(type) {
		case entry.Symlink:
			if err := symlinkTarget(name, c.Target); err != nil {
				return nil, err
			}
		case entry.Hardlink:
			if err := hardlinkTarget(name, c.Target); err != nil {
				return nil, err
			}
		}
		return e, nil
	})
}

// Path checks a single archive pathname against the escape policy: it must
// not be absolute, and no prefix of its resolved components may step above
// the extraction root.
func Path(name string) error {
	if strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return &PathEscapeError{Path: name}
	}
	if len(name) >= 2 && name[1] == ':' {
		return &PathEscapeError{Path: name}
	}
	if depthOf(name) < 0 {
		return &PathEscapeError{Path: name}
	}
	return nil
}

// symlinkTarget checks a symlink target, resolved relative to the directory
// containing the entry. An absolute target, or one whose parent-references
// climb out of the root, is an escape.
func symlinkTarget(entryPath, target string) error {
	if target == "" {
		return &PathEscapeError{Path: entryPath}
	}
	if strings.HasPrefix(target, "/") || strings.HasPrefix(target, `\`) {
		return &PathEscapeError{Path: entryPath}
	}
	// Resolve the target from the directory containing the entry and reuse
	// the ordinary escape walk on the combined path.
	joined := target
	if dir := path.Dir(entryPath); dir != "." {
		joined = dir + "/" + target
	}
	if depthOf(joined) < 0 {
		return &PathEscapeError{Path: entryPath}
	}
	return nil
}

// hardlinkTarget checks a hardlink target. The linkname field of a hardlink
// names a previously archived member relative to the archive root, so it is
// subjected to the same escape walk as an entry path, with no entry-dir join.
func hardlinkTarget(entryPath, target string) error {
	if target == "" {
		return &PathEscapeError{Path: entryPath}
	}
	if strings.HasPrefix(target, "/") || strings.HasPrefix(target, `\`) {
		return &PathEscapeError{Path: entryPath}
	}
	if len(target) >= 2 && target[1] == ':' {
		return &PathEscapeError{Path: entryPath}
	}
	if depthOf(target) < 0 {
		return &PathEscapeError{Path: entryPath}
	}
	return nil
}

// depthOf walks the slash-separated components of a relative pathname and
// returns the lowest directory depth reached, where a negative depth means a
// prefix of the path stepped above the starting directory. The final
// component does not add depth.
func depthOf(name string) int {
	depth, lowest := 0, 0
	comps := strings.Split(name, "/")
	for i, c := range comps {
		switch c {
		case "", ".":
			// Harmless: does not move.
		case "..":
			depth--
			if depth < lowest {
				lowest = depth
			}
		default:
			if i < len(comps)-1 {
				depth++
			}
		}
	}
	return lowest
}

// Tarbomb rejects any entry whose top-level path component is not exactly
// root, so extraction stays confined to a single directory. This is a policy
// check layered on top of Security, never a replacement for it: a tarbomb
// check alone says nothing about parent-reference escapes.
func Tarbomb(root string, seq entries.Entries) entries.Entries {
	return entries.Map(seq, func(e *entry.Entry) (*entry.Entry, error) {
		name := e.Path.Posix()
		top := name
		if i := strings.IndexByte(name, '/'); i >= 0 {
			top = name[:i]
		}
		if top != root {
			return nil, &TarbombError{Path: name, Root: root}
		}
		return e, nil
	})
}
