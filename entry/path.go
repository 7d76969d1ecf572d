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
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Path construction and rendering errors. These are recoverable: the caller
// can pick a different pathname or target a different rendering.
var (
	// ErrPathTooLong indicates that a pathname cannot be stored in an archive
	// even with the GNU long-name extension engaged.
	ErrPathTooLong = errors.New("tar: path too long")

	// ErrInvalidPathComponent indicates that a pathname contains a component
	// that is empty, absolute, or would syntactically escape the archive root.
	ErrInvalidPathComponent = errors.New("tar: invalid path component")

	// ErrUnrepresentablePath indicates that a portable archive path has no
	// safe rendering on the requested platform.
	ErrUnrepresentablePath = errors.New("tar: unrepresentable path")
)

// longPathMax bounds the byte length of any pathname we are willing to store,
// even via the GNU long-name extension. Pathnames in archives are
// attacker-controlled, so the metadata for a single entry must stay finite.
const longPathMax = 4096

// Path is a validated, portable archive-relative pathname. A Path is always
// slash-separated, never absolute, never contains a drive letter, and never
// contains empty or parent-reference components. Construct one with
// ToTarPath; the zero Path is not valid.
type Path struct {
	name string
	dir  bool
}

// ToTarPath converts a host pathname into a portable archive Path. The
// isDir flag records whether the path names a directory, which affects how
// the path is rendered inside archive headers.
//
// This is a format-level validation: it rejects pathnames that cannot be
// stored portably at all. It is distinct from the semantic checks applied by
// the check package, which validate decoded archives against an extraction
// target.
func ToTarPath(isDir bool, name string) (Path, error) {
	p := filepath.ToSlash(name)

	if len(p) >= 2 && p[1] == ':' &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z')) {
		return Path{}, fmt.Errorf("%w: drive letter in %q", ErrInvalidPathComponent, name)
	}
	if strings.HasPrefix(p, "/") {
		return Path{}, fmt.Errorf("%w: absolute path %q", ErrInvalidPathComponent, name)
	}

	p = path.Clean(p)
	if p == "." {
		return Path{}, fmt.Errorf("%w: empty path %q", ErrInvalidPathComponent, name)
	}
	// path.Clean collapses interior ".." references, so any that survive must
	// sit at the front of the path and therefore escape the archive root.
	if p == ".." || strings.HasPrefix(p, "../") {
		return Path{}, fmt.Errorf("%w: parent reference in %q", ErrInvalidPathComponent, name)
	}
	for _, c := range strings.Split(p, "/") {
		if c == "" {
			return Path{}, fmt.Errorf("%w: empty component in %q", ErrInvalidPathComponent, name)
		}
	}
	if len(p) > longPathMax {
		return Path{}, fmt.Errorf("%w: %d bytes", ErrPathTooLong, len(p))
	}

	return Path{name: p, dir: isDir}, nil
}

// IsDir reports whether the path names a directory.
func (p Path) IsDir() bool { return p.dir }

// Posix renders the path as a POSIX-style relative pathname. This rendering
// always succeeds.
func (p Path) Posix() string { return p.name }

// String is the POSIX rendering.
func (p Path) String() string { return p.name }

// Base returns the final component of the path.
func (p Path) Base() string { return path.Base(p.name) }

// Components returns the individual path components in order.
func (p Path) Components() []string { return strings.Split(p.name, "/") }

// windowsReserved is the set of characters that cannot appear in a Windows
// pathname component.
const windowsReserved = `<>:"\|?*`

// Windows renders the path as a Windows-style relative pathname. Not every
// POSIX path has a safe Windows rendering: a component containing a reserved
// character (including a backslash, which would change the component
// structure of the rendered path) fails with ErrUnrepresentablePath.
func (p Path) Windows() (string, error) {
	for _, c := range strings.Split(p.name, "/") {
		if strings.ContainsAny(c, windowsReserved) {
			return "", fmt.Errorf("%w: reserved character in component %q", ErrUnrepresentablePath, c)
		}
		for _, r := range c {
			if r < 0x20 {
				return "", fmt.Errorf("%w: control character in component %q", ErrUnrepresentablePath, c)
			}
		}
	}
	return strings.ReplaceAll(p.name, "/", `\`), nil
}

// FromTarPath renders the path for the host platform. On non-Windows hosts
// this is the (always safe) POSIX rendering.
func FromTarPath(p Path) (string, error) {
	if filepath.Separator == '\\' {
		return p.Windows()
	}
	return p.Posix(), nil
}
