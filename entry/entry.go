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

// Package entry defines the structured, format-agnostic representation of a
// single tar archive member and the validated portable pathname type used to
// address it.
package entry

import (
	"io"

	"github.com/mohae/deepcopy"
)

// Format identifies which header dialect produced (or will serialize) an
// entry. It is informational for readers; for writers it influences choices
// such as long-name handling.
type Format int

const (
	// FormatUnknown is the zero Format. Decoders never produce it.
	FormatUnknown Format = iota

	// FormatV7 is the original Unix V7 header layout, with no magic field.
	FormatV7

	// FormatUSTAR is the POSIX.1-1988 standardized header layout.
	FormatUSTAR

	// FormatGNU is the GNU header layout, adding long-name/long-link entries
	// and base-256 numeric fields.
	FormatGNU
)

func (f Format) String() string {
	switch f {
	case FormatV7:
		return "V7"
	case FormatUSTAR:
		return "USTAR"
	case FormatGNU:
		return "GNU"
	default:
		return "<unknown>"
	}
}

// Contents is the closed set of things a tar entry can be. Consumers are
// expected to handle every variant exhaustively: the set of tar entry types
// is fixed by the format, so this is a sealed sum type rather than an open
// hierarchy.
type Contents interface {
	isContents()
}

// File is a regular file with a byte length and a lazily readable body.
type File struct {
	// Size is the authoritative byte length of the body. When writing, the
	// data read from Body must be exactly Size bytes long.
	Size int64

	// Body produces the file data. For entries decoded from a stream, Body is
	// only valid until the sequence is advanced past this entry. A nil Body
	// is an empty file.
	Body io.Reader
}

// Directory is a directory entry. It carries no data of its own.
type Directory struct{}

// Symlink is a symbolic link to Target.
type Symlink struct {
	Target string
}

// Hardlink is a hard link to a previously archived pathname.
type Hardlink struct {
	Target string
}

// CharDevice is a character device node.
type CharDevice struct {
	Major, Minor int64
}

// BlockDevice is a block device node.
type BlockDevice struct {
	Major, Minor int64
}

// FIFO is a named pipe.
type FIFO struct{}

// Other is an entry whose type flag this package does not interpret, carried
// through with its raw type code so consumers can decide what to do with it.
type Other struct {
	TypeFlag byte
}

func (File) isContents()        {}
func (Directory) isContents()   {}
func (Symlink) isContents()     {}
func (Hardlink) isContents()    {}
func (CharDevice) isContents()  {}
func (BlockDevice) isContents() {}
func (FIFO) isContents()        {}
func (Other) isContents()       {}

// Entry is one archive member. An Entry is a value: once constructed it is
// not mutated, and transformations produce a fresh Entry (see Clone).
type Entry struct {
	// Path is the portable archive-relative pathname of the member.
	Path Path

	// Contents describes what the member is, together with any
	// variant-specific payload (body, link target, device numbers).
	Contents Contents

	// Permissions holds the numeric file mode bits.
	Permissions int64

	// OwnerID and GroupID are numeric owner identifiers. No name resolution
	// is performed.
	OwnerID int
	GroupID int

	// OwnerName and GroupName are the optional human-readable owner fields
	// carried by the USTAR and GNU dialects. They are independent of the
	// numeric identifiers.
	OwnerName string
	GroupName string

	// ModTime is the modification time in seconds since the Unix epoch.
	ModTime int64

	// Format records which header dialect the entry came from or should be
	// serialized with.
	Format Format

	// Extended holds PAX extended-header records that preceded the entry in
	// the stream. The records are carried as opaque key/value metadata and
	// are never interpreted beyond the handful of keys that affect stream
	// positioning. Nil when the entry had no extended header.
	Extended map[string]string
}

// Portable default permissions applied by the constructors.
const (
	defaultFileMode = 0o644
	defaultDirMode  = 0o755
)

// New creates an entry with portable defaults: zero owner and group, zero
// modification time, USTAR format, and permissions appropriate for the
// contents variant.
func New(p Path, c Contents) *Entry {
	mode := int64(defaultFileMode)
	if _, isDir := c.(Directory); isDir {
		mode = defaultDirMode
	}
	return &Entry{
		Path:        p,
		Contents:    c,
		Permissions: mode,
		Format:      FormatUSTAR,
	}
}

// NewFile creates a regular file entry with portable defaults.
func NewFile(p Path, size int64, body io.Reader) *Entry {
	return New(p, File{Size: size, Body: body})
}

// NewDirectory creates a directory entry with portable defaults.
func NewDirectory(p Path) *Entry {
	return New(p, Directory{})
}

// NewSymlink creates a symbolic link entry with portable defaults.
func NewSymlink(p Path, target string) *Entry {
	return New(p, Symlink{Target: target})
}

// Size returns the byte length of the entry body: the File size for regular
// files and zero for everything else.
func (e *Entry) Size() int64 {
	if f, ok := e.Contents.(File); ok {
		return f.Size
	}
	return 0
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	_, ok := e.Contents.(Directory)
	return ok
}

// Clone returns a deep copy of the entry. File bodies are shared, not
// duplicated: a stream cannot be deep-copied. Every Contents variant is a
// plain value, so a struct copy covers everything except the Extended map.
func (e *Entry) Clone() *Entry {
	dup := *e
	if e.Extended != nil {
		dup.Extended = deepcopy.Copy(e.Extended).(map[string]string)
	}
	return &dup
}
