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

// Package pack bridges archive sequences and the file system: Pack turns a
// directory tree into a lazy entry sequence, and Unpack materializes a
// sequence on disk behind the safety checks.
package pack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apex/log"

	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
)

// walkState is the unfold seed for Pack: a stack of pending archive-relative
// paths, visited depth-first in lexicographic order.
type walkState struct {
	base    string
	pending []string
}

// Pack produces a lazy sequence of entries for the tree rooted at dir. The
// walk is lexicographic and depth-first, directories before their contents,
// and no more than one file is open at a time: a file entry's body is opened
// when the entry is forced and closed when the body has been read to EOF.
//
// Only the portable subset of metadata is captured: permission bits and
// modification time. Ownership is left at zero so that archives built on one
// machine do not leak local uid/gid values.
func Pack(dir string) entries.Entries {
	names, err := childNames(dir)
	if err != nil {
		return entries.Fail(fmt.Errorf("pack %s: %w", dir, err), nil)
	}
	return entries.Unfold(walkState{base: dir, pending: names}, packStep)
}

func packStep(st walkState) (*entry.Entry, walkState, error) {
	for len(st.pending) > 0 {
		rel := st.pending[0]
		st.pending = st.pending[1:]

		full := filepath.Join(st.base, filepath.FromSlash(rel))
		fi, err := os.Lstat(full)
		if err != nil {
			return nil, st, fmt.Errorf("pack: stat %s: %w", full, err)
		}

		e, err := fileEntry(full, rel, fi)
		if err != nil {
			return nil, st, err
		}
		if e == nil {
			// Unsupported file type, already logged.
			continue
		}

		if fi.IsDir() {
			children, err := childNames(full)
			if err != nil {
				return nil, st, fmt.Errorf("pack: read dir %s: %w", full, err)
			}
			for i := range children {
				children[i] = rel + "/" + children[i]
			}
			st.pending = append(children, st.pending...)
		}
		return e, st, nil
	}
	return nil, st, nil
}

// fileEntry builds the archive entry for one file, or returns nil for file
// types that have no portable archive representation.
func fileEntry(full, rel string, fi os.FileInfo) (*entry.Entry, error) {
	var contents entry.Contents
	switch {
	case fi.Mode().IsRegular():
		fh, err := os.Open(full)
		if err != nil {
			return nil, fmt.Errorf("pack: open %s: %w", full, err)
		}
		contents = entry.File{Size: fi.Size(), Body: &closeOnEOF{f: fh}}
	case fi.IsDir():
		contents = entry.Directory{}
	case fi.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(full)
		if err != nil {
			return nil, fmt.Errorf("pack: readlink %s: %w", full, err)
		}
		contents = entry.Symlink{Target: filepath.ToSlash(target)}
	case fi.Mode()&os.ModeNamedPipe != 0:
		contents = entry.FIFO{}
	default:
		// Sockets, devices and the like are not packed: device numbers are
		// not portable and sockets have no archive representation.
		log.Warnf("pack: ignoring unsupported file %s (mode %s)", full, fi.Mode())
		return nil, nil
	}

	p, err := entry.ToTarPath(fi.IsDir(), rel)
	if err != nil {
		return nil, fmt.Errorf("pack: %s: %w", full, err)
	}
	e := entry.New(p, contents)
	e.Permissions = int64(fi.Mode().Perm())
	e.ModTime = fi.ModTime().Unix()
	return e, nil
}

// childNames lists the names in dir. os.ReadDir already sorts by filename,
// which gives the walk its lexicographic order.
func childNames(dir string) ([]string, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(des))
	for i, de := range des {
		names[i] = de.Name()
	}
	return names, nil
}

// closeOnEOF closes the underlying file once it has been read to EOF, so that
// a drained walk never accumulates open descriptors.
type closeOnEOF struct {
	f      *os.File
	closed bool
}

func (c *closeOnEOF) Read(p []byte) (int, error) {
	if c.closed {
		return 0, io.EOF
	}
	n, err := c.f.Read(p)
	if err == io.EOF {
		c.closed = true
		if cerr := c.f.Close(); cerr != nil {
			return n, cerr
		}
	}
	return n, err
}
