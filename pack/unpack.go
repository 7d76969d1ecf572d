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

package pack

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/haskell-works/tar/check"
	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
	"github.com/haskell-works/tar/internal/funchelpers"
)

// UnpackOptions configures Unpack. The zero value is the safe default: the
// path-escape check is on, no tarbomb policy is enforced, and unsupported
// entry types are logged and skipped.
type UnpackOptions struct {
	// RequireRoot, when non-empty, additionally requires every entry to live
	// under this single top-level directory (the tarbomb policy).
	RequireRoot string

	// DisableSafety skips the path-escape check on entry paths and link
	// targets. The on-disk join still refuses to step outside the target
	// directory, so even "unsafe" extraction is confined.
	DisableSafety bool

	// KeepDirTimes restores directory modification times after all entries
	// have been extracted, so that creating children does not clobber them.
	KeepDirTimes bool
}

// Unpack extracts every entry of seq under dir. Entries are applied in stream
// order, each one as it is produced, so a failure partway through leaves the
// entries extracted so far on disk: extraction is not atomic, and callers who
// need atomicity should unpack into a fresh directory and rename it into
// place.
//
// Entry paths and link targets are vetted by the check package before
// anything touches the file system, and on-disk paths are resolved with
// filepath-securejoin as a second line of defense.
func Unpack(dir string, seq entries.Entries, opt UnpackOptions) error {
	if !opt.DisableSafety {
		seq = check.Security(seq)
	}
	if opt.RequireRoot != "" {
		seq = check.Tarbomb(opt.RequireRoot, seq)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unpack: create target %s: %w", dir, err)
	}

	u := &unpacker{dir: dir, opt: opt}
	if err := entries.Drain(seq, u.apply); err != nil {
		return err
	}
	return u.restoreDirTimes()
}

type dirTime struct {
	path  string
	mtime time.Time
}

type unpacker struct {
	dir      string
	opt      UnpackOptions
	dirTimes []dirTime
}

func (u *unpacker) apply(e *entry.Entry) error {
	name := e.Path.Posix()
	on, err := securejoin.SecureJoin(u.dir, name)
	if err != nil {
		return fmt.Errorf("unpack %s: %w", name, err)
	}

	// The stream may emit a file before its parent directory.
	if err := os.MkdirAll(filepath.Dir(on), 0o755); err != nil {
		return fmt.Errorf("unpack %s: %w", name, err)
	}

	mode := os.FileMode(e.Permissions).Perm()
	mtime := time.Unix(e.ModTime, 0)

	switch c := e.Contents.(type) {
	case entry.File:
		if err := u.writeFile(on, mode, c); err != nil {
			return fmt.Errorf("unpack %s: %w", name, err)
		}
		return os.Chtimes(on, mtime, mtime)

	case entry.Directory:
		if err := os.MkdirAll(on, 0o755); err != nil {
			return fmt.Errorf("unpack %s: %w", name, err)
		}
		if err := os.Chmod(on, mode); err != nil {
			return fmt.Errorf("unpack %s: %w", name, err)
		}
		if u.opt.KeepDirTimes {
			u.dirTimes = append(u.dirTimes, dirTime{path: on, mtime: mtime})
		}
		return nil

	case entry.Symlink:
		// Overwrite semantics: a stale link at the path is replaced.
		if err := os.Remove(on); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unpack %s: %w", name, err)
		}
		if err := os.Symlink(filepath.FromSlash(c.Target), on); err != nil {
			return fmt.Errorf("unpack %s: %w", name, err)
		}
		return nil

	case entry.Hardlink:
		target, err := securejoin.SecureJoin(u.dir, c.Target)
		if err != nil {
			return fmt.Errorf("unpack %s: %w", name, err)
		}
		if err := os.Remove(on); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("unpack %s: %w", name, err)
		}
		if err := os.Link(target, on); err != nil {
			return fmt.Errorf("unpack %s: %w", name, err)
		}
		return nil

	case entry.FIFO, entry.CharDevice, entry.BlockDevice:
		log.Warnf("unpack: skipping special file %s", name)
		return nil

	case entry.Other:
		log.Warnf("unpack: skipping entry %s with unknown type %q", name, c.TypeFlag)
		return nil

	default:
		return fmt.Errorf("unpack %s: unhandled contents variant %T", name, e.Contents)
	}
}

func (u *unpacker) writeFile(on string, mode os.FileMode, c entry.File) (Err error) {
	fh, err := os.OpenFile(on, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer funchelpers.VerifyClose(&Err, fh)

	if c.Body == nil {
		return nil
	}
	n, err := io.Copy(fh, c.Body)
	if err != nil {
		return err
	}
	if n != c.Size {
		return fmt.Errorf("body is %d bytes, header declared %d", n, c.Size)
	}
	// Mode on an existing file is not applied by OpenFile.
	return os.Chmod(on, mode)
}

// restoreDirTimes re-applies directory mtimes deepest-first, after every
// child has been created.
func (u *unpacker) restoreDirTimes() error {
	for i := len(u.dirTimes) - 1; i >= 0; i-- {
		dt := u.dirTimes[i]
		if err := os.Chtimes(dt.path, dt.mtime, dt.mtime); err != nil {
			return fmt.Errorf("unpack: restore mtime on %s: %w", dt.path, err)
		}
	}
	return nil
}
