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

package codec

import (
	"fmt"
	"io"

	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
)

// gnuLongNamePath is the pathname stored in the header of a GNU long-name or
// long-link meta entry; the real name lives in the entry's data section.
const gnuLongNamePath = "././@LongLink"

// Writer is a push encoder producing a raw tar byte stream. Entries are
// serialized one at a time in the order given; Close emits the
// end-of-archive trailer. Compose any compression around the underlying
// writer before it reaches the codec.
type Writer struct {
	w      io.Writer
	blk    block
	err    error // sticky
	closed bool
}

// NewWriter creates an encoder writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteEntry serializes one entry: its header block (preceded by GNU
// long-name/long-link meta entries when the standard fields cannot carry the
// names), the body for regular files, and zero padding up to the next block
// boundary. The body must be exactly the declared size; anything shorter or
// longer fails with ErrBodyLength.
func (tw *Writer) WriteEntry(e *entry.Entry) error {
	if tw.closed {
		return ErrWriteAfterClose
	}
	if tw.err != nil {
		return tw.err
	}
	tw.err = tw.writeEntry(e)
	return tw.err
}

// headerLayout is the serialization plan for one entry, decided before any
// bytes are written.
type headerLayout struct {
	name     string
	linkName string
	format   entry.Format
	longName bool // emit a GNU 'L' meta entry before the header
	longLink bool // emit a GNU 'K' meta entry before the header
	prefix   string
}

// planHeader decides the dialect for an entry. USTAR is preferred;
// path or numeric fields that exceed the standard capacity push the entry to
// the GNU dialect rather than failing. An entry that explicitly asks for the
// V7 or GNU dialect gets it, provided its fields can be carried.
func planHeader(e *entry.Entry) (headerLayout, error) {
	l := headerLayout{format: entry.FormatUSTAR}
	if e.Format == entry.FormatV7 || e.Format == entry.FormatGNU {
		l.format = e.Format
	}

	l.name = e.Path.Posix()
	if e.Path.IsDir() {
		// Some older tooling requires the trailing slash to recognize a
		// directory entry.
		l.name += "/"
	}
	switch c := e.Contents.(type) {
	case entry.Symlink:
		l.linkName = c.Target
	case entry.Hardlink:
		l.linkName = c.Target
	}

	if len(l.name) > nameSize {
		if prefix, suffix, ok := splitUSTARPath(l.name); ok && l.format == entry.FormatUSTAR {
			l.prefix, l.name = prefix, suffix
		} else {
			l.format = entry.FormatGNU
			l.longName = true
		}
	}
	if len(l.linkName) > nameSize {
		l.format = entry.FormatGNU
		l.longLink = true
	}

	// Values beyond octal field capacity need base-256, which only the GNU
	// dialect carries.
	if !fitsInOctal(12, e.Size()) || !fitsInOctal(12, e.ModTime) ||
		!fitsInOctal(8, int64(e.OwnerID)) || !fitsInOctal(8, int64(e.GroupID)) {
		if l.format == entry.FormatV7 {
			return l, fmt.Errorf("%w: value exceeds V7 octal field capacity", ErrFieldTooLong)
		}
		l.format = entry.FormatGNU
	}
	return l, nil
}

func (tw *Writer) writeEntry(e *entry.Entry) error {
	l, err := planHeader(e)
	if err != nil {
		return err
	}

	if l.longName {
		if err := tw.writeGNULongName(typeGNULongName, l.name); err != nil {
			return err
		}
		if len(l.name) > nameSize {
			l.name = l.name[:nameSize]
		}
	}
	if l.longLink {
		if err := tw.writeGNULongName(typeGNULongLink, l.linkName); err != nil {
			return err
		}
		if len(l.linkName) > nameSize {
			l.linkName = l.linkName[:nameSize]
		}
	}

	flag, err := typeFlagOf(e.Contents)
	if err != nil {
		return err
	}

	tw.blk.reset()
	var f formatter
	v7 := tw.blk.toV7()
	f.formatString(v7.name(), l.name)
	f.formatOctal(v7.mode(), e.Permissions)
	v7.typeFlag()[0] = flag
	f.formatString(v7.linkName(), l.linkName)

	numeric := f.formatOctal
	if l.format == entry.FormatGNU {
		numeric = f.formatNumeric
	}
	numeric(v7.uid(), int64(e.OwnerID))
	numeric(v7.gid(), int64(e.GroupID))
	numeric(v7.size(), e.Size())
	numeric(v7.modTime(), e.ModTime)

	switch l.format {
	case entry.FormatV7:
		// No magic and no extension fields; owner names are dropped, which
		// is the historical behavior of that dialect.
	case entry.FormatGNU:
		gnu := tw.blk.toGNU()
		copy(gnu.magic(), magicGNU)
		copy(gnu.version(), versionGNU)
		f.formatString(gnu.userName(), e.OwnerName)
		f.formatString(gnu.groupName(), e.GroupName)
		if major, minor, ok := deviceNumbers(e.Contents); ok {
			numeric(gnu.devMajor(), major)
			numeric(gnu.devMinor(), minor)
		}
	default:
		ustar := tw.blk.toUSTAR()
		copy(ustar.magic(), magicUSTAR)
		copy(ustar.version(), versionUSTAR)
		f.formatString(ustar.userName(), e.OwnerName)
		f.formatString(ustar.groupName(), e.GroupName)
		if major, minor, ok := deviceNumbers(e.Contents); ok {
			f.formatOctal(ustar.devMajor(), major)
			f.formatOctal(ustar.devMinor(), minor)
		}
		f.formatString(ustar.prefix(), l.prefix)
	}
	if f.err != nil {
		return f.err
	}

	tw.blk.setChecksum()
	if _, err := tw.w.Write(tw.blk[:]); err != nil {
		return err
	}

	if c, ok := e.Contents.(entry.File); ok {
		if err := tw.writeBody(c.Body, c.Size); err != nil {
			return err
		}
	}
	return nil
}

// writeBody copies exactly size bytes from body and zero-pads to the block
// boundary. Both a short and an over-long body are reported: the header has
// already declared the size, so a mismatch would corrupt every entry that
// follows.
func (tw *Writer) writeBody(body io.Reader, size int64) error {
	if body == nil {
		body = eofReader{}
	}
	n, err := io.Copy(tw.w, io.LimitReader(body, size))
	if err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("%w: got %d bytes, expected %d", ErrBodyLength, n, size)
	}
	if n, _ := body.Read(make([]byte, 1)); n > 0 {
		return fmt.Errorf("%w: body longer than declared %d bytes", ErrBodyLength, size)
	}
	_, err = tw.w.Write(zeroBlock[:blockPadding(size)])
	return err
}

// writeGNULongName emits the meta entry ('L' or 'K') that carries an
// over-long pathname or link target ahead of the real header.
func (tw *Writer) writeGNULongName(flag byte, s string) error {
	data := append([]byte(s), 0)

	tw.blk.reset()
	var f formatter
	v7 := tw.blk.toV7()
	f.formatString(v7.name(), gnuLongNamePath)
	f.formatOctal(v7.mode(), 0)
	f.formatOctal(v7.uid(), 0)
	f.formatOctal(v7.gid(), 0)
	f.formatNumeric(v7.size(), int64(len(data)))
	f.formatOctal(v7.modTime(), 0)
	v7.typeFlag()[0] = flag
	gnu := tw.blk.toGNU()
	copy(gnu.magic(), magicGNU)
	copy(gnu.version(), versionGNU)
	if f.err != nil {
		return f.err
	}

	tw.blk.setChecksum()
	if _, err := tw.w.Write(tw.blk[:]); err != nil {
		return err
	}
	if _, err := tw.w.Write(data); err != nil {
		return err
	}
	_, err := tw.w.Write(zeroBlock[:blockPadding(int64(len(data)))])
	return err
}

// typeFlagOf maps the contents sum type onto the single type-flag byte. The
// switch is exhaustive over the closed variant set.
func typeFlagOf(c entry.Contents) (byte, error) {
	switch c := c.(type) {
	case entry.File:
		return typeReg, nil
	case entry.Directory:
		return typeDir, nil
	case entry.Symlink:
		return typeSymlink, nil
	case entry.Hardlink:
		return typeLink, nil
	case entry.CharDevice:
		return typeChar, nil
	case entry.BlockDevice:
		return typeBlock, nil
	case entry.FIFO:
		return typeFifo, nil
	case entry.Other:
		return c.TypeFlag, nil
	default:
		return 0, fmt.Errorf("%w: unknown contents variant %T", ErrUnsupportedFormat, c)
	}
}

// deviceNumbers extracts major/minor numbers for device variants.
func deviceNumbers(c entry.Contents) (major, minor int64, ok bool) {
	switch c := c.(type) {
	case entry.CharDevice:
		return c.Major, c.Minor, true
	case entry.BlockDevice:
		return c.Major, c.Minor, true
	default:
		return 0, 0, false
	}
}

// Close finalizes the archive by emitting the two all-zero trailer blocks.
// It does not close the underlying writer; that resource belongs to the
// caller.
func (tw *Writer) Close() error {
	if tw.closed {
		return nil
	}
	tw.closed = true
	if tw.err != nil {
		return tw.err
	}
	for i := 0; i < 2; i++ {
		if _, err := tw.w.Write(zeroBlock[:]); err != nil {
			tw.err = err
			return err
		}
	}
	return nil
}

// Encode drains a sequence of entries into w as a complete archive,
// including the trailer. The sequence is consumed exactly once, in order; a
// failing node aborts the encode with that node's error and no trailer is
// written.
func Encode(w io.Writer, seq entries.Entries) error {
	tw := NewWriter(w)
	if err := entries.Drain(seq, tw.WriteEntry); err != nil {
		return err
	}
	return tw.Close()
}

// eofReader is the empty body.
type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
