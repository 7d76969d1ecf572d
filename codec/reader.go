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
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
)

// Header type flags from the tar specifications.
const (
	typeReg           = '0'    // regular file
	typeRegA          = '\x00' // regular file (old V7 encoding)
	typeLink          = '1'    // hard link
	typeSymlink       = '2'    // symbolic link
	typeChar          = '3'    // character device node
	typeBlock         = '4'    // block device node
	typeDir           = '5'    // directory
	typeFifo          = '6'    // fifo node
	typeXHeader       = 'x'    // PAX extended header
	typeXGlobalHeader = 'g'    // PAX global extended header
	typeGNULongName   = 'L'    // next entry has a long name
	typeGNULongLink   = 'K'    // next entry links to a long pathname
	typeGNUSparse     = 'S'    // GNU sparse file
)

// maxSpecialFileSize bounds the size of meta entries (GNU long names, PAX
// records). These are decoded into memory, and their sizes come straight
// from attacker-controlled headers.
const maxSpecialFileSize = 1 << 20

// PAX keys that affect stream structure and are therefore merged into the
// decoded entry; every other record is carried through opaquely.
const (
	paxPath     = "path"
	paxLinkpath = "linkpath"
	paxSize     = "size"
)

// isHeaderOnlyType checks if the given type flag is of the type that has no
// data section even if a size is specified.
func isHeaderOnlyType(flag byte) bool {
	switch flag {
	case typeLink, typeSymlink, typeChar, typeBlock, typeDir, typeFifo:
		return true
	default:
		return false
	}
}

// Reader is a pull decoder over a raw tar byte stream. Each call to Next
// reads exactly as many blocks as are needed to surface one more entry;
// nothing is read ahead of demand, so memory use is one header block plus
// whatever portion of the current body the caller chooses to read.
//
// A Reader is single-pass and owns its cursor: advancing past an entry
// invalidates that entry's body reader.
type Reader struct {
	r    io.Reader
	curr io.LimitedReader // data section of the current entry
	pad  int64            // padding after the current data section
	blk  block
	err  error // sticky
}

// NewReader creates a decoder reading from r. The stream must be
// uncompressed; compose any decompression around r before it reaches the
// codec.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next advances to the next entry in the archive, discarding any unread
// portion of the current entry's body. It returns io.EOF at the successful
// end of the archive (the two-zero-block trailer).
func (tr *Reader) Next() (*entry.Entry, error) {
	if tr.err != nil {
		return nil, tr.err
	}
	e, err := tr.next()
	tr.err = err
	return e, err
}

func (tr *Reader) next() (*entry.Entry, error) {
	var longName, longLink string
	var paxHdrs map[string]string

	// The tar format uses meta "entries" (GNU long names, PAX records) to
	// describe the entry that follows them. Keep decoding headers until a
	// real entry shows up, reassembling any meta state on the way.
	for {
		if err := tr.discard(); err != nil {
			return nil, err
		}
		flag, hdr, err := tr.readHeader()
		if err != nil {
			return nil, err
		}

		switch flag {
		case typeGNULongName, typeGNULongLink:
			realname, err := tr.readSpecialFile(hdr.size)
			if err != nil {
				return nil, err
			}
			var p parser
			if flag == typeGNULongName {
				longName = p.parseString(realname)
			} else {
				longLink = p.parseString(realname)
			}
			continue

		case typeXHeader, typeXGlobalHeader:
			// Global records are treated the same as local ones: the records
			// are carried opaquely either way.
			data, err := tr.readSpecialFile(hdr.size)
			if err != nil {
				return nil, err
			}
			if paxHdrs, err = parsePAX(data, paxHdrs); err != nil {
				return nil, err
			}
			continue
		}

		// A real entry. Apply any accumulated meta state.
		if longName != "" {
			hdr.name = longName
		}
		if longLink != "" {
			hdr.linkName = longLink
		}
		if v, ok := paxHdrs[paxPath]; ok {
			hdr.name = v
		}
		if v, ok := paxHdrs[paxLinkpath]; ok {
			hdr.linkName = v
		}
		if v, ok := paxHdrs[paxSize]; ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: invalid pax size record %q", ErrUnsupportedFormat, v)
			}
			hdr.size = n
		}

		e, err := tr.buildEntry(flag, hdr, paxHdrs)
		if err != nil {
			return nil, err
		}

		// Position the cursor over the data section, if the type has one.
		nb := hdr.size
		if isHeaderOnlyType(flag) {
			nb = 0
		}
		tr.curr = io.LimitedReader{R: tr.r, N: nb}
		tr.pad = blockPadding(nb)
		if f, ok := e.Contents.(entry.File); ok {
			f.Body = &tr.curr
			e.Contents = f
		}

		// Old-style GNU sparse entries keep extra sparse-map blocks after
		// the header; they have to be consumed for byte-exact positioning
		// even though the sparse map itself is passed over.
		if flag == typeGNUSparse && hdr.format == entry.FormatGNU {
			if err := tr.skipGNUSparseMap(hdr.extended); err != nil {
				return nil, err
			}
		}
		return e, nil
	}
}

// rawHeader carries the fields shared by every dialect, decoded but not yet
// mapped onto an Entry.
type rawHeader struct {
	name      string
	mode      int64
	uid, gid  int64
	size      int64
	modTime   int64
	linkName  string
	userName  string
	groupName string
	devMajor  int64
	devMinor  int64
	format    entry.Format
	extended  bool // old GNU sparse extension flag
}

// readHeader reads and decodes the next header block. The underlying reader
// must be aligned to a block boundary. io.EOF is returned only for a
// well-formed two-zero-block trailer; any other end of stream is a trailer
// or truncation error.
func (tr *Reader) readHeader() (byte, *rawHeader, error) {
	if _, err := io.ReadFull(tr.r, tr.blk[:]); err != nil {
		if err == io.EOF {
			// The stream ended cleanly on a block boundary but without any
			// trailer.
			return 0, nil, ErrShortTrailer
		}
		return 0, nil, fmt.Errorf("%w: %s", ErrTruncated, err)
	}

	// Two blocks of zero bytes mark the end of the archive. Exactly one zero
	// block followed by anything else means the trailer was cut short.
	if bytes.Equal(tr.blk[:], zeroBlock[:]) {
		if _, err := io.ReadFull(tr.r, tr.blk[:]); err != nil {
			if err == io.EOF {
				return 0, nil, ErrShortTrailer
			}
			return 0, nil, fmt.Errorf("%w: %s", ErrTruncated, err)
		}
		if !bytes.Equal(tr.blk[:], zeroBlock[:]) {
			return 0, nil, fmt.Errorf("%w: zero block followed by non-zero block", ErrShortTrailer)
		}
		// A proper trailer; Next surfaces this as the end of the archive.
		return 0, nil, io.EOF
	}

	given := (&parser{}).parseOctal(tr.blk.toV7().chksum())
	unsigned, signed := tr.blk.computeChecksum()
	if given != unsigned && given != signed {
		return 0, nil, ErrChecksum
	}

	var p parser
	v7 := tr.blk.toV7()
	hdr := &rawHeader{
		name:     p.parseString(v7.name()),
		mode:     p.parseNumeric(v7.mode()),
		uid:      p.parseNumeric(v7.uid()),
		gid:      p.parseNumeric(v7.gid()),
		size:     p.parseNumeric(v7.size()),
		modTime:  p.parseNumeric(v7.modTime()),
		linkName: p.parseString(v7.linkName()),
		format:   entry.FormatV7,
	}
	flag := v7.typeFlag()[0]

	// The dialect is chosen by the magic field. V7 headers predate the magic
	// field, so anything unrecognized is read as V7 rather than rejected;
	// this keeps the reader forward compatible with dialects it has never
	// heard of.
	ustar := tr.blk.toUSTAR()
	switch {
	case string(ustar.magic()) == magicUSTAR:
		hdr.format = entry.FormatUSTAR
	case string(ustar.magic()) == magicGNU && string(ustar.version()) == versionGNU:
		hdr.format = entry.FormatGNU
	}

	switch hdr.format {
	case entry.FormatUSTAR:
		hdr.userName = p.parseString(ustar.userName())
		hdr.groupName = p.parseString(ustar.groupName())
		hdr.devMajor = p.parseNumeric(ustar.devMajor())
		hdr.devMinor = p.parseNumeric(ustar.devMinor())
		if prefix := p.parseString(ustar.prefix()); prefix != "" {
			hdr.name = prefix + "/" + hdr.name
		}
	case entry.FormatGNU:
		gnu := tr.blk.toGNU()
		hdr.userName = p.parseString(gnu.userName())
		hdr.groupName = p.parseString(gnu.groupName())
		hdr.devMajor = p.parseNumeric(gnu.devMajor())
		hdr.devMinor = p.parseNumeric(gnu.devMinor())
		hdr.extended = tr.blk[482] != 0
	}

	if p.err != nil {
		return 0, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, p.err)
	}
	if hdr.size < 0 {
		return 0, nil, fmt.Errorf("%w: negative size", ErrUnsupportedFormat)
	}
	return flag, hdr, nil
}

// buildEntry maps a decoded raw header onto the structured entry model. An
// unrecognized type flag is not an error: the entry is yielded with its raw
// type code so the consumer can decide its fate.
func (tr *Reader) buildEntry(flag byte, hdr *rawHeader, paxHdrs map[string]string) (*entry.Entry, error) {
	isDir := flag == typeDir || strings.HasSuffix(hdr.name, "/")

	p, err := entry.ToTarPath(isDir, strings.TrimSuffix(hdr.name, "/"))
	if err != nil {
		return nil, err
	}

	var contents entry.Contents
	switch flag {
	case typeReg, typeRegA:
		contents = entry.File{Size: hdr.size}
	case typeDir:
		contents = entry.Directory{}
	case typeSymlink:
		contents = entry.Symlink{Target: hdr.linkName}
	case typeLink:
		contents = entry.Hardlink{Target: hdr.linkName}
	case typeChar:
		contents = entry.CharDevice{Major: hdr.devMajor, Minor: hdr.devMinor}
	case typeBlock:
		contents = entry.BlockDevice{Major: hdr.devMajor, Minor: hdr.devMinor}
	case typeFifo:
		contents = entry.FIFO{}
	default:
		contents = entry.Other{TypeFlag: flag}
	}

	return &entry.Entry{
		Path:        p,
		Contents:    contents,
		Permissions: hdr.mode,
		OwnerID:     int(hdr.uid),
		GroupID:     int(hdr.gid),
		OwnerName:   hdr.userName,
		GroupName:   hdr.groupName,
		ModTime:     hdr.modTime,
		Format:      hdr.format,
		Extended:    paxHdrs,
	}, nil
}

// discard consumes any unread portion of the current data section plus its
// block padding. Hitting end of stream inside the data section is a
// truncated archive; inside the padding it is tolerated, since readHeader
// will report the missing trailer anyway.
func (tr *Reader) discard() error {
	nd := tr.curr.N
	nb := nd + tr.pad
	tr.curr = io.LimitedReader{}
	tr.pad = 0

	n, err := io.CopyN(io.Discard, tr.r, nb)
	if err == io.EOF && n < nd {
		return fmt.Errorf("%w: archive ended inside entry body", ErrTruncated)
	}
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

// readSpecialFile reads the data section of a meta entry (GNU long name, PAX
// records) into memory, including its padding. Meta entries claim their own
// sizes, so the size is bounded before any allocation happens.
func (tr *Reader) readSpecialFile(size int64) ([]byte, error) {
	if size < 0 || size > maxSpecialFileSize {
		return nil, fmt.Errorf("%w: oversized meta entry (%d bytes)", ErrUnsupportedFormat, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(tr.r, buf); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	if _, err := io.CopyN(io.Discard, tr.r, blockPadding(size)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	return buf, nil
}

// skipGNUSparseMap consumes the continuation blocks of an old-style GNU
// sparse map. Each continuation block holds 21 sparse entries and its own
// extension flag at offset 504.
func (tr *Reader) skipGNUSparseMap(extended bool) error {
	var blk block
	for extended {
		if _, err := io.ReadFull(tr.r, blk[:]); err != nil {
			return fmt.Errorf("%w: %s", ErrTruncated, err)
		}
		extended = blk[504] != 0
	}
	return nil
}

// parsePAX parses PAX extended-header records of the form
// "%d %s=%s\n" (length, key, value) into the given map.
func parsePAX(data []byte, extHdrs map[string]string) (map[string]string, error) {
	buf := string(data)
	for len(buf) > 0 {
		sp := strings.IndexByte(buf, ' ')
		if sp == -1 {
			return nil, fmt.Errorf("%w: malformed pax record", ErrUnsupportedFormat)
		}
		n, err := strconv.ParseInt(buf[:sp], 10, 0)
		if err != nil || n < int64(sp)+2 || n > int64(len(buf)) {
			return nil, fmt.Errorf("%w: invalid pax record length", ErrUnsupportedFormat)
		}
		rec := buf[sp+1 : n-1]
		if buf[n-1] != '\n' {
			return nil, fmt.Errorf("%w: unterminated pax record", ErrUnsupportedFormat)
		}
		buf = buf[n:]

		eq := strings.IndexByte(rec, '=')
		if eq == -1 {
			return nil, fmt.Errorf("%w: pax record missing '='", ErrUnsupportedFormat)
		}
		if extHdrs == nil {
			extHdrs = make(map[string]string)
		}
		extHdrs[rec[:eq]] = rec[eq+1:]
	}
	return extHdrs, nil
}

// Decode drives a Reader lazily over r and exposes the archive as an
// entries.Entries sequence. Decoding failures surface as the terminal Fail
// node of the sequence, at exactly the point the consumer would have
// consumed the bad entry; the offending header block is attached as the
// failure's leftover bytes where one was in hand.
func Decode(r io.Reader) entries.Entries {
	tr := NewReader(r)
	var next entries.Entries
	next = func() entries.Step {
		e, err := tr.Next()
		switch {
		case err == io.EOF:
			return entries.Step{}
		case err != nil:
			leftover := make([]byte, blockSize)
			copy(leftover, tr.blk[:])
			return entries.Step{Err: err, Leftover: leftover}
		}
		return entries.Step{Entry: e, Rest: next}
	}
	return next
}
