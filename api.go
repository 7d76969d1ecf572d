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

// Package tar composes the sub-packages into a convenience API: reading,
// creating, listing and extracting tar archives, optionally compressed, with
// the safety checks applied by default on extraction.
//
// The building blocks live underneath and can be composed directly when the
// convenience surface does not fit: entry (the archive member model), codec
// (the wire format), entries (the lazy sequence and its combinators), check
// (path-escape and tarbomb policies), compress (stream compression) and pack
// (file system packing and unpacking).
package tar

import (
	"fmt"
	"io"

	"github.com/haskell-works/tar/codec"
	"github.com/haskell-works/tar/compress"
	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/internal/funchelpers"
	"github.com/haskell-works/tar/pack"
)

// CreateOptions configures Create.
type CreateOptions struct {
	// Compression selects the stream compression applied around the archive.
	// Nil means no compression.
	Compression compress.Algorithm
}

// ExtractOptions configures Extract.
type ExtractOptions struct {
	// Compression selects the stream decompression applied before decoding.
	// Nil means no decompression.
	Compression compress.Algorithm

	// Unpack carries the safety policy and metadata options through to
	// pack.Unpack.
	Unpack pack.UnpackOptions
}

// Create archives the contents of dir into w.
func Create(w io.Writer, dir string, opt CreateOptions) (Err error) {
	if opt.Compression != nil {
		cw, err := compressTo(w, opt.Compression)
		if err != nil {
			return err
		}
		defer funchelpers.VerifyClose(&Err, cw)
		w = cw
	}
	return codec.Encode(w, pack.Pack(dir))
}

// Extract reads an archive from r and materializes it under dir. Unless
// disabled in the options, every entry is vetted against the path-escape
// policy before it is written to disk.
func Extract(r io.Reader, dir string, opt ExtractOptions) (Err error) {
	if opt.Compression != nil {
		plain, err := opt.Compression.Decompress(r)
		if err != nil {
			return fmt.Errorf("decompress archive: %w", err)
		}
		defer funchelpers.VerifyClose(&Err, plain)
		r = plain
	}
	return pack.Unpack(dir, codec.Decode(r), opt.Unpack)
}

// List decodes an archive from r into a lazy entry sequence. The sequence is
// single-pass and bound to r: entries must be consumed before r is advanced
// by anything else, and file bodies are only readable until the sequence
// moves past them.
func List(r io.Reader) entries.Entries {
	return codec.Decode(r)
}

// compressTo wraps w with the algorithm's compressor. The compress package
// API is pull-based (it wraps readers), so the writer side runs the
// compressor over a pipe. The returned writer must be closed to flush the
// compressor and surface any error from it.
func compressTo(w io.Writer, algo compress.Algorithm) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	packed, err := algo.Compress(pr)
	if err != nil {
		return nil, fmt.Errorf("compress archive: %w", err)
	}
	done := make(chan error, 1)
	go func() {
		_, err := io.Copy(w, packed)
		if cerr := packed.Close(); err == nil {
			err = cerr
		}
		_ = pr.CloseWithError(err)
		done <- err
	}()
	return &pipeFlusher{pw: pw, done: done}, nil
}

// pipeFlusher finishes the compression goroutine on Close.
type pipeFlusher struct {
	pw   *io.PipeWriter
	done chan error
}

func (pf *pipeFlusher) Write(p []byte) (int, error) { return pf.pw.Write(p) }

func (pf *pipeFlusher) Close() error {
	err := pf.pw.Close()
	if werr := <-pf.done; err == nil {
		err = werr
	}
	return err
}
