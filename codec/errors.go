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

import "errors"

var (
	// ErrChecksum indicates that a header block failed checksum
	// verification. The archive is corrupt; decoding aborts at that point.
	ErrChecksum = errors.New("tar: header checksum mismatch")

	// ErrTruncated indicates that the stream ended in the middle of a header
	// or body block.
	ErrTruncated = errors.New("tar: truncated archive")

	// ErrShortTrailer indicates that the stream ended without the two
	// all-zero trailer blocks that terminate a well-formed archive.
	ErrShortTrailer = errors.New("tar: missing end-of-archive trailer")

	// ErrUnsupportedFormat indicates a header that is structurally parseable
	// but uses an encoding this codec cannot interpret.
	ErrUnsupportedFormat = errors.New("tar: unsupported header format")

	// ErrFieldTooLong indicates that a header field cannot hold the value an
	// entry requires, even after falling back to the GNU extensions.
	ErrFieldTooLong = errors.New("tar: header field too long")

	// ErrBodyLength indicates that an entry body did not match the size
	// declared in its header.
	ErrBodyLength = errors.New("tar: body length does not match declared size")

	// ErrWriteAfterClose indicates a write to an already-finalized archive.
	ErrWriteAfterClose = errors.New("tar: write after close")
)
