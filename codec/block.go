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

// Size constants from the tar specifications.
const (
	blockSize  = 512 // Size of each block in a tar stream.
	nameSize   = 100 // Max length of the name field in USTAR format.
	prefixSize = 155 // Max length of the prefix field in USTAR format.
)

// blockPadding computes the number of bytes needed to pad offset up to the
// nearest block edge where 0 <= n < blockSize.
func blockPadding(offset int64) (n int64) {
	return -offset & (blockSize - 1)
}

var zeroBlock block

// block is one 512-byte record of a tar stream. The typed views below give
// field-level access for each header dialect; all dialects share the V7
// prefix.
type block [blockSize]byte

func (b *block) toV7() *headerV7       { return (*headerV7)(b) }
func (b *block) toGNU() *headerGNU     { return (*headerGNU)(b) }
func (b *block) toUSTAR() *headerUSTAR { return (*headerUSTAR)(b) }

// Magics used to identify the header dialects.
const (
	magicGNU, versionGNU     = "ustar ", " \x00"
	magicUSTAR, versionUSTAR = "ustar\x00", "00"
)

// computeChecksum computes the checksum for the header block. POSIX
// specifies a sum of the unsigned byte values, but the Sun tar used signed
// byte values; both are computed so readers can accept either. The checksum
// field itself is treated as all spaces.
func (b *block) computeChecksum() (unsigned, signed int64) {
	for i, c := range b {
		if 148 <= i && i < 156 {
			c = ' '
		}
		unsigned += int64(c)
		signed += int64(int8(c))
	}
	return unsigned, signed
}

// setChecksum computes and stores the checksum field. The field is special
// in that it is terminated by a NUL then a space.
func (b *block) setChecksum() {
	var f formatter
	field := b.toV7().chksum()
	unsigned, _ := b.computeChecksum() // Possible values are 256..128776.
	f.formatOctal(field[:7], unsigned) // Never fails since 128776 < 262143.
	field[7] = ' '
}

// reset clears the block to all zeros.
func (b *block) reset() {
	*b = block{}
}

type headerV7 [blockSize]byte

func (h *headerV7) name() []byte     { return h[000:][:100] }
func (h *headerV7) mode() []byte     { return h[100:][:8] }
func (h *headerV7) uid() []byte      { return h[108:][:8] }
func (h *headerV7) gid() []byte      { return h[116:][:8] }
func (h *headerV7) size() []byte     { return h[124:][:12] }
func (h *headerV7) modTime() []byte  { return h[136:][:12] }
func (h *headerV7) chksum() []byte   { return h[148:][:8] }
func (h *headerV7) typeFlag() []byte { return h[156:][:1] }
func (h *headerV7) linkName() []byte { return h[157:][:100] }

type headerGNU [blockSize]byte

func (h *headerGNU) v7() *headerV7      { return (*headerV7)(h) }
func (h *headerGNU) magic() []byte      { return h[257:][:6] }
func (h *headerGNU) version() []byte    { return h[263:][:2] }
func (h *headerGNU) userName() []byte   { return h[265:][:32] }
func (h *headerGNU) groupName() []byte  { return h[297:][:32] }
func (h *headerGNU) devMajor() []byte   { return h[329:][:8] }
func (h *headerGNU) devMinor() []byte   { return h[337:][:8] }
func (h *headerGNU) accessTime() []byte { return h[345:][:12] }
func (h *headerGNU) changeTime() []byte { return h[357:][:12] }
func (h *headerGNU) realSize() []byte   { return h[483:][:12] }

type headerUSTAR [blockSize]byte

func (h *headerUSTAR) v7() *headerV7     { return (*headerV7)(h) }
func (h *headerUSTAR) magic() []byte     { return h[257:][:6] }
func (h *headerUSTAR) version() []byte   { return h[263:][:2] }
func (h *headerUSTAR) userName() []byte  { return h[265:][:32] }
func (h *headerUSTAR) groupName() []byte { return h[297:][:32] }
func (h *headerUSTAR) devMajor() []byte  { return h[329:][:8] }
func (h *headerUSTAR) devMinor() []byte  { return h[337:][:8] }
func (h *headerUSTAR) prefix() []byte    { return h[345:][:155] }
