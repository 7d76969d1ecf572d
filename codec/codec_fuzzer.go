//go:build gofuzz

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
	"io"

	fuzzheaders "github.com/AdaLogics/go-fuzz-headers"

	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
)

// FuzzDecode feeds arbitrary bytes to the decoder. The decoder must reject or
// accept them without panicking and without unbounded allocation, whatever
// the input claims about sizes.
func FuzzDecode(data []byte) int {
	err := entries.Drain(Decode(bytes.NewReader(data)), func(e *entry.Entry) error {
		if f, ok := e.Contents.(entry.File); ok && f.Body != nil {
			if _, err := io.Copy(io.Discard, f.Body); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0
	}
	return 1
}

// FuzzRoundTrip builds entries from fuzzer input, encodes them and decodes
// the result. Anything the writer accepted must decode back without error.
func FuzzRoundTrip(data []byte) int {
	f := fuzzheaders.NewConsumer(data)

	count, err := f.GetInt()
	if err != nil {
		return -1
	}
	count %= 8

	var es []*entry.Entry
	for i := 0; i < count; i++ {
		name, err := f.GetString()
		if err != nil {
			break
		}
		body, err := f.GetBytes()
		if err != nil {
			break
		}
		p, err := entry.ToTarPath(false, name)
		if err != nil {
			continue
		}
		es = append(es, entry.NewFile(p, int64(len(body)), bytes.NewReader(body)))
	}
	if len(es) == 0 {
		return -1
	}

	var buf bytes.Buffer
	if err := Encode(&buf, entries.FromSlice(es)); err != nil {
		return 0
	}
	err = entries.Drain(Decode(&buf), func(e *entry.Entry) error {
		if f, ok := e.Contents.(entry.File); ok && f.Body != nil {
			if _, err := io.Copy(io.Discard, f.Body); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		panic("round trip of encoded archive failed: " + err.Error())
	}
	return 1
}
