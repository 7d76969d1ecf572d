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

// Package compress provides an implementation-agnostic mechanism for
// compression and decompression of an [io.Reader]. The codec itself only
// ever sees raw bytes; these algorithms wrap the stream on its way in or
// out.
package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/haskell-works/tar/internal/assert"
)

// Default is the algorithm used when the caller does not pick one.
var Default = Noop

// Algorithm is a generic representation of a compression algorithm used for
// wrapping archive byte streams. Custom algorithms should be registered with
// [RegisterAlgorithm] so that name-based lookup can find them.
type Algorithm interface {
	// Name returns the name of the compression algorithm, which doubles as
	// its registry key.
	Name() string

	// Compress sets up the streaming compressor for this compression type.
	Compress(plain io.Reader) (compressed io.ReadCloser, _ error)

	// Decompress sets up the streaming decompressor for this compression
	// type.
	Decompress(compressed io.Reader) (plain io.ReadCloser, _ error)
}

var (
	algorithmsLock sync.RWMutex
	algorithms     = map[string]Algorithm{}
)

// RegisterAlgorithm adds the provided [Algorithm] to the set of algorithms
// available by name. Returns an error if another [Algorithm] with the same
// Name has already been registered.
func RegisterAlgorithm(algo Algorithm) error {
	name := algo.Name()

	algorithmsLock.Lock()
	defer algorithmsLock.Unlock()

	if _, ok := algorithms[name]; ok {
		return fmt.Errorf("compression algorithm %s already registered", name)
	}
	algorithms[name] = algo
	return nil
}

// MustRegisterAlgorithm is like [RegisterAlgorithm] but it panics if
// [RegisterAlgorithm] returns an error. Intended for use in init functions.
func MustRegisterAlgorithm(algo Algorithm) {
	err := RegisterAlgorithm(algo)
	assert.NoError(err)
}

// GetAlgorithm looks for a registered [Algorithm] with the given name.
// Returns nil if no such algorithm has been registered.
func GetAlgorithm(name string) Algorithm {
	algorithmsLock.RLock()
	defer algorithmsLock.RUnlock()

	return algorithms[name]
}
