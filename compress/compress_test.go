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

package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	payload := strings.Repeat("the quick brown fox jumps over the lazy dog\n", 1024)

	for _, algo := range []Algorithm{Noop, Gzip, Zstd} {
		t.Run("Algo"+algo.Name(), func(t *testing.T) {
			packed, err := algo.Compress(strings.NewReader(payload))
			require.NoError(t, err)

			var compressed bytes.Buffer
			_, err = io.Copy(&compressed, packed)
			require.NoError(t, err)
			require.NoError(t, packed.Close())

			plain, err := algo.Decompress(&compressed)
			require.NoError(t, err)

			unpacked, err := io.ReadAll(plain)
			require.NoError(t, err)
			require.NoError(t, plain.Close())

			assert.Equal(t, payload, string(unpacked))
		})
	}
}

func TestCompressionShrinks(t *testing.T) {
	payload := strings.Repeat("aaaaaaaa", 64*1024)

	for _, algo := range []Algorithm{Gzip, Zstd} {
		t.Run("Algo"+algo.Name(), func(t *testing.T) {
			packed, err := algo.Compress(strings.NewReader(payload))
			require.NoError(t, err)
			compressed, err := io.ReadAll(packed)
			require.NoError(t, err)
			require.NoError(t, packed.Close())
			assert.Less(t, len(compressed), len(payload))
		})
	}
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, Noop, GetAlgorithm(""))
	assert.Equal(t, Gzip, GetAlgorithm("gzip"))
	assert.Equal(t, Zstd, GetAlgorithm("zstd"))
	assert.Nil(t, GetAlgorithm("no-such-algorithm"))

	err := RegisterAlgorithm(Gzip)
	assert.Error(t, err, "double registration must be rejected")
}

func TestDefaultIsNoop(t *testing.T) {
	assert.Equal(t, "", Default.Name())
}
