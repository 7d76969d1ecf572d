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

package hardening

import (
	"io"
	"strings"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidDigest(t *testing.T) {
	payload := "some archive bytes"
	expected := digest.SHA256.FromString(payload)

	v := &VerifiedReadCloser{
		Reader:         io.NopCloser(strings.NewReader(payload)),
		ExpectedDigest: expected,
	}

	data, err := io.ReadAll(v)
	require.NoError(t, err, "reading a stream with the right digest")
	assert.Equal(t, payload, string(data))
	assert.NoError(t, v.Close())
}

func TestInvalidDigest(t *testing.T) {
	payload := "some archive bytes"
	expected := digest.SHA256.FromString("different bytes entirely")

	v := &VerifiedReadCloser{
		Reader:         io.NopCloser(strings.NewReader(payload)),
		ExpectedDigest: expected,
	}

	_, err := io.ReadAll(v)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestInvalidDigestOnClose(t *testing.T) {
	payload := "some archive bytes"
	expected := digest.SHA256.FromString("different bytes entirely")

	v := &VerifiedReadCloser{
		Reader:         io.NopCloser(strings.NewReader(payload)),
		ExpectedDigest: expected,
	}

	// Read only part of the stream, then close: the digest of the bytes seen
	// so far cannot match and Close must say so.
	buf := make([]byte, 4)
	_, err := io.ReadFull(v, buf)
	require.NoError(t, err)

	err = v.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDigestMismatch)
}

func TestNoopWrapping(t *testing.T) {
	payload := "some archive bytes"
	expected := digest.SHA256.FromString(payload)

	inner := &VerifiedReadCloser{
		Reader:         io.NopCloser(strings.NewReader(payload)),
		ExpectedDigest: expected,
	}
	outer := &VerifiedReadCloser{
		Reader:         inner,
		ExpectedDigest: expected,
	}

	data, err := io.ReadAll(outer)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
	assert.NoError(t, outer.Close())
}
