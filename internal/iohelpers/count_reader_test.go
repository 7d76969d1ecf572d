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

package iohelpers

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountReader(t *testing.T) {
	cr := CountReader(strings.NewReader("0123456789"))
	assert.EqualValues(t, 0, cr.BytesRead())

	buf := make([]byte, 4)
	n, err := io.ReadFull(cr, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.EqualValues(t, 4, cr.BytesRead())

	rest, err := io.ReadAll(cr)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(rest))
	assert.EqualValues(t, 10, cr.BytesRead())
}
