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

import "io"

// Noop does no compression at all, passing the stream through unchanged.
var Noop Algorithm = noopAlgo{}

type noopAlgo struct{}

func (nl noopAlgo) Name() string {
	return ""
}

func (nl noopAlgo) Compress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func (nl noopAlgo) Decompress(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

func init() {
	MustRegisterAlgorithm(Noop)
}
