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
	"fmt"
	"io"
	"runtime"

	"github.com/apex/log"
	gzip "github.com/klauspost/pgzip"
)

// Gzip provides concurrent gzip compression and decompression.
var Gzip Algorithm = gzipAlgo{}

type gzipAlgo struct{}

func (gz gzipAlgo) Name() string {
	return "gzip"
}

// gzipBlockSize is the block size used when generating gzip streams.
// Changing this value changes the exact bytes produced for the same input,
// so anything comparing compressed archives byte-for-byte would notice. This
// matches the default for github.com/klauspost/pgzip.
const gzipBlockSize = 1 << 20

func (gz gzipAlgo) Compress(reader io.Reader) (io.ReadCloser, error) {
	pipeReader, pipeWriter := io.Pipe()

	gzw := gzip.NewWriter(pipeWriter)
	if err := gzw.SetConcurrency(gzipBlockSize, 2*runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("set concurrency level to %v blocks: %w", 2*runtime.NumCPU(), err)
	}
	go func() {
		if _, err := io.Copy(gzw, reader); err != nil {
			log.Warnf("gzip compress: could not compress archive: %v", err)
			_ = pipeWriter.CloseWithError(fmt.Errorf("compressing archive: %w", err))
			return
		}
		if err := gzw.Close(); err != nil {
			log.Warnf("gzip compress: could not close gzip writer: %v", err)
			_ = pipeWriter.CloseWithError(fmt.Errorf("close gzip writer: %w", err))
			return
		}
		if err := pipeWriter.Close(); err != nil {
			log.Warnf("gzip compress: could not close pipe: %v", err)
			// We don't CloseWithError because we cannot override the Close.
			return
		}
	}()

	return pipeReader, nil
}

func (gz gzipAlgo) Decompress(reader io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(reader)
}

func init() {
	MustRegisterAlgorithm(Gzip)
}
