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

	"github.com/apex/log"
	zstd "github.com/klauspost/compress/zstd"
)

// Zstd provides zstd compression and decompression.
var Zstd Algorithm = zstdAlgo{}

type zstdAlgo struct{}

func (zs zstdAlgo) Name() string {
	return "zstd"
}

func (zs zstdAlgo) Compress(reader io.Reader) (io.ReadCloser, error) {
	pipeReader, pipeWriter := io.Pipe()
	zw, err := zstd.NewWriter(pipeWriter)
	if err != nil {
		return nil, err
	}
	go func() {
		if _, err := io.Copy(zw, reader); err != nil {
			log.Warnf("zstd compress: could not compress archive: %v", err)
			_ = pipeWriter.CloseWithError(fmt.Errorf("compressing archive: %w", err))
			return
		}
		if err := zw.Close(); err != nil {
			log.Warnf("zstd compress: could not close zstd writer: %v", err)
			_ = pipeWriter.CloseWithError(fmt.Errorf("close zstd writer: %w", err))
			return
		}
		if err := pipeWriter.Close(); err != nil {
			log.Warnf("zstd compress: could not close pipe: %v", err)
			// We don't CloseWithError because we cannot override the Close.
			return
		}
	}()

	return pipeReader, nil
}

func (zs zstdAlgo) Decompress(reader io.Reader) (io.ReadCloser, error) {
	plain, err := zstd.NewReader(reader)
	if err != nil {
		return nil, err
	}
	return plain.IOReadCloser(), nil
}

func init() {
	MustRegisterAlgorithm(Zstd)
}
