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

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/opencontainers/go-digest"
	"github.com/urfave/cli"

	"github.com/haskell-works/tar"
	"github.com/haskell-works/tar/internal/funchelpers"
	"github.com/haskell-works/tar/pack"
	"github.com/haskell-works/tar/pkg/hardening"
)

var extractCommand = cli.Command{
	Name:  "extract",
	Usage: "safely extracts a tar archive into a directory",
	ArgsUsage: `--file <archive> <directory>

Where "<archive>" is the tar archive to read ("-" for stdin) and "<directory>"
is the directory to extract into. Every entry is checked against the
path-escape policy before anything is written to disk; --require-root
additionally confines the archive to a single top-level directory.`,

	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  "file, f",
			Usage: "path of the archive to read (\"-\" for stdin)",
			Value: "-",
		},
		cli.StringFlag{
			Name:  "require-root",
			Usage: "require every entry to live under this top-level directory",
		},
		cli.StringFlag{
			Name:  "digest",
			Usage: "verify the archive stream against this digest (e.g. sha256:...)",
		},
		cli.BoolFlag{
			Name:  "no-safety",
			Usage: "skip the path-escape check (on-disk joins are still confined)",
		},
		cli.BoolFlag{
			Name:  "keep-dir-times",
			Usage: "restore directory modification times after extraction",
		},
	}, compressionFlags...),

	Action: extract,

	Before: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return errors.New("invalid number of positional arguments: expected <directory>")
		}
		if ctx.Args().First() == "" {
			return errors.New("directory path cannot be empty")
		}
		ctx.App.Metadata["directory"] = ctx.Args().First()
		return nil
	},
}

func extract(ctx *cli.Context) (Err error) {
	dir := ctx.App.Metadata["directory"].(string)

	algo, err := chosenCompression(ctx)
	if err != nil {
		return err
	}

	var in io.ReadCloser = os.Stdin
	if file := ctx.String("file"); file != "-" {
		fh, err := os.Open(file)
		if err != nil {
			return err
		}
		defer funchelpers.VerifyClose(&Err, fh)
		in = fh
	}

	verifying := false
	if want := ctx.String("digest"); want != "" {
		expected, err := digest.Parse(want)
		if err != nil {
			return fmt.Errorf("parsing --digest: %w", err)
		}
		// The file handle already has its own deferred close; the verifier
		// only needs to see the bytes and check the digest on its own Close.
		verified := &hardening.VerifiedReadCloser{Reader: io.NopCloser(in), ExpectedDigest: expected}
		defer funchelpers.VerifyClose(&Err, verified)
		in = verified
		verifying = true
	}

	if ctx.Bool("no-safety") {
		log.Warn("extracting without the path-escape check")
	}

	err = tar.Extract(in, dir, tar.ExtractOptions{
		Compression: algo,
		Unpack: pack.UnpackOptions{
			RequireRoot:   ctx.String("require-root"),
			DisableSafety: ctx.Bool("no-safety"),
			KeepDirTimes:  ctx.Bool("keep-dir-times"),
		},
	})
	if err != nil {
		return err
	}

	// The decoder stops at the archive trailer. The digest covers the whole
	// stream, so any trailing padding still has to pass through the verifier.
	if verifying {
		if _, err := io.Copy(io.Discard, in); err != nil {
			return fmt.Errorf("verifying archive digest: %w", err)
		}
	}
	return nil
}
