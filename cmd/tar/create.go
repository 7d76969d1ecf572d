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
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/haskell-works/tar"
	"github.com/haskell-works/tar/internal/funchelpers"
)

var createCommand = cli.Command{
	Name:  "create",
	Usage: "archives a directory tree into a tar archive",
	ArgsUsage: `--file <archive> <directory>

Where "<archive>" is the tar archive to write ("-" for stdout) and
"<directory>" is the directory whose contents are archived. Entries are
written in lexicographic order with portable metadata only: permission bits
and modification times, no ownership.`,

	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  "file, f",
			Usage: "path of the archive to write (\"-\" for stdout)",
			Value: "-",
		},
	}, compressionFlags...),

	Action: create,

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

func create(ctx *cli.Context) (Err error) {
	dir := ctx.App.Metadata["directory"].(string)

	algo, err := chosenCompression(ctx)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if file := ctx.String("file"); file != "-" {
		fh, err := os.Create(file)
		if err != nil {
			return err
		}
		defer funchelpers.VerifyClose(&Err, fh)
		out = fh
	}

	return tar.Create(out, dir, tar.CreateOptions{Compression: algo})
}
