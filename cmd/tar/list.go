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
	"time"

	units "github.com/docker/go-units"
	"github.com/urfave/cli"

	"github.com/haskell-works/tar"
	"github.com/haskell-works/tar/entries"
	"github.com/haskell-works/tar/entry"
	"github.com/haskell-works/tar/internal/funchelpers"
)

var listCommand = cli.Command{
	Name:  "list",
	Usage: "lists the entries of a tar archive",
	ArgsUsage: `--file <archive>

Where "<archive>" is the tar archive to read ("-" for stdin). The archive is
decoded in a single streaming pass; file bodies are skipped, not loaded.`,

	Flags: append([]cli.Flag{
		cli.StringFlag{
			Name:  "file, f",
			Usage: "path of the archive to read (\"-\" for stdin)",
			Value: "-",
		},
		cli.BoolFlag{
			Name:  "long, l",
			Usage: "show permissions, size and modification time",
		},
	}, compressionFlags...),

	Action: list,

	Before: func(ctx *cli.Context) error {
		if ctx.NArg() != 0 {
			return errors.New("invalid number of positional arguments: expected none")
		}
		return nil
	},
}

func list(ctx *cli.Context) (Err error) {
	algo, err := chosenCompression(ctx)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if file := ctx.String("file"); file != "-" {
		fh, err := os.Open(file)
		if err != nil {
			return err
		}
		defer funchelpers.VerifyClose(&Err, fh)
		in = fh
	}

	if algo != nil {
		plain, err := algo.Decompress(in)
		if err != nil {
			return fmt.Errorf("decompress archive: %w", err)
		}
		defer funchelpers.VerifyClose(&Err, plain)
		in = plain
	}

	long := ctx.Bool("long")
	return entries.Drain(tar.List(in), func(e *entry.Entry) error {
		if long {
			fmt.Printf("%s %8s %s %s\n",
				modeString(e),
				units.HumanSize(float64(e.Size())),
				time.Unix(e.ModTime, 0).UTC().Format("2006-01-02 15:04"),
				describe(e))
		} else {
			fmt.Println(e.Path)
		}
		return nil
	})
}

// describe renders the pathname plus the link target for link entries.
func describe(e *entry.Entry) string {
	switch c := e.Contents.(type) {
	case entry.Symlink:
		return fmt.Sprintf("%s -> %s", e.Path, c.Target)
	case entry.Hardlink:
		return fmt.Sprintf("%s link to %s", e.Path, c.Target)
	default:
		return e.Path.String()
	}
}

// modeString renders an ls-style type and permission column.
func modeString(e *entry.Entry) string {
	var kind byte
	switch e.Contents.(type) {
	case entry.Directory:
		kind = 'd'
	case entry.Symlink:
		kind = 'l'
	case entry.CharDevice:
		kind = 'c'
	case entry.BlockDevice:
		kind = 'b'
	case entry.FIFO:
		kind = 'p'
	default:
		kind = '-'
	}

	buf := []byte("----------")
	buf[0] = kind
	const rwx = "rwxrwxrwx"
	for i := 0; i < 9; i++ {
		if e.Permissions&(1<<uint(8-i)) != 0 {
			buf[i+1] = rwx[i]
		}
	}
	return string(buf)
}
