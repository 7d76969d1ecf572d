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

// Package main is the cli implementation of the tar tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/apex/log"
	logcli "github.com/apex/log/handlers/cli"
	"github.com/urfave/cli"

	"github.com/haskell-works/tar"
	"github.com/haskell-works/tar/compress"
)

const usage = `tar creates, lists and safely extracts tar archives`

// Main is the underlying main() implementation. You can call this directly as
// though args were the command-line arguments of the tar binary.
func Main(args []string) error {
	app := cli.NewApp()
	app.Name = "tar"
	app.Usage = usage
	app.Version = tar.FullVersion()

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose",
			Usage: "alias for --log=info",
		},
		cli.StringFlag{
			Name:  "log",
			Usage: "set the log level (debug, info, [warn], error, fatal)",
			Value: "warn",
		},
		cli.StringFlag{
			Name:   "cpu-profile",
			Usage:  "profile tar during execution and output it to a file",
			Hidden: true,
		},
	}

	app.Before = func(ctx *cli.Context) error {
		log.SetHandler(logcli.New(os.Stderr))

		if ctx.GlobalBool("verbose") {
			if ctx.GlobalIsSet("log") {
				return errors.New("--log=* and --verbose are mutually exclusive")
			}
			if err := ctx.GlobalSet("log", "info"); err != nil {
				// Should _never_ be reached.
				return fmt.Errorf("[internal error] failure auto-setting --log=info: %w", err)
			}
		}
		level, err := log.ParseLevel(ctx.GlobalString("log"))
		if err != nil {
			return fmt.Errorf("parsing log level: %w", err)
		}
		log.SetLevel(level)

		if path := ctx.GlobalString("cpu-profile"); path != "" {
			fh, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("opening cpu-profile path: %w", err)
			}
			if err := pprof.StartCPUProfile(fh); err != nil {
				return fmt.Errorf("start cpu-profile: %w", err)
			}
		}
		return nil
	}

	app.After = func(*cli.Context) error {
		pprof.StopCPUProfile()
		return nil
	}

	app.Commands = []cli.Command{
		createCommand,
		extractCommand,
		listCommand,
	}

	app.Metadata = map[string]any{}

	err := app.Run(args)
	if err != nil {
		log.Debugf("%+v", err)
	}
	return err
}

func main() {
	if err := Main(os.Args); err != nil {
		log.Fatalf("%v", err)
	}
}

// compressionFlags are shared by the commands that read or write an archive
// stream.
var compressionFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "gzip, z",
		Usage: "compress or decompress the archive with gzip",
	},
	cli.BoolFlag{
		Name:  "zstd",
		Usage: "compress or decompress the archive with zstd",
	},
}

// chosenCompression maps the compression flags to an algorithm, nil meaning
// no compression.
func chosenCompression(ctx *cli.Context) (compress.Algorithm, error) {
	if ctx.Bool("gzip") && ctx.Bool("zstd") {
		return nil, errors.New("--gzip and --zstd are mutually exclusive")
	}
	switch {
	case ctx.Bool("gzip"):
		return compress.Gzip, nil
	case ctx.Bool("zstd"):
		return compress.Zstd, nil
	default:
		return nil, nil
	}
}
