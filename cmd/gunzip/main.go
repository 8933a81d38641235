// Copyright 2022, Miguel Castela. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Command gunzip recovers the original file from a GZIP archive whose
// DEFLATE payload uses dynamic Huffman coding. The output file is named
// by the FNAME field recorded in the archive header.
package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/MiguelCastela/gunzip/gzip"
)

// VERSION gets set during build.
var VERSION = "0.0.0"

type CLI struct {
	File      string `kong:"arg,required,type='existingfile',help='Path to the GZIP file.'"`
	OutputDir string `kong:"help='Directory to place the recovered file in.',type='existingdir',default='.',short='C'"`
	Stdout    bool   `kong:"help='Write the recovered bytes to standard output instead of a file.',short='c'"`
	Force     bool   `kong:"help='Overwrite the output file if it already exists.',short='f'"`
	Quiet     bool   `kong:"help='Only log errors.',short='q'"`
	Debug     bool   `kong:"help='Enable debug output.',short='d'"`

	Version kong.VersionFlag `kong:"help='Show version and exit.',short='v'"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("gunzip"),
		kong.Description("Recover the original file from a GZIP archive (dynamic Huffman DEFLATE)."),
		kong.UsageOnError(),
		kong.Vars{"version": VERSION},
	)

	if cli.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if cli.Quiet {
		logrus.SetLevel(logrus.ErrorLevel)
	}

	log := logrus.WithField("pkg", "main")
	if err := extract(&cli, os.Stdout, log); err != nil {
		log.Errorf("unable to decompress %s: %s", cli.File, err)
		os.Exit(1)
	}
}

// extract decodes cli.File and writes the recovered bytes to the sink
// selected by the flags. On any error a partially written output file
// is removed.
func extract(cli *CLI, stdout io.Writer, log *logrus.Entry) error {
	f, err := os.Open(cli.File)
	if err != nil {
		return errors.Wrap(err, "unable to open input")
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "unable to read header")
	}
	log.Debugf("header: name=%q comment=%q modtime=%s os=%d text=%v",
		zr.Name, zr.Comment, zr.ModTime, zr.OS, zr.Text)

	var sink io.Writer = stdout
	var out *os.File
	if !cli.Stdout {
		if zr.Name == "" {
			return gzip.ErrNoName
		}
		// FNAME comes from the archive; keep only its base name so it
		// cannot point outside the output directory.
		name := filepath.Join(cli.OutputDir, filepath.Base(zr.Name))
		flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
		if cli.Force {
			flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		}
		if out, err = os.OpenFile(name, flags, 0666); err != nil {
			return errors.Wrap(err, "unable to create output file")
		}
		sink = out
	}

	cnt, err := io.Copy(sink, zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if out != nil {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out.Name())
		}
	}
	if err != nil {
		return errors.Wrap(err, "unable to decompress stream")
	}

	if out != nil {
		log.Infof("recovered %q: %d bytes in %d block(s)", out.Name(), cnt, zr.BlockCount())
	} else {
		log.Infof("recovered %d bytes in %d block(s)", cnt, zr.BlockCount())
	}
	if zr.Size != uint32(cnt) {
		log.Warnf("trailer records %d bytes but %d were recovered", zr.Size, cnt)
	}
	return nil
}
