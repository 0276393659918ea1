/*
NAME
  ts2fmp4 - converts one MPEG-TS clip into a fragmented MP4 init segment
  plus a single media segment.

DESCRIPTION
  ts2fmp4 reads a complete MPEG-2 Transport Stream clip containing one
  H.264/AVC video elementary stream and one ADTS-AAC audio elementary
  stream, and writes the ISO BMFF initialization segment followed by the
  single media segment covering the whole clip. By default the stream is
  read from stdin and the two segments are concatenated to stdout, which
  is enough for feeding a Media Source Extensions SourceBuffer; the in
  and out flags redirect to files instead.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"flag"
	"io"
	"os"

	"github.com/ausocean/av/errs"
	"github.com/ausocean/av/internal/logging"
	"github.com/ausocean/av/mpegts"
)

const (
	inUsage  = "input MPEG-TS file path, or - for stdin"
	outUsage = "output fMP4 file path, or - for stdout"
)

func main() {
	inPtr := flag.String("in", "-", inUsage)
	outPtr := flag.String("out", "-", outUsage)
	flag.Parse()

	log := logging.NewStd()

	in, err := openInput(*inPtr)
	if err != nil {
		log.Error("opening input failed", "error", err.Error())
		os.Exit(1)
	}
	defer in.Close()

	out, err := openOutput(*outPtr)
	if err != nil {
		log.Error("opening output failed", "error", err.Error())
		os.Exit(1)
	}
	defer out.Close()

	if err := convert(log, in, out); err != nil {
		log.Error("conversion failed", "error", err.Error(), "kind", errs.KindOf(err).String())
		os.Exit(1)
	}
}

func convert(log logging.Logger, r io.Reader, w io.Writer) error {
	asm := mpegts.NewAssembler(log)
	init, media, err := asm.ToFmp4(mpegts.NewTSReader(r))
	if err != nil {
		return err
	}
	if err := init.WriteTo(w); err != nil {
		return errs.Wrap(errs.Other, err, "writing initialization segment")
	}
	if err := media.WriteTo(w); err != nil {
		return errs.Wrap(errs.Other, err, "writing media segment")
	}
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
