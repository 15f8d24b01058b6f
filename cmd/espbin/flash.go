package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"github.com/moffa90/go-espbin/espbin"
	"github.com/moffa90/go-espbin/flasher"
)

func cmdBoardInfo(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("board-info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, df, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "connect:", err)
		return 1
	}
	defer s.Close()

	magic, err := s.fl.ReadRegister(ctx, flasher.ChipMagicAddr)
	if err != nil {
		fmt.Fprintln(stderr, "read chip magic:", err)
		return 1
	}

	fmt.Fprintf(stdout, "Chip type:  %s\n", s.chip)
	fmt.Fprintf(stdout, "Chip magic: 0x%08X\n", magic)
	fmt.Fprintf(stdout, "Port:       %s\n", s.cfg.Connection.Port)
	fmt.Fprintf(stdout, "Baud:       %d\n", s.cfg.Connection.Baud)
	return 0
}

func cmdFlash(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("flash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	noCompress := fs.Bool("no-compress", false, "send raw blocks even when the chip can inflate")
	noVerify := fs.Bool("no-verify", false, "skip digest verification after writing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: espbin flash [flags] <image>")
		return 2
	}

	img, closeImg, err := openImage(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "load image:", err)
		return 1
	}
	defer closeImg()

	// Decode fully before touching the device. A malformed image must
	// cost zero flash wear.
	var segments []espbin.CodeSegment
	iter := img.Segments()
	for iter.Scan() {
		segments = append(segments, iter.Segment())
	}
	if err := iter.Err(); err != nil {
		fmt.Fprintln(stderr, "decode image:", err)
		return 1
	}
	if len(segments) == 0 {
		fmt.Fprintln(stderr, "image has no segments")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var extra []flasher.Option
	if *noVerify {
		extra = append(extra, flasher.WithVerifyAfterFlash(false))
	}

	s, err := openSession(ctx, df, stderr, extra...)
	if err != nil {
		fmt.Fprintln(stderr, "connect:", err)
		return 1
	}
	defer s.Close()

	if err := s.attachFlash(ctx); err != nil {
		fmt.Fprintln(stderr, "attach flash:", err)
		return 1
	}

	compress := s.cfg.Flash.Compress && !*noCompress && s.chip.SupportsCompression

	total := 0
	for i, seg := range segments {
		s.log.WithFields(logrus.Fields{
			"segment": i,
			"addr":    fmt.Sprintf("0x%08X", seg.Addr),
			"size":    len(seg.Data),
		}).Info("writing segment")

		if compress {
			err = s.fl.WriteFlashCompressed(ctx, seg.Addr, seg.Data)
		} else {
			err = s.fl.WriteFlash(ctx, seg.Addr, seg.Data)
		}
		if err != nil {
			fmt.Fprintln(stderr, "flash:", err)
			return 1
		}
		total += len(seg.Data)
	}

	if err := s.fl.HardReset(); err != nil {
		s.log.Info("reset the board to run the new image")
	}

	fmt.Fprintf(stdout, "Flashed %d segments (%d bytes) to %s\n", len(segments), total, s.chip)
	return 0
}

func cmdLoadRAM(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("load-ram", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: espbin load-ram [flags] <image>")
		return 2
	}

	img, closeImg, err := openImage(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "load image:", err)
		return 1
	}
	defer closeImg()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, df, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "connect:", err)
		return 1
	}
	defer s.Close()

	if err := s.fl.LoadToRAM(ctx, img); err != nil {
		fmt.Fprintln(stderr, "load to RAM:", err)
		return 1
	}

	fmt.Fprintln(stdout, "Image loaded; chip is running from RAM")
	return 0
}

func cmdWriteBin(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("write-bin", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	noCompress := fs.Bool("no-compress", false, "send raw blocks even when the chip can inflate")
	noVerify := fs.Bool("no-verify", false, "skip digest verification after writing")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: espbin write-bin [flags] <offset> <file>")
		return 2
	}

	offset, err := parseUint32(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "invalid offset:", fs.Arg(0))
		return 2
	}

	data, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(stderr, "read file:", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var extra []flasher.Option
	if *noVerify {
		extra = append(extra, flasher.WithVerifyAfterFlash(false))
	}

	s, err := openSession(ctx, df, stderr, extra...)
	if err != nil {
		fmt.Fprintln(stderr, "connect:", err)
		return 1
	}
	defer s.Close()

	if err := s.attachFlash(ctx); err != nil {
		fmt.Fprintln(stderr, "attach flash:", err)
		return 1
	}

	if s.cfg.Flash.Compress && !*noCompress && s.chip.SupportsCompression {
		err = s.fl.WriteFlashCompressed(ctx, offset, data)
	} else {
		err = s.fl.WriteFlash(ctx, offset, data)
	}
	if err != nil {
		fmt.Fprintln(stderr, "flash:", err)
		return 1
	}

	fmt.Fprintf(stdout, "Wrote %d bytes at 0x%X\n", len(data), offset)
	return 0
}

func cmdReadFlash(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("read-flash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(stderr, "usage: espbin read-flash [flags] <offset> <size> <out>")
		return 2
	}

	offset, err := parseUint32(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "invalid offset:", fs.Arg(0))
		return 2
	}
	size, err := parseUint32(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(stderr, "invalid size:", fs.Arg(1))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, df, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "connect:", err)
		return 1
	}
	defer s.Close()

	if err := s.attachFlash(ctx); err != nil {
		fmt.Fprintln(stderr, "attach flash:", err)
		return 1
	}

	out, err := os.Create(fs.Arg(2))
	if err != nil {
		fmt.Fprintln(stderr, "create output file:", err)
		return 1
	}

	if err := s.fl.ReadFlash(ctx, offset, size, out); err != nil {
		_ = out.Close()
		fmt.Fprintln(stderr, "read flash:", err)
		return 1
	}
	if err := out.Close(); err != nil {
		fmt.Fprintln(stderr, "write output file:", err)
		return 1
	}

	fmt.Fprintf(stdout, "Read %d bytes from 0x%X into %s\n", size, offset, fs.Arg(2))
	return 0
}

func cmdEraseFlash(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("erase-flash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, df, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "connect:", err)
		return 1
	}
	defer s.Close()

	if err := s.attachFlash(ctx); err != nil {
		fmt.Fprintln(stderr, "attach flash:", err)
		return 1
	}

	if d, ok := s.device.(*serialDevice); ok {
		_ = d.setReadTimeout(longReadTimeout)
	}

	if err := s.fl.EraseFlash(ctx); err != nil {
		fmt.Fprintln(stderr, "erase flash:", err)
		return 1
	}

	fmt.Fprintln(stdout, "Flash erased")
	return 0
}

func cmdEraseRegion(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("erase-region", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: espbin erase-region [flags] <offset> <size>")
		return 2
	}

	offset, err := parseUint32(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "invalid offset:", fs.Arg(0))
		return 2
	}
	size, err := parseUint32(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(stderr, "invalid size:", fs.Arg(1))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, df, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "connect:", err)
		return 1
	}
	defer s.Close()

	if err := s.attachFlash(ctx); err != nil {
		fmt.Fprintln(stderr, "attach flash:", err)
		return 1
	}

	if d, ok := s.device.(*serialDevice); ok {
		_ = d.setReadTimeout(longReadTimeout)
	}

	if err := s.fl.EraseRegion(ctx, offset, size); err != nil {
		fmt.Fprintln(stderr, "erase region:", err)
		return 1
	}

	fmt.Fprintf(stdout, "Erased 0x%X..0x%X\n", offset, offset+size)
	return 0
}

func cmdChecksumMD5(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("checksum-md5", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: espbin checksum-md5 [flags] <offset> <size>")
		return 2
	}

	offset, err := parseUint32(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "invalid offset:", fs.Arg(0))
		return 2
	}
	size, err := parseUint32(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(stderr, "invalid size:", fs.Arg(1))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := openSession(ctx, df, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "connect:", err)
		return 1
	}
	defer s.Close()

	if err := s.attachFlash(ctx); err != nil {
		fmt.Fprintln(stderr, "attach flash:", err)
		return 1
	}

	if d, ok := s.device.(*serialDevice); ok {
		_ = d.setReadTimeout(longReadTimeout)
	}

	digest, err := s.fl.FlashDigest(ctx, offset, size)
	if err != nil {
		fmt.Fprintln(stderr, "flash digest:", err)
		return 1
	}

	fmt.Fprintf(stdout, "MD5 of 0x%X..0x%X: %x\n", offset, offset+size, digest)
	return 0
}
