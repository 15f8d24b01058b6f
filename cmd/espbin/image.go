package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/moffa90/go-espbin/espbin"
	"github.com/moffa90/go-espbin/partition"
)

// openImage loads a firmware image in either supported container,
// picked by file extension. The returned closer releases the mapping
// backing a binary image; segments must not be used after calling it.
func openImage(path string) (espbin.FirmwareImage, func() error, error) {
	if isHexPath(path) {
		img, err := espbin.LoadHex(path)
		if err != nil {
			return nil, nil, err
		}
		return img, func() error { return nil }, nil
	}
	img, err := espbin.Map(path)
	if err != nil {
		return nil, nil, err
	}
	return img, img.Close, nil
}

func isHexPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".hex" || ext == ".ihex"
}

func cmdImageInfo(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("image-info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: espbin image-info <image>")
		return 2
	}

	if isHexPath(fs.Arg(0)) {
		return hexImageInfo(fs.Arg(0), stdout, stderr)
	}
	return binImageInfo(fs.Arg(0), stdout, stderr)
}

func binImageInfo(path string, stdout, stderr io.Writer) int {
	img, err := espbin.Map(path)
	if err != nil {
		fmt.Fprintln(stderr, "load image:", err)
		return 1
	}
	defer img.Close()

	entry, err := img.Entry()
	if err != nil {
		fmt.Fprintln(stderr, "decode image:", err)
		return 1
	}

	fmt.Fprintf(stdout, "Image:       %s (%d bytes)\n", path, img.Size())
	fmt.Fprintf(stdout, "Entry point: 0x%08X\n", entry)
	fmt.Fprintf(stdout, "Segments:    %d\n\n", img.SegmentCount())

	// The concrete scanner exposes the cursor, which gives each
	// record's file offset and the total consumed at the end.
	segs := img.Segments().(*espbin.SegmentScanner)

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tADDR\tSIZE\tOFFSET")
	for i := 0; ; i++ {
		offset := segs.Offset()
		if !segs.Scan() {
			break
		}
		seg := segs.Segment()
		fmt.Fprintf(tw, "%d\t0x%08X\t%d\t0x%X\n", i, seg.Addr, len(seg.Data), offset)
	}
	tw.Flush()

	if err := segs.Err(); err != nil {
		fmt.Fprintln(stderr, "decode image:", err)
		return 1
	}

	if trailing := int64(img.Size()) - segs.Offset(); trailing > 0 {
		fmt.Fprintf(stdout, "\n%d trailing bytes after the last segment (checksum and padding)\n", trailing)
	}
	return 0
}

func hexImageInfo(path string, stdout, stderr io.Writer) int {
	img, err := espbin.LoadHex(path)
	if err != nil {
		fmt.Fprintln(stderr, "load image:", err)
		return 1
	}

	fmt.Fprintf(stdout, "Image:       %s (Intel HEX)\n", path)
	if entry, err := img.Entry(); err == nil {
		fmt.Fprintf(stdout, "Entry point: 0x%08X\n", entry)
	} else {
		fmt.Fprintln(stdout, "Entry point: (no start address record)")
	}
	fmt.Fprintf(stdout, "Segments:    %d\n\n", img.SegmentCount())

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tADDR\tSIZE")
	iter := img.Segments()
	for i := 0; iter.Scan(); i++ {
		seg := iter.Segment()
		fmt.Fprintf(tw, "%d\t0x%08X\t%d\n", i, seg.Addr, len(seg.Data))
	}
	tw.Flush()
	return 0
}

func cmdExtract(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(stderr, "usage: espbin extract <image> <index> <out>")
		return 2
	}

	index, err := strconv.Atoi(fs.Arg(1))
	if err != nil || index < 0 {
		fmt.Fprintln(stderr, "invalid segment index:", fs.Arg(1))
		return 2
	}

	img, closeImg, err := openImage(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "load image:", err)
		return 1
	}
	defer closeImg()

	iter := img.Segments()
	for i := 0; iter.Scan(); i++ {
		if i != index {
			continue
		}
		seg := iter.Segment()
		if err := os.WriteFile(fs.Arg(2), seg.Data, 0o644); err != nil {
			fmt.Fprintln(stderr, "write segment:", err)
			return 1
		}
		fmt.Fprintf(stdout, "Wrote segment %d (%d bytes @ 0x%08X) to %s\n",
			index, len(seg.Data), seg.Addr, fs.Arg(2))
		return 0
	}
	if err := iter.Err(); err != nil {
		fmt.Fprintln(stderr, "decode image:", err)
		return 1
	}

	fmt.Fprintf(stderr, "segment %d out of range\n", index)
	return 1
}

func cmdSaveImage(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("save-image", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: espbin save-image <elf> <out>")
		return 2
	}

	entry, segments, err := espbin.LoadELF(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "load ELF:", err)
		return 1
	}

	data, err := espbin.Assemble(entry, segments)
	if err != nil {
		fmt.Fprintln(stderr, "assemble image:", err)
		return 1
	}

	if err := os.WriteFile(fs.Arg(1), data, 0o644); err != nil {
		fmt.Fprintln(stderr, "write image:", err)
		return 1
	}

	fmt.Fprintf(stdout, "Wrote %s: entry 0x%08X, %d segments, %d bytes\n",
		fs.Arg(1), entry, len(segments), len(data))
	return 0
}

func cmdPartitionTable(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("partition-table", flag.ContinueOnError)
	fs.SetOutput(stderr)
	toCSV := fs.Bool("to-csv", false, "emit gen_esp32part CSV instead of a table")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: espbin partition-table [--to-csv] <table>")
		return 2
	}

	table, err := partition.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, "read partition table:", err)
		return 1
	}

	if *toCSV {
		io.WriteString(stdout, table.ToCSV())
		return 0
	}

	io.WriteString(stdout, table.String())
	if table.MD5 != nil {
		fmt.Fprintf(stdout, "\nMD5 checksum verified (%x)\n", table.MD5[:])
	}
	return 0
}
