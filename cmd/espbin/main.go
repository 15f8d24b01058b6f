// Command espbin inspects and flashes ESP application images.
//
// The image commands run entirely on the host. The device commands talk
// to a chip's ROM serial loader over a local serial port, or over a
// tcp:host:port serial bridge.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "image-info":
		return cmdImageInfo(args[1:], stdout, stderr)
	case "extract":
		return cmdExtract(args[1:], stdout, stderr)
	case "save-image":
		return cmdSaveImage(args[1:], stdout, stderr)
	case "partition-table":
		return cmdPartitionTable(args[1:], stdout, stderr)
	case "board-info":
		return cmdBoardInfo(args[1:], stdout, stderr)
	case "flash":
		return cmdFlash(args[1:], stdout, stderr)
	case "load-ram":
		return cmdLoadRAM(args[1:], stdout, stderr)
	case "write-bin":
		return cmdWriteBin(args[1:], stdout, stderr)
	case "read-flash":
		return cmdReadFlash(args[1:], stdout, stderr)
	case "erase-flash":
		return cmdEraseFlash(args[1:], stdout, stderr)
	case "erase-region":
		return cmdEraseRegion(args[1:], stdout, stderr)
	case "checksum-md5":
		return cmdChecksumMD5(args[1:], stdout, stderr)
	case "monitor":
		return cmdMonitor(args[1:], stdout, stderr)
	case "reset":
		return cmdReset(args[1:], stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintln(stderr, "unknown command:", args[0])
		printUsage(stderr)
		return 2
	}
}

// parseUint32 accepts decimal and prefixed (0x, 0o, 0b) forms.
func parseUint32(value string) (uint32, error) {
	n, err := strconv.ParseUint(value, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  espbin <command> [flags] [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Image commands:")
	fmt.Fprintln(w, "  image-info <image>                print entry point and segment table")
	fmt.Fprintln(w, "  extract <image> <index> <out>     write one segment payload to a file")
	fmt.Fprintln(w, "  save-image <elf> <out>            convert an ELF executable to an application image")
	fmt.Fprintln(w, "  partition-table <table> [--to-csv]")
	fmt.Fprintln(w, "                                    print or convert an ESP-IDF partition table")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Device commands (accept --port, --baud, --config, --retries, --no-reset, --verbose):")
	fmt.Fprintln(w, "  board-info                        connect and identify the chip")
	fmt.Fprintln(w, "  flash <image> [--no-compress] [--no-verify]")
	fmt.Fprintln(w, "                                    write every image segment to flash")
	fmt.Fprintln(w, "  load-ram <image>                  load an image into RAM and run it")
	fmt.Fprintln(w, "  write-bin <offset> <file> [--no-compress]")
	fmt.Fprintln(w, "                                    write a raw file to flash at offset")
	fmt.Fprintln(w, "  read-flash <offset> <size> <out>  read a flash region to a file")
	fmt.Fprintln(w, "  erase-flash                       erase the entire flash chip")
	fmt.Fprintln(w, "  erase-region <offset> <size>      erase a sector-aligned flash region")
	fmt.Fprintln(w, "  checksum-md5 <offset> <size>      print the MD5 digest of a flash region")
	fmt.Fprintln(w, "  monitor                           echo serial output until interrupted")
	fmt.Fprintln(w, "  reset                             hard-reset the chip via DTR/RTS")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Ports are serial device paths, or tcp:host:port for a remote serial bridge.")
	fmt.Fprintln(w, "Defaults come from espbin.toml when it exists; flags override the file.")
}
