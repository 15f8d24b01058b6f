// Package espbin provides read-only decoding of ESP-family application
// image binaries.
//
// # Image Format
//
// An application image is a fixed-size header followed by back-to-back
// code segment records. All multi-byte fields are little-endian.
//
// Header (24 bytes):
//
//	[EntryPoint(4)][SegmentCount(1)][Reserved(19)]
//
//	Offset 0: entry point, the address the chip jumps to after load
//	Offset 4: number of segment records that follow
//	Offset 5: vendor metadata (flash parameters, chip ID, padding),
//	          opaque to this package
//
// Segment record (8-byte header + payload), repeated SegmentCount times
// with no padding between records:
//
//	[Address(4)][Length(4)][Payload(Length)]
//
//	Offset 0: destination load address
//	Offset 4: payload byte length
//	Offset 8: raw payload bytes
//
// # Usage
//
// Decode an image already held in memory:
//
//	img, err := espbin.New(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	entry, _ := img.Entry()
//	fmt.Printf("Entry point: 0x%08X\n", entry)
//
//	segs := img.Segments()
//	for segs.Scan() {
//	    seg := segs.Segment()
//	    fmt.Printf("Segment at 0x%08X: %d bytes\n", seg.Addr, len(seg.Data))
//	}
//	if err := segs.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// Or load from disk:
//
//	img, err := espbin.Load("app.bin")
//
// # Zero-Copy Contract
//
// The decoder never copies payload bytes. Every CodeSegment borrows
// directly from the buffer handed to New, so that buffer must stay alive
// and unmodified for as long as any segment derived from it is in use.
// The decoder itself never mutates the buffer, and independent segment
// streams over the same buffer are safe to drive from multiple
// goroutines.
//
// # Error Handling
//
// Decoding failures are structural and carry position context:
//   - TruncatedHeaderError: buffer shorter than the 24-byte header
//   - TruncatedSegmentHeaderError: record header runs past the buffer
//   - TruncatedPayloadError: declared payload length runs past the buffer
//
// A segment stream stops at the first violation and reports it through
// Err; segments produced before the failing record remain valid.
package espbin
