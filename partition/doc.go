// Package partition provides read-only parsing of ESP-IDF partition
// tables.
//
// # Table Format
//
// The partition table lives in flash, conventionally at offset 0x8000,
// and occupies at most 0xC00 bytes. It is a sequence of 32-byte rows;
// all multi-byte fields are little-endian.
//
// Entry row:
//
//	[Magic(2)=AA 50][Type(1)][SubType(1)][Offset(4)][Size(4)][Label(16)][Flags(4)]
//
//	The label is NUL-padded. Flag bit 0 marks the partition encrypted,
//	bit 1 marks it read-only.
//
// Checksum row (optional, after the entries):
//
//	[Magic(2)=EB EB][Padding(14)=FF..][MD5(16)]
//
//	The digest covers every table byte before this row.
//
// The table ends at the first all-0xFF row, the erased state of flash.
//
// # Usage
//
// Parse a table read from flash or from a file:
//
//	table, err := partition.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, e := range table.Entries {
//	    fmt.Printf("%-16s %s/%s at 0x%X, %d bytes\n",
//	        e.Label, e.TypeName(), e.SubTypeName(), e.Offset, e.Size)
//	}
//
//	if nvs := table.Find("nvs"); nvs != nil {
//	    fmt.Printf("NVS partition at 0x%X\n", nvs.Offset)
//	}
//
// Render it for humans or for the ESP-IDF partition tools:
//
//	fmt.Print(table.String())
//	os.WriteFile("partitions.csv", []byte(table.ToCSV()), 0644)
//
// # Error Handling
//
// Parse returns typed errors for structural problems:
//   - *InvalidMagicError for rows starting with an unknown magic
//   - *TruncatedEntryError for tables ending mid-row
//   - *ChecksumMismatchError when the digest row does not match the
//     entries
//
// Writing tables (CSV to binary conversion) is out of scope; this
// package is the read side only.
package partition
