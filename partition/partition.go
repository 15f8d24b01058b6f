package partition

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// Constants for the partition table binary layout.
const (
	// EntrySize is the size of each table row in bytes
	EntrySize = 32

	// EntryMagic marks a partition entry row (bytes 0xAA 0x50 on the wire)
	EntryMagic = 0x50AA

	// ChecksumMagic marks the MD5 checksum row (bytes 0xEB 0xEB on the wire)
	ChecksumMagic = 0xEBEB

	// LabelSize is the size of the NUL-padded label field in bytes
	LabelSize = 16

	// MaxTableSize is the largest table the bootloader reads
	MaxTableSize = 0xC00

	// TableOffset is the conventional flash offset of the table
	TableOffset = 0x8000
)

// Partition types.
const (
	// TypeApp marks partitions holding bootable application images
	TypeApp = 0x00

	// TypeData marks partitions holding data
	TypeData = 0x01
)

// Entry flag bits.
const (
	// FlagEncrypted marks partitions encrypted by flash encryption
	FlagEncrypted = 1 << 0

	// FlagReadOnly marks partitions the running app must not write
	FlagReadOnly = 1 << 1
)

// Entry is one partition table row.
type Entry struct {
	// Type is the partition type (TypeApp or TypeData)
	Type byte

	// SubType refines the type; its meaning depends on Type
	SubType byte

	// Offset is the partition start in flash, in bytes
	Offset uint32

	// Size is the partition length in bytes
	Size uint32

	// Label is the partition name with NUL padding removed
	Label string

	// Flags holds the Flag* bits
	Flags uint32
}

// Encrypted reports whether the partition is covered by flash encryption.
func (e *Entry) Encrypted() bool {
	return e.Flags&FlagEncrypted != 0
}

// ReadOnly reports whether the partition is marked read-only.
func (e *Entry) ReadOnly() bool {
	return e.Flags&FlagReadOnly != 0
}

// TypeName returns the canonical name of the partition type, or the
// hex value for unknown types.
func (e *Entry) TypeName() string {
	switch e.Type {
	case TypeApp:
		return "app"
	case TypeData:
		return "data"
	}
	return fmt.Sprintf("0x%02X", e.Type)
}

// SubTypeName returns the canonical name of the partition subtype, or
// the hex value for unknown subtypes.
func (e *Entry) SubTypeName() string {
	switch e.Type {
	case TypeApp:
		switch {
		case e.SubType == 0x00:
			return "factory"
		case e.SubType >= 0x10 && e.SubType <= 0x1F:
			return fmt.Sprintf("ota_%d", e.SubType-0x10)
		case e.SubType == 0x20:
			return "test"
		}
	case TypeData:
		switch e.SubType {
		case 0x00:
			return "ota"
		case 0x01:
			return "phy"
		case 0x02:
			return "nvs"
		case 0x03:
			return "coredump"
		case 0x04:
			return "nvs_keys"
		case 0x05:
			return "efuse"
		case 0x06:
			return "undefined"
		case 0x80:
			return "esphttpd"
		case 0x81:
			return "fat"
		case 0x82:
			return "spiffs"
		case 0x83:
			return "littlefs"
		}
	}
	return fmt.Sprintf("0x%02X", e.SubType)
}

func (e *Entry) flagNames() string {
	var names []string
	if e.Encrypted() {
		names = append(names, "encrypted")
	}
	if e.ReadOnly() {
		names = append(names, "readonly")
	}
	return strings.Join(names, ":")
}

// Table is a parsed partition table.
type Table struct {
	// Entries are the partition rows in table order
	Entries []*Entry

	// MD5 is the digest from the checksum row, or nil when the table
	// carries none
	MD5 *[md5.Size]byte
}

// Parse parses a binary partition table. The table ends at the first
// all-0xFF terminator row, the end of the data, or the MaxTableSize
// window, whichever comes first. A checksum row, when present, is
// verified against the entries preceding it.
//
// Example:
//
//	table, err := partition.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range table.Entries {
//	    fmt.Printf("%s at 0x%X\n", e.Label, e.Offset)
//	}
func Parse(data []byte) (*Table, error) {
	if len(data) > MaxTableSize {
		data = data[:MaxTableSize]
	}

	table := &Table{}

	for start := 0; start < len(data); start += EntrySize {
		index := start / EntrySize
		rest := data[start:]

		if len(rest) < EntrySize {
			if isErased(rest) {
				break
			}
			return nil, &TruncatedEntryError{Index: index, Len: len(rest)}
		}

		row := rest[:EntrySize]
		if isErased(row) {
			break
		}

		switch binary.LittleEndian.Uint16(row) {
		case EntryMagic:
			table.Entries = append(table.Entries, parseEntry(row))

		case ChecksumMagic:
			var stored [md5.Size]byte
			copy(stored[:], row[EntrySize-md5.Size:])

			computed := md5.Sum(data[:start])
			if computed != stored {
				return nil, &ChecksumMismatchError{Expected: stored, Actual: computed}
			}
			table.MD5 = &stored

		default:
			return nil, &InvalidMagicError{Index: index, Magic: binary.LittleEndian.Uint16(row)}
		}
	}

	if len(table.Entries) == 0 {
		return nil, fmt.Errorf("no partition entries found")
	}

	return table, nil
}

// Load reads and parses a binary partition table from a file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read partition table: %w", err)
	}
	return Parse(data)
}

// Find returns the entry with the given label, or nil.
func (t *Table) Find(label string) *Entry {
	for _, e := range t.Entries {
		if e.Label == label {
			return e
		}
	}
	return nil
}

// FindBySubType returns the first entry with the given type and
// subtype, or nil.
func (t *Table) FindBySubType(typ, subType byte) *Entry {
	for _, e := range t.Entries {
		if e.Type == typ && e.SubType == subType {
			return e
		}
	}
	return nil
}

// String renders the table as an aligned, human-readable listing.
func (t *Table) String() string {
	var sb strings.Builder

	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTYPE\tSUBTYPE\tOFFSET\tSIZE\tFLAGS")
	for _, e := range t.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t0x%X\t0x%X\t%s\n",
			e.Label, e.TypeName(), e.SubTypeName(), e.Offset, e.Size, e.flagNames())
	}
	w.Flush()

	return sb.String()
}

// ToCSV renders the table in the CSV dialect the ESP-IDF partition
// tools consume.
func (t *Table) ToCSV() string {
	var sb strings.Builder

	sb.WriteString("# ESP-IDF Partition Table\n")
	sb.WriteString("# Name, Type, SubType, Offset, Size, Flags\n")
	for _, e := range t.Entries {
		fmt.Fprintf(&sb, "%s,%s,%s,0x%x,0x%x,%s\n",
			e.Label, e.TypeName(), e.SubTypeName(), e.Offset, e.Size, e.flagNames())
	}

	return sb.String()
}

// parseEntry decodes one entry row. The row is known to carry the
// entry magic and be EntrySize long.
func parseEntry(row []byte) *Entry {
	label := row[12 : 12+LabelSize]
	if i := bytes.IndexByte(label, 0); i >= 0 {
		label = label[:i]
	}

	return &Entry{
		Type:    row[2],
		SubType: row[3],
		Offset:  binary.LittleEndian.Uint32(row[4:]),
		Size:    binary.LittleEndian.Uint32(row[8:]),
		Label:   string(label),
		Flags:   binary.LittleEndian.Uint32(row[28:]),
	}
}

// isErased reports whether every byte is 0xFF, the erased state of
// flash marking the end of the table.
func isErased(data []byte) bool {
	for _, b := range data {
		if b != 0xFF {
			return false
		}
	}
	return true
}
