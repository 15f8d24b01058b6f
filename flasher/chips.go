package flasher

import "github.com/moffa90/go-espbin/protocol"

// ChipMagicAddr is the address of the register whose reset value
// identifies the chip family. It is readable before chip detection on
// every supported part.
const ChipMagicAddr = 0x40001000

// Chip describes one chip family and the quirks of its ROM loader.
type Chip struct {
	// Name is the marketing name, e.g. "ESP32-C3"
	Name string

	// StatusLen is the status trailer length the ROM appends to responses
	StatusLen int

	// SupportsEncryption selects the extended FLASH_BEGIN layout with
	// the trailing encryption word
	SupportsEncryption bool

	// SupportsCompression reports whether the ROM implements the
	// FLASH_DEFL command set
	SupportsCompression bool

	// EraseQuirk marks ROMs whose FLASH_BEGIN erase size must be
	// corrected for a sector accounting bug
	EraseQuirk bool

	// magics holds the known ChipMagicAddr values for this family
	magics []uint32
}

func (c *Chip) String() string {
	return c.Name
}

func (c *Chip) hasMagic(magic uint32) bool {
	for _, m := range c.magics {
		if m == magic {
			return true
		}
	}
	return false
}

// Chip profiles for the supported families.
var (
	ESP8266 = &Chip{
		Name:       "ESP8266",
		StatusLen:  protocol.StatusSizeBasic,
		EraseQuirk: true,
		magics:     []uint32{0xFFF0C101},
	}

	ESP32 = &Chip{
		Name:                "ESP32",
		StatusLen:           protocol.StatusSizeExtended,
		SupportsCompression: true,
		magics:              []uint32{0x00F01D83},
	}

	ESP32S2 = &Chip{
		Name:                "ESP32-S2",
		StatusLen:           protocol.StatusSizeExtended,
		SupportsEncryption:  true,
		SupportsCompression: true,
		magics:              []uint32{0x000007C6},
	}

	ESP32S3 = &Chip{
		Name:                "ESP32-S3",
		StatusLen:           protocol.StatusSizeExtended,
		SupportsEncryption:  true,
		SupportsCompression: true,
		magics:              []uint32{0x00000009},
	}

	ESP32C3 = &Chip{
		Name:                "ESP32-C3",
		StatusLen:           protocol.StatusSizeExtended,
		SupportsEncryption:  true,
		SupportsCompression: true,
		magics:              []uint32{0x6921506F, 0x1B31506F},
	}
)

// Chips lists every profile DetectChip recognizes.
var Chips = []*Chip{ESP8266, ESP32, ESP32S2, ESP32S3, ESP32C3}

// chipByMagic returns the profile matching a magic register value, or
// nil when the value is unknown.
func chipByMagic(magic uint32) *Chip {
	for _, c := range Chips {
		if c.hasMagic(magic) {
			return c
		}
	}
	return nil
}
