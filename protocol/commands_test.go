package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// checkCommandHeader validates the fixed header of a command body.
func checkCommandHeader(t *testing.T, body []byte, op byte, dataLen int) {
	t.Helper()

	if len(body) != CommandHeaderSize+dataLen {
		t.Fatalf("body length = %d, want %d", len(body), CommandHeaderSize+dataLen)
	}

	if body[0] != DirectionCommand {
		t.Errorf("DIR = 0x%02X, want 0x%02X", body[0], DirectionCommand)
	}

	if body[1] != op {
		t.Errorf("OP = 0x%02X, want 0x%02X", body[1], op)
	}

	if got := binary.LittleEndian.Uint16(body[2:4]); got != uint16(dataLen) {
		t.Errorf("LEN = %d, want %d", got, dataLen)
	}
}

// commandWords extracts the data section of a command body as 32-bit words.
func commandWords(t *testing.T, body []byte) []uint32 {
	t.Helper()

	data := body[CommandHeaderSize:]
	if len(data)%4 != 0 {
		t.Fatalf("data length %d is not word aligned", len(data))
	}

	words := make([]uint32, 0, len(data)/4)
	for i := 0; i < len(data); i += 4 {
		words = append(words, binary.LittleEndian.Uint32(data[i:i+4]))
	}
	return words
}

func TestBuildSyncCmd(t *testing.T) {
	body, err := BuildSyncCmd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpSync, 36)

	if got := binary.LittleEndian.Uint32(body[4:8]); got != 0 {
		t.Errorf("CHECKSUM = 0x%08X, want 0", got)
	}

	data := body[CommandHeaderSize:]
	if !bytes.Equal(data[:4], []byte{0x07, 0x07, 0x12, 0x20}) {
		t.Errorf("sync preamble = % X, want 07 07 12 20", data[:4])
	}
	if !bytes.Equal(data[4:], bytes.Repeat([]byte{0x55}, 32)) {
		t.Errorf("sync filler = % X, want 32 bytes of 0x55", data[4:])
	}
}

func TestBuildFlashBeginCmd(t *testing.T) {
	tests := []struct {
		name               string
		supportsEncryption bool
		wantWords          []uint32
	}{
		{
			name:      "without encryption word",
			wantWords: []uint32{0x10000, 64, FlashBlockSize, 0x8000},
		},
		{
			name:               "with encryption word",
			supportsEncryption: true,
			wantWords:          []uint32{0x10000, 64, FlashBlockSize, 0x8000, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := BuildFlashBeginCmd(0x10000, 64, FlashBlockSize, 0x8000, tt.supportsEncryption)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			checkCommandHeader(t, body, OpFlashBegin, len(tt.wantWords)*4)

			words := commandWords(t, body)
			for i, want := range tt.wantWords {
				if words[i] != want {
					t.Errorf("word %d = 0x%08X, want 0x%08X", i, words[i], want)
				}
			}
		})
	}
}

func TestBuildFlashDataCmd(t *testing.T) {
	tests := []struct {
		name    string
		block   []byte
		seq     uint32
		wantErr bool
		errMsg  string
	}{
		{
			name:  "valid block",
			block: []byte{0xDE, 0xAD, 0xBE, 0xEF},
			seq:   7,
		},
		{
			name:  "full block",
			block: bytes.Repeat([]byte{0xA5}, FlashBlockSize),
			seq:   0,
		},
		{
			name:    "empty block",
			block:   nil,
			wantErr: true,
			errMsg:  "block cannot be empty",
		},
		{
			name:    "oversized block",
			block:   make([]byte, MaxCommandData),
			wantErr: true,
			errMsg:  "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := BuildFlashDataCmd(tt.block, tt.seq)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !bytes.Contains([]byte(err.Error()), []byte(tt.errMsg)) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			checkCommandHeader(t, body, OpFlashData, DataHeaderSize+len(tt.block))

			// Checksum field covers the block bytes only
			if got := binary.LittleEndian.Uint32(body[4:8]); got != uint32(Checksum(tt.block)) {
				t.Errorf("CHECKSUM = 0x%08X, want 0x%08X", got, uint32(Checksum(tt.block)))
			}

			data := body[CommandHeaderSize:]
			if got := binary.LittleEndian.Uint32(data[0:4]); got != uint32(len(tt.block)) {
				t.Errorf("BLOCK_LEN = %d, want %d", got, len(tt.block))
			}
			if got := binary.LittleEndian.Uint32(data[4:8]); got != tt.seq {
				t.Errorf("SEQ = %d, want %d", got, tt.seq)
			}
			if !bytes.Equal(data[DataHeaderSize:], tt.block) {
				t.Errorf("block bytes do not match input")
			}
		})
	}
}

func TestBuildFlashEndCmd(t *testing.T) {
	tests := []struct {
		name     string
		reboot   bool
		wantWord uint32
	}{
		{name: "reboot", reboot: true, wantWord: 0},
		{name: "stay in loader", reboot: false, wantWord: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := BuildFlashEndCmd(tt.reboot)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			checkCommandHeader(t, body, OpFlashEnd, 4)

			if words := commandWords(t, body); words[0] != tt.wantWord {
				t.Errorf("STAY_FLAG = %d, want %d", words[0], tt.wantWord)
			}
		})
	}
}

func TestBuildMemBeginCmd(t *testing.T) {
	body, err := BuildMemBeginCmd(0x3000, 2, RAMBlockSize, 0x40080000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpMemBegin, 16)

	want := []uint32{0x3000, 2, RAMBlockSize, 0x40080000}
	words := commandWords(t, body)
	for i, w := range want {
		if words[i] != w {
			t.Errorf("word %d = 0x%08X, want 0x%08X", i, words[i], w)
		}
	}
}

func TestBuildMemDataCmd(t *testing.T) {
	block := []byte{0x01, 0x02, 0x03}
	body, err := BuildMemDataCmd(block, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpMemData, DataHeaderSize+len(block))

	if got := binary.LittleEndian.Uint32(body[4:8]); got != uint32(Checksum(block)) {
		t.Errorf("CHECKSUM = 0x%08X, want 0x%08X", got, uint32(Checksum(block)))
	}
}

func TestBuildMemEndCmd(t *testing.T) {
	tests := []struct {
		name      string
		entry     uint32
		wantWords []uint32
	}{
		{
			name:      "jump to entry point",
			entry:     0x40080000,
			wantWords: []uint32{0, 0x40080000},
		},
		{
			name:      "stay in loader",
			entry:     0,
			wantWords: []uint32{1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := BuildMemEndCmd(tt.entry)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			checkCommandHeader(t, body, OpMemEnd, 8)

			words := commandWords(t, body)
			for i, want := range tt.wantWords {
				if words[i] != want {
					t.Errorf("word %d = 0x%08X, want 0x%08X", i, words[i], want)
				}
			}
		})
	}
}

func TestBuildWriteRegCmd(t *testing.T) {
	body, err := BuildWriteRegCmd(0x60000914, 0x73, 0xFFFFFFFF, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpWriteReg, 16)

	want := []uint32{0x60000914, 0x73, 0xFFFFFFFF, 0}
	words := commandWords(t, body)
	for i, w := range want {
		if words[i] != w {
			t.Errorf("word %d = 0x%08X, want 0x%08X", i, words[i], w)
		}
	}
}

func TestBuildReadRegCmd(t *testing.T) {
	body, err := BuildReadRegCmd(0x40001000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpReadReg, 4)

	if words := commandWords(t, body); words[0] != 0x40001000 {
		t.Errorf("ADDR = 0x%08X, want 0x40001000", words[0])
	}
}

func TestBuildSpiSetParamsCmd(t *testing.T) {
	body, err := BuildSpiSetParamsCmd(0x400000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpSpiSetParams, 24)

	want := []uint32{0, 0x400000, Flash64KBlockSize, FlashSectorSize, FlashPageSize, FlashStatusMask}
	words := commandWords(t, body)
	for i, w := range want {
		if words[i] != w {
			t.Errorf("word %d = 0x%08X, want 0x%08X", i, words[i], w)
		}
	}
}

func TestBuildSpiAttachCmd(t *testing.T) {
	body, err := BuildSpiAttachCmd(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The ROM loader requires the trailing zero word
	checkCommandHeader(t, body, OpSpiAttach, 8)

	words := commandWords(t, body)
	if words[0] != 0 || words[1] != 0 {
		t.Errorf("words = %v, want [0 0]", words)
	}
}

func TestBuildChangeBaudrateCmd(t *testing.T) {
	body, err := BuildChangeBaudrateCmd(921600, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpChangeBaudrate, 8)

	words := commandWords(t, body)
	if words[0] != 921600 {
		t.Errorf("NEW_RATE = %d, want 921600", words[0])
	}
	if words[1] != 0 {
		t.Errorf("OLD_RATE = %d, want 0", words[1])
	}
}

func TestBuildSpiFlashMD5Cmd(t *testing.T) {
	body, err := BuildSpiFlashMD5Cmd(0x10000, 0x4000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpSpiFlashMD5, 16)

	want := []uint32{0x10000, 0x4000, 0, 0}
	words := commandWords(t, body)
	for i, w := range want {
		if words[i] != w {
			t.Errorf("word %d = 0x%08X, want 0x%08X", i, words[i], w)
		}
	}
}

func TestBuildEraseRegionCmd(t *testing.T) {
	tests := []struct {
		name    string
		offset  uint32
		size    uint32
		wantErr bool
		errMsg  string
	}{
		{
			name:   "sector aligned",
			offset: 0x10000,
			size:   0x2000,
		},
		{
			name:    "unaligned offset",
			offset:  0x10001,
			size:    0x2000,
			wantErr: true,
			errMsg:  "offset 0x10001 is not a multiple",
		},
		{
			name:    "unaligned size",
			offset:  0x10000,
			size:    0x1800,
			wantErr: true,
			errMsg:  "size 0x1800 is not a multiple",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := BuildEraseRegionCmd(tt.offset, tt.size)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !bytes.Contains([]byte(err.Error()), []byte(tt.errMsg)) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			checkCommandHeader(t, body, OpEraseRegion, 8)

			words := commandWords(t, body)
			if words[0] != tt.offset || words[1] != tt.size {
				t.Errorf("words = %v, want [0x%X 0x%X]", words, tt.offset, tt.size)
			}
		})
	}
}

func TestBuildReadFlashCmd(t *testing.T) {
	body, err := BuildReadFlashCmd(0x8000, 0xC00, FlashSectorSize, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkCommandHeader(t, body, OpReadFlash, 16)

	want := []uint32{0x8000, 0xC00, FlashSectorSize, 64}
	words := commandWords(t, body)
	for i, w := range want {
		if words[i] != w {
			t.Errorf("word %d = 0x%08X, want 0x%08X", i, words[i], w)
		}
	}
}

func TestBuildBareCommands(t *testing.T) {
	tests := []struct {
		name  string
		build func() ([]byte, error)
		op    byte
	}{
		{name: "erase flash", build: BuildEraseFlashCmd, op: OpEraseFlash},
		{name: "run user code", build: BuildRunUserCodeCmd, op: OpRunUserCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := tt.build()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			checkCommandHeader(t, body, tt.op, 0)
		})
	}
}

func BenchmarkBuildFlashDataCmd(b *testing.B) {
	block := make([]byte, FlashBlockSize)
	for i := range block {
		block[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildFlashDataCmd(block, uint32(i))
	}
}
