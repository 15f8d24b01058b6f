package protocol

// ChecksumSeed is the initial value of the payload checksum.
const ChecksumSeed = 0xEF

// Checksum computes the 8-bit XOR checksum over a block payload.
// Starts from ChecksumSeed and folds in every byte.
//
// Only the data commands (OpFlashData, OpMemData, OpFlashDeflData)
// carry a meaningful checksum, computed over the block bytes alone,
// excluding the 16-byte data header. All other commands send zero in
// the checksum field and the loader ignores it.
func Checksum(data []byte) byte {
	sum := byte(ChecksumSeed)
	for _, b := range data {
		sum ^= b
	}
	return sum
}
