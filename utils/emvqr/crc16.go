package emvqr

import "fmt"

// Checksum computes CRC-16/CCITT-FALSE over data: register seeded 0xFFFF,
// polynomial 0x1021, each byte XOR-ed into the high register byte then shifted
// eight times, no final XOR. Rendered as 4 uppercase hex digits, the format the
// trailing QR field carries.
func Checksum(data string) string {
	crc := uint16(0xFFFF)

	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}

	return fmt.Sprintf("%04X", crc)
}
