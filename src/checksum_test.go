package nibblelink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Bitwise reference implementation, straight from the definition.
func crc8_reference(data byte) byte {
	var crc = CRC8_INIT ^ data
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = (crc << 1) ^ CRC8_POLY
		} else {
			crc <<= 1
		}
	}
	return crc
}

func TestCRC8KnownValues(t *testing.T) {
	tests := []struct {
		name string
		data byte
		want byte
	}{
		{"zero byte", 0x00, 0xF3},
		{"one", 0x01, 0xF4},
		{"all ones", 0xFF, 0x00},
		{"EOT control byte", EOT_BYTE, 0xEF},
		{"ascii h", 'h', 0xEC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, crc8(tt.data), "crc8(0x%02x)", tt.data)
		})
	}
}

func TestCRC8TableMatchesReference(t *testing.T) {
	for n := 0; n < 256; n++ {
		assert.Equal(t, crc8_reference(byte(n)), crc8(byte(n)), "crc8(0x%02x)", n)
	}
}

// Every single-bit corruption of a byte must change its CRC; the code
// is linear, so a lone bit flip always leaves a nonzero syndrome.
func TestCRC8DetectsAllSingleBitFlips(t *testing.T) {
	for n := 0; n < 256; n++ {
		for bit := 0; bit < 8; bit++ {
			var corrupted = byte(n) ^ (1 << bit)
			assert.NotEqual(t, crc8(byte(n)), crc8(corrupted),
				"flip of bit %d in 0x%02x went undetected", bit, n)
		}
	}
}

func Test_crc8_exported(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var b = rapid.Byte().Draw(t, "b")
		assert.Equal(t, crc8(b), CRC8(b))
	})
}
