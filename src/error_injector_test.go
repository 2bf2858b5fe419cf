package nibblelink

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestInjectorZeroRateIsPassThrough(t *testing.T) {
	var inj = new_seeded_injector(0, 1)

	rapid.Check(t, func(t *rapid.T) {
		var b = rapid.Byte().Draw(t, "b")
		assert.Equal(t, b, inj.Inject(b))
	})
}

func TestInjectorFullRateFlipsExactlyOneBit(t *testing.T) {
	var inj = new_seeded_injector(100, 2)

	for i := 0; i < 256; i++ {
		var in = byte(i)
		var out = inj.Inject(in)
		assert.Equal(t, 1, bits.OnesCount8(in^out), "exactly one bit flipped")
	}
}

func TestInjectorRateIsRoughlyHonored(t *testing.T) {
	var inj = new_seeded_injector(50, 3)

	var flipped = 0
	const trials = 2000
	for i := 0; i < trials; i++ {
		if inj.Inject(0x00) != 0x00 {
			flipped++
		}
	}

	// Loose bounds; this is a sanity check, not a statistics exam.
	assert.Greater(t, flipped, trials/3)
	assert.Less(t, flipped, 2*trials/3)
}
