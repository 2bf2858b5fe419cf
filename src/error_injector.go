package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	Single-bit error injection for exercising the NAK and
 *		retry paths without real line noise.
 *
 * Description:	Applied to the received data byte between the framer
 *		and the checksum verify.  On real hardware there is
 *		nothing to inject; the rate stays at zero and this is
 *		a pass-through.
 *
 *------------------------------------------------------------------*/

import (
	"math/rand"
	"sync"
	"time"
)

type ErrorInjector struct {
	mu   sync.Mutex
	rate int /* percent, 0..100 */
	rng  *rand.Rand
}

func NewErrorInjector(rate int) *ErrorInjector {
	return &ErrorInjector{
		rate: rate,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// new_seeded_injector gives the tests a deterministic instance.
func new_seeded_injector(rate int, seed int64) *ErrorInjector {
	return &ErrorInjector{
		rate: rate,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

func (e *ErrorInjector) SetErrorRate(rate int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rate = rate
	if rate > 0 {
		text_color_set(DW_COLOR_INFO)
		dw_printf("[ERROR-INJECTOR] Error rate set to %d%%\n", rate)
	}
}

func (e *ErrorInjector) Inject(data byte) byte {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rate > 0 && e.rng.Intn(100) < e.rate {
		var bit = e.rng.Intn(8)
		var corrupted = data ^ (1 << bit)
		text_color_set(DW_COLOR_DEBUG)
		dw_printf("  [ERROR!] Bit %d flipped: %08b -> %08b\n", bit, data, corrupted)
		return corrupted
	}

	return data
}
