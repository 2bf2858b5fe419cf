package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	The link proper: nibble I/O, the handshake-synchronized
 *		2-bit symbol exchange, and the byte framer.
 *
 * Description:	There is no shared clock between the nodes.  Each 2-bit
 *		symbol is clocked by a toggle on the CLOCK line and
 *		confirmed by a toggle on the ACK line, so a symbol is a
 *		synchronous rendezvous: the sender blocks for the ack
 *		edge, the receiver blocks for the clock edge.
 *
 *		All handshake state is edge-oriented.  Both sides seed
 *		their "last seen" levels from one input sample at
 *		startup, which makes the first symbol edge-sensitive
 *		instead of level-sensitive.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

type Link struct {
	name    string
	port    PortDriver
	verbose bool
	logger  *charmlog.Logger

	stats    *Stats
	injector *ErrorInjector

	port_mu sync.Mutex /* one register op at a time */

	/* Transmitter handshake state. */
	tx_clock         byte
	tx_last_seen_ack byte

	/* Receiver handshake state. */
	rx_ack             byte
	rx_last_seen_clock byte

	poll_iterations  int
	poll_interval_us int
}

/*------------------------------------------------------------------
 *
 * Name:	NewLink
 *
 * Purpose:	Configure the port, settle, and seed the handshake
 *		state from one input sample.
 *
 * Inputs:	name	- Node identity, "A" or "B".  Also used for the
 *			  received-message file name.
 *		port	- Port driver (GPIO bank or a patch cable).
 *		cfg	- Timing parameters; nil for protocol defaults.
 *
 *------------------------------------------------------------------*/

func NewLink(name string, port PortDriver, cfg *Config, stats *Stats, injector *ErrorInjector, verbose bool) (*Link, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if stats == nil {
		stats = NewStats()
	}
	if injector == nil {
		injector = NewErrorInjector(0)
	}

	var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{Prefix: "link." + name})
	if verbose {
		logger.SetLevel(charmlog.DebugLevel)
	}

	var l = &Link{
		name:             name,
		port:             port,
		verbose:          verbose,
		logger:           logger,
		stats:            stats,
		injector:         injector,
		poll_iterations:  cfg.PollIterations,
		poll_interval_us: cfg.PollIntervalUS,
	}

	if err := port.SetDirectionRegister(0x0F); err != nil {
		return nil, fmt.Errorf("configuring port direction: %w", err)
	}

	port.DelayMS(cfg.SettleMS)

	if err := l.write_output(0); err != nil {
		return nil, fmt.Errorf("zeroing output nibble: %w", err)
	}

	port.DelayMS(cfg.PostZeroMS)

	// One sample seeds both edge detectors so the first symbol in
	// either direction reacts to a change, not a level.
	var initial, err = l.read_input()
	if err != nil {
		return nil, fmt.Errorf("seeding handshake state: %w", err)
	}
	l.rx_last_seen_clock = initial & LINE_CLOCK
	l.tx_last_seen_ack = initial & LINE_ACK

	text_color_set(DW_COLOR_INFO)
	dw_printf("[%s] Link initialized (direction 0x0F: bits 0-3 out, 4-7 in)\n", name)

	return l, nil
}

func (l *Link) Name() string {
	return l.name
}

func (l *Link) Stats() *Stats {
	return l.stats
}

func (l *Link) Close() error {
	return l.port.Close()
}

/*------------------------------------------------------------------
 *
 * Name:	write_output
 *
 * Purpose:	Write the low four bits of the output latch, leaving
 *		the high four bits alone.
 *
 * Description:	Read-modify-write because the direction register only
 *		designates the low pins as ours; unrelated bits of the
 *		latch must not be disturbed.
 *
 *------------------------------------------------------------------*/

func (l *Link) write_output(data byte) error {
	l.port_mu.Lock()
	defer l.port_mu.Unlock()

	var current, readErr = l.port.ReadRegister(REG_OUTPUT)
	if readErr != nil {
		return readErr
	}

	var next = (current & 0xF0) | (data & 0x0F)
	if err := l.port.WriteRegister(REG_OUTPUT, next); err != nil {
		return err
	}

	if l.verbose {
		l.logger.Debug("write", "nibble", fmt.Sprintf("%04b", data&0x0F))
	}
	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	read_input
 *
 * Purpose:	Sample the input pins and return the peer's nibble.
 *
 * Description:	The high four bits carry the peer's lines after the
 *		cable crossover; undoing the bit reversal here is the
 *		only place the permutation appears.  Always re-samples.
 *
 *------------------------------------------------------------------*/

func (l *Link) read_input() (byte, error) {
	l.port_mu.Lock()
	defer l.port_mu.Unlock()

	var value, err = l.port.ReadRegister(REG_INPUT)
	if err != nil {
		return 0, err
	}

	var upper = (value >> 4) & 0x0F
	return cross_nibble(upper), nil
}

/*------------------------------------------------------------------
 *
 * Name:	send_2bits
 *
 * Purpose:	Send one 2-bit symbol and wait for the ack edge.
 *
 * Inputs:	data	- Symbol value, low two bits.
 *
 * Returns:	true on ack edge, false when the poll budget runs out.
 *
 * Description:	The sender owns DATA0, DATA1 and CLOCK; the ACK line is
 *		always written as 0 here.  Any change of the observed
 *		ACK level means the peer latched the symbol.
 *
 *------------------------------------------------------------------*/

func (l *Link) send_2bits(data byte) bool {
	data &= 0x03

	var output byte
	if data&0x01 != 0 {
		output |= LINE_DATA0
	}
	if data&0x02 != 0 {
		output |= LINE_DATA1
	}

	l.tx_clock ^= LINE_CLOCK
	output |= l.tx_clock

	if l.write_output(output) != nil {
		return false
	}

	for i := 0; i < l.poll_iterations; i++ {
		var input, err = l.read_input()
		if err != nil {
			return false
		}

		var seen_ack = input & LINE_ACK
		if seen_ack != l.tx_last_seen_ack {
			l.tx_last_seen_ack = seen_ack
			return true
		}

		l.port.DelayUS(l.poll_interval_us)
	}

	return false
}

/*------------------------------------------------------------------
 *
 * Name:	receive_2bits
 *
 * Purpose:	Wait for a clock edge, latch the data bits from the
 *		same sample, and toggle the ack line.
 *
 * Returns:	Symbol value 0..3, or RECEIVE_TIMEOUT when the poll
 *		budget runs out.
 *
 * Description:	Data is latched from the very sample that showed the
 *		edge; there is no second read.  The receiver owns only
 *		ACK, so data and clock are written as 0.
 *
 *------------------------------------------------------------------*/

func (l *Link) receive_2bits() byte {
	for i := 0; i < l.poll_iterations; i++ {
		var input, err = l.read_input()
		if err != nil {
			return RECEIVE_TIMEOUT
		}

		var seen_clock = input & LINE_CLOCK
		if seen_clock != l.rx_last_seen_clock {
			l.rx_last_seen_clock = seen_clock

			var data byte
			if input&LINE_DATA0 != 0 {
				data |= 0x01
			}
			if input&LINE_DATA1 != 0 {
				data |= 0x02
			}

			l.rx_ack ^= LINE_ACK
			if l.write_output(l.rx_ack) != nil {
				return RECEIVE_TIMEOUT
			}

			return data
		}

		l.port.DelayUS(l.poll_interval_us)
	}

	return RECEIVE_TIMEOUT
}

/*------------------------------------------------------------------
 *
 * Name:	send_byte_raw / receive_byte_raw
 *
 * Purpose:	Byte framing: four ordered symbols, low-order pair
 *		first.
 *
 * Description:	Success implies all four symbol handshakes completed.
 *		A timeout at any position aborts the byte; nothing is
 *		partially committed.
 *
 *------------------------------------------------------------------*/

func (l *Link) send_byte_raw(b byte) bool {
	if !l.send_2bits((b >> 0) & 0x03) {
		return false
	}
	if !l.send_2bits((b >> 2) & 0x03) {
		return false
	}
	if !l.send_2bits((b >> 4) & 0x03) {
		return false
	}
	if !l.send_2bits((b >> 6) & 0x03) {
		return false
	}
	return true
}

func (l *Link) receive_byte_raw() byte {
	var b byte

	for _, shift := range []int{0, 2, 4, 6} {
		var part = l.receive_2bits()
		if part == RECEIVE_TIMEOUT {
			return RECEIVE_TIMEOUT
		}
		Assert(part <= 0x03)
		b |= part << shift
	}

	return b
}
