package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	Wire-level constants and the error taxonomy shared by
 *		all layers of the link.
 *
 * Description:	Each node drives the low four bits of its port and
 *		observes the peer on the high four bits.  Line roles
 *		within a nibble:
 *
 *			bit 0	DATA0	(transmitter)
 *			bit 1	DATA1	(transmitter)
 *			bit 2	CLOCK	(transmitter)
 *			bit 3	ACK	(receiver)
 *
 *		The transmitter never drives ACK and the receiver never
 *		drives DATA0/DATA1/CLOCK.
 *
 *------------------------------------------------------------------*/

import "errors"

const (
	LINE_DATA0 byte = 0x01
	LINE_DATA1 byte = 0x02
	LINE_CLOCK byte = 0x04
	LINE_ACK   byte = 0x08
)

// Reserved control bytes.  Payload is assumed to be text so these
// values never appear as data.
const (
	EOT_BYTE     byte = 0x04 /* end of one message */
	ACK_BYTE     byte = 0x06 /* positive acknowledgement */
	NO_DATA_BYTE byte = 0x10 /* sender-turn filler, full duplex only */
	NAK_BYTE     byte = 0x15 /* negative acknowledgement */
)

// RECEIVE_TIMEOUT is the in-band sentinel for "no byte this round".
// Valid 2-bit symbols are 0..3 and payload is text, so 0xFF is
// unambiguous at every layer that returns it.
const RECEIVE_TIMEOUT byte = 0xFF

// MAX_RETRIES bounds the attempts (first send plus resends) for a
// single byte.
const MAX_RETRIES = 5

const (
	DEFAULT_POLL_ITERATIONS  = 5000
	DEFAULT_POLL_INTERVAL_US = 100
	DEFAULT_SETTLE_MS        = 200
	DEFAULT_POST_ZERO_MS     = 100
)

var (
	// ErrByteTimeout - the peer produced no handshake edge within the
	// poll budget while a byte was in flight.
	ErrByteTimeout = errors.New("byte timeout on link")

	// ErrRetryExhausted - one byte was NAKed or unanswered MAX_RETRIES
	// times in a row.
	ErrRetryExhausted = errors.New("max retries exhausted")

	// ErrPortDirection - the port driver rejected the direction mask.
	ErrPortDirection = errors.New("unsupported port direction mask")
)
