package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	Session modes: half-duplex sender, half-duplex
 *		receiver, and the ping-pong full duplex.
 *
 * Description:	The L1 handshake is strictly paired - the sender of a
 *		symbol blocks on the ack edge, the receiver on the
 *		clock edge - so truly simultaneous transfer over one
 *		nibble pair is impossible.  Full duplex is therefore
 *		deterministic round-robin turn-taking: node A sends on
 *		odd rounds, node B on even rounds, and a node with an
 *		empty send queue fills its turn with NO_DATA.  The
 *		session ends when the local queue is empty and NO_DATA
 *		has been acknowledged in both directions, which gives a
 *		symmetric shutdown without a teardown handshake.
 *
 *		Two threads sharing the port would interleave the
 *		clock/data and ack roles and deadlock; turn-taking
 *		makes the alternation explicit.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

/*------------------------------------------------------------------
 *
 * Name:	RunSenderMode
 *
 * Purpose:	Read lines from input until end-of-stream; send each
 *		line's characters, then '\n', then EOT.
 *
 * Returns:	nil on clean end of input; the send error otherwise.
 *		Statistics are printed either way.
 *
 *------------------------------------------------------------------*/

func (l *Link) RunSenderMode(input io.Reader) error {
	text_color_set(DW_COLOR_INFO)
	dw_printf("[%s] SENDER MODE (half duplex)\n", l.name)
	dw_printf("[%s] Enter messages, one per line; each line is sent followed by EOT.\n", l.name)

	var scanner = bufio.NewScanner(input)
	for scanner.Scan() {
		var line = scanner.Text()

		text_color_set(DW_COLOR_XMIT)
		dw_printf("[%s] Sending message: \"%s\"\n", l.name, line)

		for _, c := range []byte(line) {
			if err := l.SendByteChecked(c); err != nil {
				return l.abort_send(err)
			}
		}

		if err := l.SendByteChecked('\n'); err != nil {
			return l.abort_send(err)
		}

		if err := l.SendByteChecked(EOT_BYTE); err != nil {
			return l.abort_send(err)
		}

		text_color_set(DW_COLOR_INFO)
		dw_printf("[%s] >>> Message sent. <<<\n\n", l.name)
	}

	l.stats.Print()
	return scanner.Err()
}

func (l *Link) abort_send(err error) error {
	text_color_set(DW_COLOR_ERROR)
	dw_printf("[%s] Transfer aborted: %s\n", l.name, err)
	l.stats.Print()
	return err
}

/*------------------------------------------------------------------
 *
 * Name:	RunReceiverMode
 *
 * Purpose:	Receive forever.  Each EOT flushes the accumulated
 *		message to the sinks and resets the buffer.
 *
 * Description:	Does not return; the process ends by signal.  A round
 *		that yields nothing sleeps briefly - a latency hint,
 *		not part of the protocol.
 *
 *------------------------------------------------------------------*/

func (l *Link) RunReceiverMode(sink *MessageLog) {
	text_color_set(DW_COLOR_INFO)
	dw_printf("[%s] RECEIVER MODE (half duplex)\n", l.name)
	dw_printf("[%s] Waiting for messages (until EOT)...\n", l.name)

	var message []byte

	for {
		var b = l.ReceiveByteChecked()

		if b == RECEIVE_TIMEOUT {
			l.port.DelayMS(10)
			continue
		}

		if b == EOT_BYTE {
			var complete = strings.TrimSuffix(string(message), "\n")

			text_color_set(DW_COLOR_REC)
			dw_printf("[%s] EOT received. Message complete:\n", l.name)
			dw_printf(">>> %s <<<\n", complete)

			sink.Record(complete)
			message = message[:0]
			continue
		}

		message = append(message, b)
		if l.verbose {
			l.logger.Debug("char received", "char", string(rune(b)), "message", string(message))
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	RunFullDuplexMode
 *
 * Purpose:	Ping-pong full duplex: both nodes run this; input is
 *		preloaded into a byte queue and the two sides strictly
 *		alternate sender and receiver turns.
 *
 * Inputs:	input	- Local payload; fully read before round 1.
 *		sink	- Destination for completed messages.
 *
 * Returns:	nil on symmetric shutdown.  An error when a send fails
 *		or the peer goes silent mid-session.
 *
 *------------------------------------------------------------------*/

func (l *Link) RunFullDuplexMode(input io.Reader, sink *MessageLog) error {
	Assert(l.name == "A" || l.name == "B")

	text_color_set(DW_COLOR_INFO)
	dw_printf("[%s] PING-PONG FULL-DUPLEX MODE\n", l.name)
	dw_printf("[%s] Node %s starts as %s.\n", l.name, l.name,
		IfThenElse(l.name == "A", "SENDER", "RECEIVER"))

	// The whole local input becomes a FIFO of bytes before the first
	// round: characters of each line, then '\n', then EOT.
	var queue []byte
	var scanner = bufio.NewScanner(input)
	for scanner.Scan() {
		queue = append(queue, scanner.Bytes()...)
		queue = append(queue, '\n', EOT_BYTE)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading local input: %w", err)
	}

	dw_printf("[%s] %d bytes queued to send.\n", l.name, len(queue))

	var message []byte
	var round = 0
	var other_has_data = true // assume the peer starts with data
	var no_data_sent = false  // the peer has acked at least one of our NO_DATAs

	var session_err error

	// The session ends only after NO_DATA has travelled in both
	// directions: each side learns the peer is drained, and knows the
	// peer has learned the same about it.  Exiting any earlier would
	// leave the peer blocked in a receiver turn until its poll budget
	// runs out.
	for {
		round++

		if (l.name == "A" && round%2 == 1) || (l.name == "B" && round%2 == 0) {
			/* Sender turn. */
			var b = NO_DATA_BYTE
			if len(queue) > 0 {
				b = queue[0]
				queue = queue[1:]
			}

			if l.verbose {
				l.logger.Debug("sender turn", "round", round, "byte", fmt.Sprintf("0x%02x", b))
			}

			if err := l.SendByteChecked(b); err != nil {
				text_color_set(DW_COLOR_ERROR)
				dw_printf("[%s R%d] Send failed: %s\n", l.name, round, err)
				session_err = err
				break
			}

			if b == NO_DATA_BYTE {
				no_data_sent = true
				if !other_has_data {
					break
				}
			}
		} else {
			/* Receiver turn. */
			var b = l.ReceiveByteChecked()

			switch {
			case b == RECEIVE_TIMEOUT:
				text_color_set(DW_COLOR_ERROR)
				dw_printf("[%s R%d] Timeout - peer is not responding.\n", l.name, round)
				session_err = fmt.Errorf("round %d: %w", round, ErrByteTimeout)
			case b == NO_DATA_BYTE:
				if l.verbose {
					l.logger.Debug("receiver turn", "round", round, "byte", "NO_DATA")
				}
				other_has_data = false
			case b == EOT_BYTE:
				var complete = strings.TrimSuffix(string(message), "\n")
				text_color_set(DW_COLOR_REC)
				dw_printf("[%s R%d] << EOT - message: \"%s\"\n", l.name, round, complete)
				sink.Record(complete)
				message = message[:0]
			default:
				message = append(message, b)
				if l.verbose {
					l.logger.Debug("receiver turn", "round", round, "char", string(rune(b)))
				}
			}

			if session_err != nil {
				break
			}

			if b == NO_DATA_BYTE && len(queue) == 0 && no_data_sent {
				break
			}
		}
	}

	text_color_set(DW_COLOR_INFO)
	dw_printf("\n[%s] Full duplex finished after %d rounds.\n", l.name, round)
	l.stats.Print()

	return session_err
}
