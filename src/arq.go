package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	Per-byte ARQ: append and verify the CRC-8, classify the
 *		ACK/NAK response, send each byte at most MAX_RETRIES
 *		times.
 *
 * Description:	The ARQ unit is deliberately one byte.  For each data
 *		byte the wire carries: the byte (4 symbols), its CRC
 *		(4 symbols), then one full response byte in the other
 *		direction before the next data byte starts.
 *
 *		The receiver never surfaces a corrupted byte.  A return
 *		of RECEIVE_TIMEOUT from this layer means "no byte this
 *		round"; since payload is text, 0xFF is never data.
 *
 *------------------------------------------------------------------*/

import "fmt"

/*------------------------------------------------------------------
 *
 * Name:	SendByteChecked
 *
 * Purpose:	Send one byte with checksum and wait for the peer's
 *		verdict, retrying on NAK.
 *
 * Returns:	nil on ACK.  ErrByteTimeout (wrapped) when the link is
 *		non-responsive mid-byte.  ErrRetryExhausted after
 *		MAX_RETRIES attempts.
 *
 * Description:	A framing failure while transmitting means the peer
 *		stopped acking symbols - the link is down, so there is
 *		no point retrying.  A NAK, an unexpected response or a
 *		response timeout each burn one attempt.
 *
 *------------------------------------------------------------------*/

func (l *Link) SendByteChecked(b byte) error {
	var checksum = crc8(b)

	for retry := 0; retry < MAX_RETRIES; retry++ {
		if retry > 0 {
			text_color_set(DW_COLOR_XMIT)
			dw_printf("[%s] RETRY %d/%d\n", l.name, retry, MAX_RETRIES)
			l.stats.retransmissions.Add(1)
		}

		if l.verbose {
			l.logger.Debug("send byte", "data", fmt.Sprintf("0x%02x", b), "crc", fmt.Sprintf("0x%02x", checksum))
		}

		if !l.send_byte_raw(b) {
			return fmt.Errorf("sending data byte 0x%02x: %w", b, ErrByteTimeout)
		}

		if !l.send_byte_raw(checksum) {
			return fmt.Errorf("sending checksum for 0x%02x: %w", b, ErrByteTimeout)
		}

		var response = l.receive_byte_raw()

		switch response {
		case ACK_BYTE:
			if l.verbose {
				l.logger.Debug("got ACK")
			}
			l.stats.bytes_sent.Add(1)
			return nil
		case NAK_BYTE:
			text_color_set(DW_COLOR_ERROR)
			dw_printf("[%s] << NAK received, checksum error on far side, resending...\n", l.name)
		case RECEIVE_TIMEOUT:
			text_color_set(DW_COLOR_ERROR)
			dw_printf("[%s] << No response within budget, resending...\n", l.name)
		default:
			text_color_set(DW_COLOR_ERROR)
			dw_printf("[%s] << Unexpected response: 0x%02x\n", l.name, response)
		}
	}

	text_color_set(DW_COLOR_ERROR)
	dw_printf("[%s] Transfer failed after %d attempts.\n", l.name, MAX_RETRIES)
	return fmt.Errorf("byte 0x%02x: %w", b, ErrRetryExhausted)
}

/*------------------------------------------------------------------
 *
 * Name:	ReceiveByteChecked
 *
 * Purpose:	Receive one byte plus checksum, answer ACK or NAK.
 *
 * Returns:	The data byte, or RECEIVE_TIMEOUT for both "nothing
 *		arrived" and "arrived corrupted".  The caller just
 *		tries again; the sender's retry carries the repair.
 *
 *------------------------------------------------------------------*/

func (l *Link) ReceiveByteChecked() byte {
	var b = l.receive_byte_raw()
	if b == RECEIVE_TIMEOUT {
		return RECEIVE_TIMEOUT
	}

	// Error injection sits between the framer and the checksum so a
	// flipped bit exercises the NAK path end to end.
	var received = l.injector.Inject(b)

	var received_checksum = l.receive_byte_raw()
	if received_checksum == RECEIVE_TIMEOUT {
		if l.verbose {
			l.logger.Debug("timeout while waiting for checksum")
		}
		return RECEIVE_TIMEOUT
	}

	var expected = crc8(received)

	if l.verbose {
		l.logger.Debug("received byte",
			"data", fmt.Sprintf("0x%02x", received),
			"crc", fmt.Sprintf("0x%02x", received_checksum),
			"expected", fmt.Sprintf("0x%02x", expected))
	}

	if received_checksum == expected {
		// Best effort; if the ACK is lost the sender retries and we
		// see the byte again.
		l.send_byte_raw(ACK_BYTE)
		l.stats.bytes_received.Add(1)
		return received
	}

	text_color_set(DW_COLOR_ERROR)
	dw_printf("[%s] Checksum mismatch (got 0x%02x, want 0x%02x), sending NAK.\n", l.name, received_checksum, expected)
	l.send_byte_raw(NAK_BYTE)
	l.stats.checksum_errors.Add(1)
	return RECEIVE_TIMEOUT
}
