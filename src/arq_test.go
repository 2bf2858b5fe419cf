package nibblelink

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReceiveChecked(t *testing.T) {
	var a, b = new_test_pair(t)

	var sent = make(chan error, 1)
	go func() { sent <- a.SendByteChecked('h') }()

	assert.Equal(t, byte('h'), b.ReceiveByteChecked())
	require.NoError(t, <-sent)

	assert.EqualValues(t, 1, a.stats.BytesSent())
	assert.EqualValues(t, 0, a.stats.Retransmissions())
	assert.EqualValues(t, 1, b.stats.BytesReceived())
	assert.EqualValues(t, 0, b.stats.ChecksumErrors())
}

func TestControlBytesSurviveARQ(t *testing.T) {
	var a, b = new_test_pair(t)

	var controls = []byte{EOT_BYTE, NO_DATA_BYTE}

	var sent = make(chan error, len(controls))
	go func() {
		for _, c := range controls {
			sent <- a.SendByteChecked(c)
		}
	}()

	for _, want := range controls {
		assert.Equal(t, want, b.ReceiveByteChecked())
		require.NoError(t, <-sent)
	}
}

// A corrupted data byte must never surface: the receiver NAKs, the
// sender retransmits, and the clean copy comes through.
func TestBitFlipTriggersNAKAndRetry(t *testing.T) {
	var cable = NewMemoryCable()
	var injector = new_seeded_injector(100, 1)

	var a = new_test_link(t, cable, "A", nil, nil)
	var b = new_test_link(t, cable, "B", nil, injector)

	var sent = make(chan error, 1)
	go func() { sent <- a.SendByteChecked('h') }()

	// First attempt arrives with one bit flipped.
	assert.Equal(t, RECEIVE_TIMEOUT, b.ReceiveByteChecked())

	// Channel behaves from now on.
	injector.SetErrorRate(0)

	assert.Equal(t, byte('h'), b.ReceiveByteChecked())
	require.NoError(t, <-sent)

	assert.EqualValues(t, 1, a.stats.Retransmissions())
	assert.EqualValues(t, 1, a.stats.BytesSent())
	assert.EqualValues(t, 1, b.stats.ChecksumErrors())
	assert.EqualValues(t, 1, b.stats.BytesReceived())
}

// Persistent corruption exhausts the retry budget: the first attempt
// plus four retries, all NAKed, then the sender gives up.
func TestPersistentCorruptionExhaustsRetries(t *testing.T) {
	var cable = NewMemoryCable()
	var injector = new_seeded_injector(100, 42)

	var a = new_test_link(t, cable, "A", nil, nil)
	var b = new_test_link(t, cable, "B", nil, injector)

	var sent = make(chan error, 1)
	go func() { sent <- a.SendByteChecked('h') }()

	for attempt := 0; attempt < MAX_RETRIES; attempt++ {
		assert.Equal(t, RECEIVE_TIMEOUT, b.ReceiveByteChecked(), "attempt %d", attempt)
	}

	var err = <-sent
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetryExhausted))

	assert.EqualValues(t, 4, a.stats.Retransmissions(), "retries 1..4; attempt 0 is the initial try")
	assert.EqualValues(t, 0, a.stats.BytesSent())
	assert.EqualValues(t, int64(MAX_RETRIES), b.stats.ChecksumErrors())
	assert.EqualValues(t, 0, b.stats.BytesReceived())
}

// An unrecognized response byte burns one attempt and the sender
// carries on.
func TestUnexpectedResponseBurnsOneAttempt(t *testing.T) {
	var a, b = new_test_pair(t)

	var sent = make(chan error, 1)
	go func() { sent <- a.SendByteChecked('h') }()

	// Play a confused receiver by hand: take the data byte and the
	// checksum, then answer garbage instead of ACK or NAK.
	require.Equal(t, byte('h'), b.receive_byte_raw())
	require.Equal(t, crc8('h'), b.receive_byte_raw())
	require.True(t, b.send_byte_raw(0x42))

	// The retransmission; this time answer properly.
	assert.Equal(t, byte('h'), b.ReceiveByteChecked())
	require.NoError(t, <-sent)

	assert.EqualValues(t, 1, a.stats.Retransmissions())
	assert.EqualValues(t, 1, a.stats.BytesSent())
}

// When the peer stops acking symbols entirely, the send aborts with a
// link fault instead of retrying into a dead wire.
func TestDeadLinkAbortsWithoutRetry(t *testing.T) {
	var cable = NewMemoryCable()

	var cfg = test_config()
	cfg.PollIterations = 3

	var a = new_test_link(t, cable, "A", cfg, nil)

	var err = a.SendByteChecked('h')
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrByteTimeout))
	assert.False(t, errors.Is(err, ErrRetryExhausted))
	assert.EqualValues(t, 0, a.stats.Retransmissions())
}

// Receiver with nothing on the wire reports "no byte this round".
func TestReceiveCheckedTimeout(t *testing.T) {
	var cable = NewMemoryCable()

	var cfg = test_config()
	cfg.PollIterations = 3

	var b = new_test_link(t, cable, "B", cfg, nil)

	assert.Equal(t, RECEIVE_TIMEOUT, b.ReceiveByteChecked())
	assert.EqualValues(t, 0, b.stats.BytesReceived())
	assert.EqualValues(t, 0, b.stats.ChecksumErrors())
}
