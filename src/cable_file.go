package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	File-backed patch cable for running two nodes on one
 *		machine without the board.
 *
 * Description:	The cable is a single byte of shared state.  Board A
 *		owns the low nibble, board B the high nibble.  Each
 *		register operation is made atomic across the two
 *		processes with an advisory flock on the file.
 *
 *		The input view presents the peer's nibble bit-reversed
 *		in the high four bits, exactly like the physical
 *		crossover cable lands the peer's lines on the input
 *		pins.  The link above undoes the reversal, so hardware
 *		and simulator share one code path.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const DEFAULT_CABLE_PATH = "patchcable.bin"

type CableFilePort struct {
	file    *os.File
	path    string
	is_a    bool
	latch   byte
	scratch byte /* byte read by the last with_lock round trip */
}

func NewCableFilePort(path string, is_a bool) (*CableFilePort, error) {
	if path == "" {
		path = DEFAULT_CABLE_PATH
	}

	var _, statErr = os.Stat(path)
	var created = statErr != nil

	var f, openErr = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if openErr != nil {
		return nil, fmt.Errorf("opening patch cable %s: %w", path, openErr)
	}

	var p = &CableFilePort{file: f, path: path, is_a: is_a}

	if created {
		if err := p.with_lock(func(b byte) (byte, bool) { return 0, true }); err != nil {
			f.Close()
			return nil, err
		}
		text_color_set(DW_COLOR_INFO)
		dw_printf("[CABLE] Created patch cable file: %s\n", path)
	} else {
		text_color_set(DW_COLOR_INFO)
		dw_printf("[CABLE] Found patch cable file: %s\n", path)
	}

	return p, nil
}

/* Read-modify-write of the shared byte under the advisory lock.
 * fn returns the new value and whether to write it back. */

func (p *CableFilePort) with_lock(fn func(byte) (byte, bool)) error {
	var fd = int(p.file.Fd())

	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		return fmt.Errorf("locking patch cable: %w", err)
	}
	defer unix.Flock(fd, unix.LOCK_UN) //nolint:errcheck

	var buf [1]byte
	if _, readErr := p.file.ReadAt(buf[:], 0); readErr != nil {
		// A fresh file has no byte yet; treat as zero.
		buf[0] = 0
	}

	p.scratch = buf[0]

	var next, write = fn(buf[0])
	if !write {
		return nil
	}

	if _, err := p.file.WriteAt([]byte{next}, 0); err != nil {
		return fmt.Errorf("writing patch cable: %w", err)
	}
	return nil
}

func (p *CableFilePort) SetDirectionRegister(mask byte) error {
	if mask != 0x0F {
		return ErrPortDirection
	}
	return nil
}

func (p *CableFilePort) ReadRegister(reg port_register) (byte, error) {
	if reg == REG_OUTPUT {
		return p.latch, nil
	}

	if err := p.with_lock(func(b byte) (byte, bool) { return b, false }); err != nil {
		return 0, err
	}

	var peer byte
	if p.is_a {
		peer = (p.scratch >> 4) & 0x0F
	} else {
		peer = p.scratch & 0x0F
	}

	// Land the peer's lines on the input pins the way the crossover
	// cable does.
	return cross_nibble(peer) << 4, nil
}

func (p *CableFilePort) WriteRegister(reg port_register, value byte) error {
	if reg != REG_OUTPUT {
		return fmt.Errorf("input register is read-only")
	}

	var err = p.with_lock(func(b byte) (byte, bool) {
		if p.is_a {
			return (b & 0xF0) | (value & 0x0F), true
		}
		return (b & 0x0F) | ((value & 0x0F) << 4), true
	})
	if err != nil {
		return err
	}

	p.latch = value & 0x0F
	return nil
}

func (p *CableFilePort) DelayUS(n int) {
	time.Sleep(time.Duration(n) * time.Microsecond)
}

func (p *CableFilePort) DelayMS(n int) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}

func (p *CableFilePort) Close() error {
	var err = p.file.Close()

	// Best effort, mirroring the original simulator: whichever side
	// exits last finds the file already gone.
	os.Remove(p.path) //nolint:errcheck

	return err
}
