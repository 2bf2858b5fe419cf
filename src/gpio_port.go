package nibblelink

/*------------------------------------------------------------------
 *
 * Purpose:	Port driver backed by a GPIO character device.
 *
 * Description:	Four lines are requested as outputs for DATA0, DATA1,
 *		CLOCK, ACK and four as inputs for the peer's lines.
 *		The crossover happens in the cable, so input line k
 *		lands on register bit 4+k exactly as the pins of the
 *		original parallel port would.
 *
 *		Line offsets come from the configuration; there is no
 *		discovery.  The request fails fast if another consumer
 *		holds a line.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

type GPIOPort struct {
	out *gpiocdev.Lines
	in  *gpiocdev.Lines

	latch byte /* last value written to the output lines */
}

/*------------------------------------------------------------------
 *
 * Name:	NewGPIOPort
 *
 * Purpose:	Request the eight lines and present them as a register
 *		pair.
 *
 * Inputs:	chip	- GPIO chip name, e.g. "gpiochip0".
 *		outputs	- Offsets for DATA0, DATA1, CLOCK, ACK, in that
 *			  order (register bits 0..3).
 *		inputs	- Offsets for register bits 4..7, in that order.
 *
 *------------------------------------------------------------------*/

func NewGPIOPort(chip string, outputs []int, inputs []int) (*GPIOPort, error) {
	if len(outputs) != 4 || len(inputs) != 4 {
		return nil, fmt.Errorf("gpio port needs exactly 4 output and 4 input lines, got %d/%d", len(outputs), len(inputs))
	}

	var out, outErr = gpiocdev.RequestLines(chip, outputs,
		gpiocdev.WithConsumer("nibblelink"),
		gpiocdev.AsOutput(0, 0, 0, 0))
	if outErr != nil {
		return nil, fmt.Errorf("requesting output lines on %s: %w", chip, outErr)
	}

	var in, inErr = gpiocdev.RequestLines(chip, inputs,
		gpiocdev.WithConsumer("nibblelink"),
		gpiocdev.AsInput)
	if inErr != nil {
		out.Close()
		return nil, fmt.Errorf("requesting input lines on %s: %w", chip, inErr)
	}

	return &GPIOPort{out: out, in: in}, nil
}

func (p *GPIOPort) SetDirectionRegister(mask byte) error {
	// Direction is fixed at request time.  Anything other than the
	// canonical low-out/high-in split cannot be honored.
	if mask != 0x0F {
		return ErrPortDirection
	}
	return nil
}

func (p *GPIOPort) ReadRegister(reg port_register) (byte, error) {
	if reg == REG_OUTPUT {
		return p.latch, nil
	}

	var values = make([]int, 4)
	if err := p.in.Values(values); err != nil {
		return 0, fmt.Errorf("reading input lines: %w", err)
	}

	var v byte
	for k, lv := range values {
		if lv != 0 {
			v |= 1 << (4 + k)
		}
	}
	return v, nil
}

func (p *GPIOPort) WriteRegister(reg port_register, value byte) error {
	if reg != REG_OUTPUT {
		return fmt.Errorf("input register is read-only")
	}

	var values = []int{
		int(value >> 0 & 1),
		int(value >> 1 & 1),
		int(value >> 2 & 1),
		int(value >> 3 & 1),
	}
	if err := p.out.SetValues(values); err != nil {
		return fmt.Errorf("writing output lines: %w", err)
	}
	p.latch = value & 0x0F
	return nil
}

func (p *GPIOPort) DelayUS(n int) {
	time.Sleep(time.Duration(n) * time.Microsecond)
}

func (p *GPIOPort) DelayMS(n int) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}

func (p *GPIOPort) Close() error {
	var outErr = p.out.Close()
	var inErr = p.in.Close()
	if outErr != nil {
		return outErr
	}
	return inErr
}
