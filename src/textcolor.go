package nibblelink

// A lightweight reimplementation of Dire Wolf style console coloring.
// dw_printf is the single choke point for user-facing console output.

import (
	"fmt"
)

type dw_color_e int

const (
	DW_COLOR_INFO  dw_color_e = iota /* default */
	DW_COLOR_ERROR                   /* red */
	DW_COLOR_REC                     /* green */
	DW_COLOR_XMIT                    /* magenta */
	DW_COLOR_DEBUG                   /* dark green */
)

var _text_color_level int

var _color_escapes = map[dw_color_e]string{
	DW_COLOR_INFO:  "\033[0m",
	DW_COLOR_ERROR: "\033[0;31m",
	DW_COLOR_REC:   "\033[0;32m",
	DW_COLOR_XMIT:  "\033[0;35m",
	DW_COLOR_DEBUG: "\033[2;32m",
}

func text_color_init(level int) {
	_text_color_level = level
}

// TextColorInit is the exported spelling for the cmd/ programs.
func TextColorInit(level int) {
	text_color_init(level)
}

func text_color_set(c dw_color_e) {
	if _text_color_level == 0 {
		return
	}

	fmt.Print(_color_escapes[c])
}

func dw_printf(format string, a ...any) (int, error) {
	return fmt.Printf(format, a...)
}
