package main

/*------------------------------------------------------------------
 *
 * Purpose:	Utility program to dump the CRC-8 table used by the
 *		link (polynomial 0x07, init 0xFF), for checking other
 *		implementations against this one.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"

	nibblelink "github.com/nibblelink/nibblelink/src"
)

func main() {
	fmt.Printf("CRC-8, polynomial 0x07, init 0xFF, no reflection.\n\n")

	for n := 0; n < 256; n++ {
		fmt.Printf("%02x", nibblelink.CRC8(byte(n)))
		if n%16 == 15 {
			fmt.Printf("\n")
		} else {
			fmt.Printf(" ")
		}
	}
}
