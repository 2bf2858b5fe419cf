package main

/*------------------------------------------------------------------
 *
 * Purpose:	Main program for the 4-bit link: half-duplex send,
 *		half-duplex receive, or ping-pong full duplex between
 *		two nodes joined by a crossover cable.
 *
 * Usage:	nibblelink [flags] <board> <mode> [verbose|error_rate]
 *
 *		board : A | B
 *		mode  : send | receive | fullduplex
 *		last  : 0/1 verbose flag on hardware, or 0..100 error
 *			injection rate on the patch-cable simulator
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	nibblelink "github.com/nibblelink/nibblelink/src"
)

func usage() {
	fmt.Printf("Usage: %s [flags] <board> <mode> [verbose|error_rate]\n", os.Args[0])
	fmt.Printf("  board : \"A\" or \"B\" (determines full-duplex turn assignment)\n")
	fmt.Printf("  mode  : send, receive or fullduplex\n")
	fmt.Printf("  last  : 0/1 verbose flag (hardware), or 0..100 error injection rate (simulator)\n")
	fmt.Printf("\nExample (half duplex over the patch-cable simulator):\n")
	fmt.Printf("  Terminal 1: %s A send\n", os.Args[0])
	fmt.Printf("  Terminal 2: %s B receive 20\n", os.Args[0])
	fmt.Printf("\nExample (full duplex on hardware):\n")
	fmt.Printf("  Machine 1: %s --gpiochip gpiochip0 A fullduplex\n", os.Args[0])
	fmt.Printf("  Machine 2: %s --gpiochip gpiochip0 B fullduplex\n", os.Args[0])
	fmt.Printf("\nFlags:\n")
	pflag.PrintDefaults()
}

func main() {
	var configPath = pflag.StringP("config", "c", "", "YAML configuration file.")
	var gpiochip = pflag.StringP("gpiochip", "g", "", "GPIO chip for the hardware backend, e.g. gpiochip0.  Without this (or gpiochip in the config file) the file-backed patch cable is used.")
	var cablePath = pflag.StringP("cable", "p", "", "Patch cable file for the simulator backend.")
	var metricsAddr = pflag.StringP("metrics-addr", "m", "", "Serve Prometheus metrics on this address, e.g. :9815.")
	var verboseFlag = pflag.BoolP("verbose", "v", false, "Per-symbol and per-byte protocol tracing.")

	pflag.Usage = usage
	pflag.Parse()

	var args = pflag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}

	var board = args[0]
	if board != "A" && board != "B" {
		fmt.Fprintf(os.Stderr, "Board must be 'A' or 'B'!\n")
		os.Exit(1)
	}

	var mode = args[1]
	if mode != "send" && mode != "receive" && mode != "fullduplex" {
		fmt.Fprintf(os.Stderr, "Mode must be 'send', 'receive' or 'fullduplex'!\n")
		os.Exit(1)
	}

	var verbose = *verboseFlag
	var errorRate = 0

	if len(args) >= 3 {
		var n, convErr = strconv.Atoi(args[2])
		if convErr != nil {
			fmt.Fprintf(os.Stderr, "Last argument must be a number: %s\n", args[2])
			os.Exit(1)
		}
		if *gpiochip != "" {
			// Real hardware has no error injection; the trailing
			// argument is the verbose flag.
			verbose = verbose || n == 1
		} else {
			if n < 0 || n > 100 {
				fmt.Fprintf(os.Stderr, "Error rate must be between 0 and 100!\n")
				os.Exit(1)
			}
			errorRate = n
		}
	}

	var cfg = nibblelink.DefaultConfig()
	if *configPath != "" {
		var loaded, err = nibblelink.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *cablePath != "" {
		cfg.CablePath = *cablePath
	}
	if *gpiochip != "" {
		cfg.GPIOChip = *gpiochip
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	// A chip named only in the config file still means hardware, so
	// the trailing argument is the verbose flag there too.
	if cfg.GPIOChip != "" && *gpiochip == "" && len(args) >= 3 {
		verbose = verbose || errorRate == 1
		errorRate = 0
	}

	nibblelink.TextColorInit(1)

	var port nibblelink.PortDriver
	var portErr error
	if cfg.GPIOChip != "" {
		port, portErr = nibblelink.NewGPIOPort(cfg.GPIOChip, cfg.OutputLines, cfg.InputLines)
	} else {
		port, portErr = nibblelink.NewCableFilePort(cfg.CablePath, board == "A")
	}
	if portErr != nil {
		fmt.Fprintf(os.Stderr, "%s\n", portErr)
		os.Exit(1)
	}

	var injector = nibblelink.NewErrorInjector(0)
	if errorRate > 0 {
		injector.SetErrorRate(errorRate)
	}

	var stats = nibblelink.NewStats()
	if cfg.MetricsAddr != "" {
		nibblelink.ServeMetrics(cfg.MetricsAddr, board, stats)
	}

	var link, linkErr = nibblelink.NewLink(board, port, cfg, stats, injector, verbose)
	if linkErr != nil {
		fmt.Fprintf(os.Stderr, "%s\n", linkErr)
		os.Exit(1)
	}
	defer link.Close()

	switch mode {
	case "send":
		if err := link.RunSenderMode(os.Stdin); err != nil {
			os.Exit(1)
		}

	case "receive":
		var sink, sinkErr = nibblelink.NewMessageLog(board, cfg.ReceiveDir, cfg.MessageLogDir)
		if sinkErr != nil {
			fmt.Fprintf(os.Stderr, "%s\n", sinkErr)
			os.Exit(1)
		}
		defer sink.Close()

		link.RunReceiverMode(sink) // does not return

	case "fullduplex":
		var sink, sinkErr = nibblelink.NewMessageLog(board, cfg.ReceiveDir, cfg.MessageLogDir)
		if sinkErr != nil {
			fmt.Fprintf(os.Stderr, "%s\n", sinkErr)
			os.Exit(1)
		}
		defer sink.Close()

		if err := link.RunFullDuplexMode(os.Stdin, sink); err != nil {
			os.Exit(1)
		}
	}
}
