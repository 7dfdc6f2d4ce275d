// Rill CLI - the main entry point for running and inspecting chunks
package main

import (
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("rill")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = cmdRun(args)
	case "disasm":
		err = cmdDisasm(args)
	case "info":
		err = cmdInfo(args)
	case "bundle":
		err = cmdBundle(args)
	case "cache":
		err = cmdCache(args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "rill: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: rill <command> [options] [args...]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  run      Execute a compiled chunk (.rlc)\n")
	fmt.Fprintf(os.Stderr, "  disasm   Print a chunk's disassembly\n")
	fmt.Fprintf(os.Stderr, "  info     Summarize a chunk's header and pool\n")
	fmt.Fprintf(os.Stderr, "  bundle   Pack, unpack, or list chunk bundles (.rlb)\n")
	fmt.Fprintf(os.Stderr, "  cache    Manage the persistent chunk cache\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  rill run main.rlc\n")
	fmt.Fprintf(os.Stderr, "  rill run -budget 1000000 main.rlc\n")
	fmt.Fprintf(os.Stderr, "  rill disasm main.rlc\n")
	fmt.Fprintf(os.Stderr, "  rill bundle pack -o app.rlb main=main.rlc lib=lib.rlc\n")
	fmt.Fprintf(os.Stderr, "  rill cache put main main.rlc\n")
}

// configureLogging maps -v counts onto the log backend.
func configureLogging(verbosity int) {
	commonlog.Configure(verbosity, nil)
}
