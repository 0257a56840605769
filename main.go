package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sicxe-asm/sicasm/assemble"
	"github.com/sicxe-asm/sicasm/config"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
	Date    = "unknown" // Build date
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		optabPath   = flag.String("optab", "optab.csv", "Path to the opcode-table CSV")
		listingPath = flag.String("listing", "listing.txt", "Listing output path")
		objectPath  = flag.String("object", "objectprogram.txt", "Object program output path")
		configPath  = flag.String("config", "", "Path to a TOML config file (default: built-in defaults)")
		verboseMode = flag.Bool("verbose", false, "Echo each completed pass to stderr")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("sicasm %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		printHelp()
		os.Exit(1)
	}
	sourcePath := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", sourcePath, err)
		os.Exit(1)
	}

	opts := assemble.Options{
		SourcePath:  sourcePath,
		OptabPath:   *optabPath,
		ObjectPath:  *objectPath,
		ListingPath: *listingPath,
		Config:      cfg,
	}
	if *verboseMode {
		opts.Verbose = os.Stderr
	}

	if _, err := assemble.Run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `sicasm %s - SIC/XE two-pass assembler

Usage: sicasm [options] <source-file>

Options:
  -optab FILE     Path to the opcode-table CSV (default: optab.csv)
  -object FILE    Object program output path (default: objectprogram.txt)
  -listing FILE   Listing output path (default: listing.txt)
  -config FILE    Path to a TOML config file (default: built-in defaults)
  -verbose        Echo each completed pass to stderr
  -version        Show version information

Examples:
  sicasm program.asm
  sicasm -optab sicxe.csv -object out.obj -listing out.lst program.asm
`, Version)
}
