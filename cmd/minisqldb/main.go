// Command minisqldb runs a SQL script against the engine's on-disk
// catalog and writes the concatenated SELECT output to a file.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"

	"github.com/minisqldb/minisqldb/config"
	"github.com/minisqldb/minisqldb/csvcodec"
	"github.com/minisqldb/minisqldb/interp"
	"github.com/minisqldb/minisqldb/storage"
	"github.com/minisqldb/minisqldb/util"
)

// outputDialect is the CSV dialect used for rendering SELECT results to
// the CLI's output file: no types row, single-quoted TEXT cells.
var outputDialect = csvcodec.Options{WithTypes: false, QuotedStrings: true}

type cliArgs struct {
	Config  string `long:"config" description:"path to minisqldb.yml" value-name:"path" default:"minisqldb.yml"`
	DBsRoot string `long:"dbs-root" description:"directory holding per-database sub-directories" value-name:"path"`
	Debug   bool   `long:"debug" description:"dump the token stream for each executed script"`
	Help    bool   `long:"help" description:"show this help"`
}

// parseArgs returns the parsed options and the two positional arguments
// (input script, output file).
func parseArgs(argv []string) (cliArgs, string, string) {
	var opts cliArgs
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[option...] input.sql output.txt"

	rest, err := parser.ParseArgs(argv)
	if err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if len(rest) != 2 {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	return opts, rest[0], rest[1]
}

func main() {
	opts, inputPath, outputPath := parseArgs(os.Args[1:])

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fail(err)
	}
	util.InitSlog(cfg.LogLevel)
	dbsRoot := cfg.DBsRoot
	if opts.DBsRoot != "" {
		dbsRoot = opts.DBsRoot
	}

	script, err := os.ReadFile(inputPath)
	if err != nil {
		fail(err)
	}

	ip := interp.New(storage.New(dbsRoot))
	ip.Debug = opts.Debug

	runErr := ip.Execute(string(script))

	if opts.Debug {
		for name, rows := range util.CanonicalMapIter(ip.TableRowCounts()) {
			pp.Printf("table %s: %d rows\n", name, rows)
		}
	}

	if writeErr := writeOutput(outputPath, ip); writeErr != nil {
		fail(writeErr)
	}
	if runErr != nil {
		if opts.Debug {
			pp.Println(runErr)
		}
		fail(runErr)
	}
}

func writeOutput(path string, ip *interp.Interpreter) error {
	var out []byte
	for _, tbl := range ip.Output {
		out = append(out, []byte(csvcodec.Dump(tbl, outputDialect))...)
		out = append(out, []byte("---\n")...)
	}
	return os.WriteFile(path, out, 0o644)
}

// fail reports err to standard error and exits non-zero. A terminal
// gets a banner-delimited message; a pipe gets a bare single line.
func fail(err error) {
	slog.Error("script execution failed", "error", err)
	if term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintln(os.Stderr, "---")
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "---")
	} else {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
