// scriptcheck validates map scripts without loading them into a live room.
// It parses each file, reports lex and parse failures as JSON on stderr,
// and prints a summary of the handlers each valid script registers.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	goccy "github.com/goccy/go-json"
	"github.com/rodaine/table"

	"github.com/virgilvox/bitrealm-sub000/script"
)

func main() {
	quiet := flag.Bool("quiet", false, "Suppress the handler summary, only report errors.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <script.brs> [script.brs...]\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	broken := false
	t := table.New("File", "Event", "Statements").WithWriter(os.Stdout)
	for _, path := range flag.Args() {
		source, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			broken = true
			continue
		}
		parsed, err := script.Parse(string(source))
		if err != nil {
			broken = true
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, renderError(err))
			continue
		}
		for _, block := range parsed.Blocks {
			t.AddRow(path, block.Event, len(block.Statements))
		}
	}
	if !*quiet {
		t.Print()
	}
	if broken {
		os.Exit(1)
	}
}

// renderError prefers the structured JSON form of lex and parse errors.
func renderError(err error) string {
	var lexErr *script.LexError
	if errors.As(err, &lexErr) {
		if encoded, jsonErr := goccy.Marshal(lexErr); jsonErr == nil {
			return string(encoded)
		}
	}
	var parseErr *script.ParseError
	if errors.As(err, &parseErr) {
		if encoded, jsonErr := goccy.Marshal(parseErr); jsonErr == nil {
			return string(encoded)
		}
	}
	return err.Error()
}
