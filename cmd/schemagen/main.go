// Command schemagen writes the JSON schema of every wire message to a directory.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"gridfactory.ai/internal/protocol"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(stdout io.Writer, args []string) error {
	fs := flag.NewFlagSet("schemagen", flag.ContinueOnError)
	out := fs.String("out", "", "output directory for <name>.schema.json files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("schemagen: missing --out")
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	msgs := protocol.Messages()
	names := make([]string, 0, len(msgs))
	for name := range msgs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := protocol.Schema(msgs[name])
		if err != nil {
			return fmt.Errorf("schemagen: %s: %w", name, err)
		}
		path := filepath.Join(*out, name+".schema.json")
		if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "wrote", path)
	}
	return nil
}
