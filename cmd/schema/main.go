// Command schema writes the JSON schema of the feedwatch configuration
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/umputun/feedwatch/pkg/config"
)

type options struct {
	Args struct {
		Output string `positional-arg-name:"output" description:"schema file to write"`
	} `positional-args:"yes"`
	Stdout bool `long:"stdout" description:"print schema instead of writing a file"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := generate(opts.Args.Output, opts.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "schema generation failed: %v\n", err)
		os.Exit(1)
	}
}

func generate(outputPath string, stdout bool) error {
	data, err := json.MarshalIndent(config.GenerateSchema(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')

	if stdout {
		_, err = os.Stdout.Write(data)
		return err
	}

	if outputPath == "" {
		outputPath = "schema.json"
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	fmt.Printf("schema written to %s\n", outputPath)
	return nil
}
