// Command quest checks, evaluates and walks quest scripts.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/annotations"
	"github.com/wbrown/janus-quest/quest/eval"
	"github.com/wbrown/janus-quest/quest/parser"
	"github.com/wbrown/janus-quest/quest/program"
	"github.com/wbrown/janus-quest/quest/storage"
)

// rootOptions holds flags shared by every subcommand
type rootOptions struct {
	verbose bool
	world   string
	db      string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "quest",
		Short:         "Quest and dialogue scripting",
		Long:          "Parse, evaluate and walk quest scripts against a world of host values.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show evaluation annotations on stderr")
	cmd.PersistentFlags().StringVar(&opts.world, "world", "", "YAML file of host values")
	cmd.PersistentFlags().StringVar(&opts.db, "db", "", "badger database path (default: in-memory host)")

	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newEvalCommand(opts))
	cmd.AddCommand(newRunCommand(opts))

	return cmd
}

func loadProgram(path string) (*program.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	prog, err := parser.ParseProgram(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// openHost builds the host named by the flags and seeds it from the world
// file. The returned func releases the host.
func openHost(opts *rootOptions) (eval.Host, func(), error) {
	var world map[string]quest.Value
	if opts.world != "" {
		f, err := os.Open(opts.world)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open world: %w", err)
		}
		defer f.Close()
		if world, err = storage.LoadWorld(f); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", opts.world, err)
		}
	}

	if opts.db == "" {
		host := storage.NewMemoryHost(nil)
		host.Load(world)
		return host, func() {}, nil
	}

	host, err := storage.NewBadgerHost(opts.db, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := host.Load(world); err != nil {
		host.Close()
		return nil, nil, err
	}
	closeHost := func() {
		if err := host.Err(); err != nil {
			log.Printf("host: %v", err)
		}
		if err := host.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}
	return host, closeHost, nil
}

func handlerFor(opts *rootOptions) annotations.Handler {
	if !opts.verbose {
		return nil
	}
	return annotations.ConsoleHandler()
}
