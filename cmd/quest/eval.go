package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wbrown/janus-quest/quest/eval"
	"github.com/wbrown/janus-quest/quest/runner"
)

func newEvalCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <script> <node>",
		Short: "Run a single pass over one node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}
			node, ok := prog.Source(args[1])
			if !ok {
				return fmt.Errorf("%w: %q", runner.ErrUnknownNode, args[1])
			}

			host, closeHost, err := openHost(opts)
			if err != nil {
				return err
			}
			defer closeHost()

			env := runner.NewEnv(prog, host)
			defs, _ := env.Defs(node.Name)
			facts := make(eval.Facts)

			var evalOpts []eval.Option
			if h := handlerFor(opts); h != nil {
				evalOpts = append(evalOpts, eval.WithHandler(h))
			}
			r := eval.Pass(node, facts, defs, host, evalOpts...)

			out := cmd.OutOrStdout()
			tf := eval.NewTableFormatter()

			fmt.Fprintln(out, color.New(color.Bold).Sprint("Emitted"))
			fmt.Fprintln(out, tf.FormatValues(r.Emit))
			if r.Next != nil {
				fmt.Fprintf(out, "%s %s\n\n", color.New(color.Bold).Sprint("Next:"), r.Next)
			}
			fmt.Fprintln(out, color.New(color.Bold).Sprint("Facts"))
			fmt.Fprintln(out, tf.FormatFacts(facts))
			fmt.Fprintln(out, color.New(color.Bold).Sprint("Definitions"))
			fmt.Fprintln(out, tf.FormatDefs(defs))
			return nil
		},
	}
}
