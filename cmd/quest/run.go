package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wbrown/janus-quest/quest"
	"github.com/wbrown/janus-quest/quest/program"
	"github.com/wbrown/janus-quest/quest/runner"
)

type runOptions struct {
	choices   []string
	advance   bool
	maxSteps  int
	keepFacts bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <script> <start>",
		Short: "Walk a script from a start node",
		Long: `Walk a script from a start node, printing what each pass emits.

Select prompts are answered from --choose in order. Once the choices run
out the walk stops at the next select. Awaits stop the walk unless
--advance is set.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalk(cmd.OutOrStdout(), root, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringSliceVar(&opts.choices, "choose", nil, "select keys to answer, in order")
	cmd.Flags().BoolVar(&opts.advance, "advance", false, "grant every await")
	cmd.Flags().IntVar(&opts.maxSteps, "max-steps", runner.DefaultOptions().MaxSteps, "stop after this many passes (0 for no limit)")
	cmd.Flags().BoolVar(&opts.keepFacts, "keep-facts", false, "share one fact table across the walk")
	return cmd
}

func runWalk(out io.Writer, root *rootOptions, opts *runOptions, path, start string) error {
	prog, err := loadProgram(path)
	if err != nil {
		return err
	}
	host, closeHost, err := openHost(root)
	if err != nil {
		return err
	}
	defer closeHost()

	choices := opts.choices
	cursorOpts := runner.DefaultOptions()
	cursorOpts.MaxSteps = opts.maxSteps
	cursorOpts.KeepFacts = opts.keepFacts
	cursorOpts.Handler = handlerFor(root)
	cursorOpts.Chooser = func(node string, sel program.Select) (string, bool) {
		if len(choices) == 0 {
			return "", false
		}
		key := choices[0]
		choices = choices[1:]
		fmt.Fprintf(out, "%s %s\n", color.YellowString("> "+node+":"), key)
		return key, true
	}

	c, err := runner.NewEnv(prog, host).CursorWithOptions(start, cursorOpts)
	if err != nil {
		return err
	}

	steps := 0
	for {
		visits, err := c.Run()
		for _, v := range visits {
			printVisit(out, v)
		}
		steps += len(visits)
		if err != nil {
			return err
		}

		await, ok := c.Pending().(program.Await)
		if !ok || !opts.advance {
			break
		}
		if opts.maxSteps > 0 && steps >= opts.maxSteps {
			return fmt.Errorf("%w: %d steps at %q", runner.ErrStepLimit, opts.maxSteps, c.Current())
		}
		fmt.Fprintf(out, "%s %s\n", color.YellowString("> advance:"), await.Node)
		if err := c.Advance(); err != nil {
			return err
		}
	}

	switch p := c.Pending().(type) {
	case program.Select:
		fmt.Fprintf(out, "%s choose one of %v\n", color.YellowString("waiting at "+c.Current()+":"), p.Keys())
	case program.Await:
		fmt.Fprintf(out, "%s await %s\n", color.YellowString("waiting at "+c.Current()+":"), p.Node)
	}
	return nil
}

func printVisit(out io.Writer, v runner.Visit) {
	fmt.Fprintf(out, "%s\n", color.CyanString("[%s]", v.Node))
	for _, value := range v.Emit {
		fmt.Fprintf(out, "  %s\n", quest.Display(value))
	}
}
