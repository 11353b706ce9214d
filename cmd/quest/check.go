package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/wbrown/janus-quest/quest/program"
)

func newCheckCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Parse a script and list its blocks",
		Long: `Parse a script and list its nodes and definition nodes.

With --strict, transitions to nodes the script does not define are errors.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loadProgram(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, b := range prog.Blocks {
				switch n := b.(type) {
				case *program.SourceNode:
					fmt.Fprintf(out, "%s  %d statements\n", color.CyanString(n.Name), len(n.Statements))
				case *program.DefNode:
					fmt.Fprintf(out, "%s  %d definitions\n", color.MagentaString(n.Name+" def"), len(n.Entries))
				}
			}

			if err := prog.Validate(); err != nil {
				if strict {
					return err
				}
				fmt.Fprintf(out, "%s %v\n", color.YellowString("warning:"), err)
				return nil
			}
			fmt.Fprintln(out, color.GreenString("ok"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail on unknown transition targets")
	return cmd
}
