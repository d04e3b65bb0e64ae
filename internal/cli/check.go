package cli

import (
	"fmt"
	"os/exec"

	"github.com/me/mcp/internal/commands"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <command-file>",
		Short: "Parse a command file and check that every program can be found",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmds, err := commands.LoadFile(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			missing := 0
			for i, c := range cmds {
				path, err := exec.LookPath(c.Argv[0])
				if err != nil {
					missing++
					fmt.Fprintf(w, "%3d  %-40s  not found\n", i, c)
					continue
				}
				fmt.Fprintf(w, "%3d  %-40s  %s\n", i, c, path)
			}
			fmt.Fprintf(w, "%d %s, %d not found\n", len(cmds), plural(len(cmds), "command"), missing)

			if missing > 0 {
				return fmt.Errorf("%d %s cannot be executed", missing, plural(missing, "command"))
			}
			return nil
		},
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
