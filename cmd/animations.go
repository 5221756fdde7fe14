package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CreateAnimationsCmd creates the animations command.
func CreateAnimationsCmd() *cobra.Command {
	var boardFile string

	cmd := &cobra.Command{
		Use:   "animations",
		Short: "List available animations",
		Long:  `Lists the preset animations and the ones defined in the board file, with their frames.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			library, err := loadLibrary(boardFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, a := range library.List() {
				kind := "loop"
				if a.Static() {
					kind = "static"
				}
				fmt.Fprintf(out, "%-16s %-6s %s\n", a.Name(), kind, a)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&boardFile, "board", "leds.toml", "Board file with custom animations")

	return cmd
}
