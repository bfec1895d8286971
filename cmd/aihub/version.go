package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/aihub/internal/tui"
)

var versionBanner bool

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show version information",
	Annotations: map[string]string{skipConfig: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if versionBanner {
			fmt.Fprintln(out, tui.Banner(Version))
		}
		fmt.Fprintf(out, "aihub %s\n", Version)
		fmt.Fprintln(out, "AI Tool Hub terminal client")
		fmt.Fprintln(out, "github.com/pders01/aihub")
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionBanner, "banner", false, "print the logo too")
}
