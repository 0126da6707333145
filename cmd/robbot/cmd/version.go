package cmd

import (
	"fmt"
	"runtime"

	"github.com/msto63/robbot/pkg/core/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Visar versionen",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("robbot v%s\n", version.Platform)
		fmt.Printf("  Git Commit: %s\n", version.Commit)
		fmt.Printf("  Build Date: %s\n", version.BuildDate)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Println()
		for _, c := range []string{"gateway", "interpreter", "scheduler", "admin"} {
			fmt.Printf("  %-12s %s\n", c, version.ComponentVersion(c))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
