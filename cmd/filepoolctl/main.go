package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/distfs/filepool/build"
)

// Exit codes, inspired by sysexits.h.
const (
	exitCodeGeneral = 1
	exitCodeUsage   = 64
)

var rootCmd *cobra.Command

// die prints its arguments to stderr, then exits the program.
func die(args ...interface{}) {
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(exitCodeGeneral)
}

func main() {
	root := &cobra.Command{
		Use:   "filepoolctl",
		Short: "filepoolctl v" + build.Version,
		Long:  "filepoolctl v" + build.Version + " - manage a local chunk file pool",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Usage()
		},
	}
	rootCmd = root

	root.AddCommand(initCmd)
	root.AddCommand(statusCmd)
	root.AddCommand(getCmd)
	root.AddCommand(recycleCmd)
	root.AddCommand(cleanCmd)
	root.AddCommand(versionCmd)

	root.PersistentFlags().StringVarP(&poolDir, "pool-dir", "d", "", "pool directory (overrides the cached config)")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to the cached pool configuration")

	if err := root.Execute(); err != nil {
		os.Exit(exitCodeUsage)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("filepoolctl v" + build.Version)
	},
}
