package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distfs/filepool/filepool"
)

var recycleCmd = &cobra.Command{
	Use:   "recycle <path>",
	Short: "Return a chunk file to the pool as dirty",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			die("could not load pool configuration:", err)
		}

		p := filepool.New(filepool.NewOSFS(), cfg, nil)
		if err := p.Initialize(); err != nil {
			die("could not open pool:", err)
		}
		if err := p.RecycleFile(args[0]); err != nil {
			die("could not recycle file:", err)
		}
		fmt.Println("recycled", args[0])
	},
}
