package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distfs/filepool/filepool"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the pool's inventory and I/O counters as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			die("could not load pool configuration:", err)
		}

		p := filepool.New(filepool.NewOSFS(), cfg, nil)
		if err := p.Initialize(); err != nil {
			die("could not open pool:", err)
		}

		out, err := json.MarshalIndent(p.GetState(), "", "  ")
		if err != nil {
			die("could not marshal pool state:", err)
		}
		fmt.Println(string(out))
	},
}
