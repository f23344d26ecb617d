package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/distfs/filepool/filepool"
)

var (
	getNeedClean bool
	getMetaFile  string
)

var getCmd = &cobra.Command{
	Use:   "get <target-path>",
	Short: "Draw a chunk file from the pool and rename it to target-path",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			die("could not load pool configuration:", err)
		}

		metaPage := make([]byte, cfg.MetaPageSize)
		if getMetaFile != "" {
			data, err := os.ReadFile(getMetaFile)
			if err != nil {
				die("could not read metadata page file:", err)
			}
			if uint32(len(data)) != cfg.MetaPageSize {
				die(fmt.Sprintf("metadata page file is %d bytes, want %d", len(data), cfg.MetaPageSize))
			}
			copy(metaPage, data)
		}

		p := filepool.New(filepool.NewOSFS(), cfg, nil)
		if err := p.Initialize(); err != nil {
			die("could not open pool:", err)
		}
		if err := p.GetFile(args[0], metaPage, getNeedClean); err != nil {
			die("could not get file:", err)
		}
		fmt.Println(args[0])
	},
}

func init() {
	getCmd.Flags().BoolVar(&getNeedClean, "need-clean", false, "require a zero-filled chunk")
	getCmd.Flags().StringVar(&getMetaFile, "meta-file", "", "file whose contents become the chunk's metadata page")
}
