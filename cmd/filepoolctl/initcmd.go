package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/distfs/filepool/filepool"
)

var (
	initChunkSize      uint32
	initMetaPageSize   uint32
	initBlockSize      uint32
	initPreAllocateNum uint64
	initBytesPerWrite  uint32
	initRetryTimes     uint32
	initNeedClean      bool
	initIOPS4Clean     uint32
	initMinChunkFiles  uint64
)

var initCmd = &cobra.Command{
	Use:   "init <pool-dir>",
	Short: "Create and format a new chunk file pool",
	Long: `Create and format a new chunk file pool.

Initializes the pool directory, preallocates the configured number of
chunk files, and caches the resulting configuration so that later get,
recycle, status, and clean calls don't need it repeated.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := filepool.Config{
			GetFileFromPool: true,
			FilePoolDir:     args[0],
			FileSize:        initChunkSize,
			MetaPageSize:    initMetaPageSize,
			BlockSize:       initBlockSize,
			PreAllocateNum:  initPreAllocateNum,
			BytesPerWrite:   initBytesPerWrite,
			RetryTimes:      initRetryTimes,
			NeedClean:       initNeedClean,
			IOPS4Clean:      initIOPS4Clean,
			MinChunkFileNum: initMinChunkFiles,
		}

		p := filepool.New(filepool.NewOSFS(), cfg, nil)
		if err := p.Initialize(); err != nil {
			die("could not initialize pool:", err)
		}
		if err := saveConfig(cfg); err != nil {
			die("pool initialized, but could not cache its configuration:", err)
		}
		fmt.Printf("pool initialized at %s: %d chunk files ready\n", args[0], p.Size())
	},
}

func init() {
	initCmd.Flags().Uint32Var(&initChunkSize, "chunk-size", 16<<20, "chunk payload size in bytes")
	initCmd.Flags().Uint32Var(&initMetaPageSize, "meta-page-size", 4096, "metadata page size in bytes")
	initCmd.Flags().Uint32Var(&initBlockSize, "block-size", 0, "underlying block size, recorded in the pool state")
	initCmd.Flags().Uint64Var(&initPreAllocateNum, "count", 16, "number of chunk files to preallocate")
	initCmd.Flags().Uint32Var(&initBytesPerWrite, "bytes-per-write", 1<<20, "write slice size used while zero-filling")
	initCmd.Flags().Uint32Var(&initRetryTimes, "retry-times", 3, "retries for GetFile")
	initCmd.Flags().BoolVar(&initNeedClean, "clean", true, "run the background cleaner")
	initCmd.Flags().Uint32Var(&initIOPS4Clean, "iops4clean", 64, "cleaner IOPS cap")
	initCmd.Flags().Uint64Var(&initMinChunkFiles, "min-chunk-files", 1, "population threshold init blocks on before returning")
}
