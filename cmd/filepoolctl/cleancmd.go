package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/distfs/filepool/filepool"
)

var cleanDuration time.Duration

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Run the background cleaner in the foreground",
	Long: `Run the background cleaner in the foreground until interrupted or
until the duration given by --for elapses, printing the dirty/clean split
once a second.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			die("could not load pool configuration:", err)
		}
		cfg.NeedClean = true

		p := filepool.New(filepool.NewOSFS(), cfg, nil)
		if err := p.Initialize(); err != nil {
			die("could not open pool:", err)
		}
		if err := p.StartCleaning(); err != nil {
			die("could not start cleaner:", err)
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt)
		defer signal.Stop(sigChan)

		var deadline <-chan time.Time
		if cleanDuration > 0 {
			deadline = time.After(cleanDuration)
		}

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
	loop:
		for {
			select {
			case <-ticker.C:
				st := p.GetState()
				fmt.Printf("\rdirty=%d clean=%d", st.DirtyLeft, st.CleanLeft)
			case <-sigChan:
				fmt.Println("\rcaught stop signal, quitting...")
				break loop
			case <-deadline:
				break loop
			}
		}

		if err := p.StopCleaning(); err != nil {
			die("could not stop cleaner:", err)
		}
		fmt.Println()
	},
}

func init() {
	cleanCmd.Flags().DurationVar(&cleanDuration, "for", 0, "stop after this duration, 0 to run until interrupted")
}
