package main

import (
	"github.com/distfs/filepool/filepool"
	"github.com/distfs/filepool/persist"
)

var (
	poolDir    string
	configPath string
)

const defaultConfigPath = "filepoolctl.cfg"

var configMetadata = persist.Metadata{
	Header:  "filepoolctl config",
	Version: "1.0",
}

// cachedConfig is the on-disk shape of the pool configuration, persisted
// between invocations so that get/recycle/status don't need every geometry
// flag repeated on every call.
type cachedConfig struct {
	filepool.Config
}

func loadConfig() (filepool.Config, error) {
	var cfg cachedConfig
	if err := persist.LoadJSON(configMetadata, &cfg, configPath); err != nil {
		return filepool.Config{}, err
	}
	if poolDir != "" {
		cfg.FilePoolDir = poolDir
	}
	return cfg.Config, nil
}

func saveConfig(cfg filepool.Config) error {
	return persist.SaveJSON(configMetadata, cachedConfig{cfg}, configPath)
}
