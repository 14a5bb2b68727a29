package main

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const envVarPrefix = "FSIMAGE"

// Config is loaded once per invocation from the environment. There is no
// config file layer here — unlike a long-running server, a single CLI
// invocation has nothing worth persisting beyond the image file itself.
type Config struct {
	// Path is the host file holding the binary image this invocation
	// operates on.
	Path string `envconfig:"FSIMAGE_PATH" default:"fsimage.bin"`
	// InitSlots is the inode/block slot count used to synthesise a
	// brand-new image when the configured path doesn't exist yet.
	InitSlots uint16 `envconfig:"FSIMAGE_INIT_SLOTS" default:"256"`
}

func loadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &c, nil
}
