package main

import (
	"log"
	"path/filepath"
	"time"

	"github.com/mahlburgc/serialmon/internal"
	"github.com/mahlburgc/serialmon/internal/config"
	"github.com/mahlburgc/serialmon/internal/serialport"
)

func main() {
	flags := internal.GetFlags()

	if flags.List {
		serialport.ListDetailed()
		return
	}

	configPath := flags.ConfigPath
	if configPath == "" {
		dir, err := config.DefaultDir()
		if err != nil {
			log.Fatal(err)
		}
		configPath = filepath.Join(dir, "config.yaml")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger := internal.StartLogger(cfg.Dir(), cfg.DebugLog, cfg.LogRetentionDays)
	if logger != nil {
		defer logger.Close()
	}

	if flags.Port != "" {
		cfg.Port = flags.Port
	}
	if flags.BaudRate != "" {
		cfg.BaudRate = flags.BaudRate
	}

	dev := internal.Device{List: serialport.List, Open: serialport.Open}
	if flags.Mock {
		mock := serialport.NewMockDevice(500 * time.Millisecond)
		dev = internal.Device{List: mock.List, Open: mock.Open, Mock: mock}
		// keep the real settings untouched
		cfg = cfg.Detached()
		cfg.Port = serialport.MockName
	}

	internal.RunTui(&cfg, flags, dev)
}
