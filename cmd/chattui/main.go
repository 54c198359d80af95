package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/matheus3301/chatline/internal/client"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/instance"
	"github.com/matheus3301/chatline/internal/logging"
	"github.com/matheus3301/chatline/internal/syncstore"
	"github.com/matheus3301/chatline/internal/tui"
)

func main() {
	instanceFlag := flag.String("instance", "", "instance name (overrides config default)")
	serverFlag := flag.String("server", "", "server URL (overrides config)")
	flag.Parse()

	name := instance.Resolve(*instanceFlag)
	if err := instance.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := config.LoadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(instance.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	serverURL := cfg.Client.ServerURL
	if *serverFlag != "" {
		serverURL = *serverFlag
	}

	logger, err := logging.NewFileOnly(filepath.Join(instance.LogDir(name), "chattui.log"), name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	c, err := client.New(serverURL, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	store := syncstore.New(c, syncstore.DialClient(c), cfg.Client.PageSize, nil, logger)
	defer func() { _ = store.Close() }()

	if err := tui.New(store, name, logger).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
