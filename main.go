/*
Solar system testbed running on the volchara engine.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/volchara/engine"
	"github.com/spaghettifunk/volchara/engine/config"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/testbed"
)

func main() {
	configPath := flag.String("config", "", "path to a .toml or .yaml configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		core.LogFatal("failed to load configuration: %s", err)
	}
	if err := core.LogConfigure(cfg.LogOptions()); err != nil {
		core.LogFatal("failed to configure logging: %s", err)
	}
	defer core.LogClose()

	tb := testbed.NewTestGame()

	e, err := engine.New(tb.Game, cfg)
	if err != nil {
		core.LogFatal(err.Error())
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("failed to initialize engine: %s", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal(runErr.Error())
	}
}
