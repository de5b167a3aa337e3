// Command flipdotd is the flip-dot panel edge driver: it polls (and
// optionally accepts pushed) content from a remote server and drives it
// onto a chain of flip-dot hardware modules over serial.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flipdot/driver/internal/config"
	"github.com/flipdot/driver/internal/driver"
	"github.com/flipdot/driver/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the driver's JSON config file")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "flipdotd: --config is required")
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flipdotd: %v\n", err)
		return 1
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flipdotd: %v\n", err)
		return 1
	}
	log := logging.New(os.Stdout, level)

	d, err := driver.New(cfg, log)
	if err != nil {
		log.Err().Err(err).Log("flipdotd: startup failed")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.Run(ctx); err != nil {
		log.Err().Err(err).Log("flipdotd: exited with error")
		return 1
	}
	return 0
}
