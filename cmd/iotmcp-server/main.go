// Command iotmcp-server serves the key filter tools over stdio.
//
// Usage:
//
//	iotmcp-server [-config path]
//
// Configuration comes from defaults, iotmcp.yaml and IOTMCP_* environment
// variables. Logs go to stderr so stdout carries only protocol messages.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/localrivet/iotmcp/config"
	"github.com/localrivet/iotmcp/filtertools"
	"github.com/localrivet/iotmcp/logx"
	"github.com/localrivet/iotmcp/server"
	"github.com/localrivet/iotmcp/transport/stdio"
)

func main() {
	configPath := flag.String("config", "", "config file (.yaml) or directory containing iotmcp.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "iotmcp-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Log.Output == "stdout" {
		return fmt.Errorf("log.output stdout would corrupt the stdio transport")
	}

	logger, err := logx.New(cfg.Log)
	if err != nil {
		return err
	}

	srv := server.NewServer(cfg.Server.Name,
		server.WithLogger(logger),
		server.WithVersion(cfg.Server.Version),
		server.WithInstructions(cfg.Server.Instructions),
	)

	tools, err := filtertools.New(logger, cfg.Filter.MaxNestingDepth)
	if err != nil {
		return err
	}
	if err := tools.Register(srv); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "max_nesting_depth", cfg.Filter.MaxNestingDepth)
	if err := srv.Serve(ctx, stdio.NewStdioTransport(logger)); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
