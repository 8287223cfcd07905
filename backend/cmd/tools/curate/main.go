// Command curate runs the bulk channel maintenance jobs against the store
// configured in the config folder. Every operation is idempotent.
//
//	curate -config_folder backend/config assign-sections assign-orders
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/itchan-dev/kanaal/backend/internal/service"
	"github.com/itchan-dev/kanaal/backend/internal/setup"
	"github.com/itchan-dev/kanaal/shared/config"
	"github.com/itchan-dev/kanaal/shared/logger"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: curate [-config_folder dir] operation...\n\noperations:\n")
		for _, op := range service.CurationOperations {
			fmt.Fprintf(flag.CommandLine.Output(), "  %s\n", op)
		}
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := setup.OpenStore(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer storage.Cleanup()

	curation := service.NewCuration(storage, service.NewIntegritySweeper(storage), cfg.Public.SectionRules, cfg.Public.DefaultChannelVisible)

	failed := false
	for _, op := range flag.Args() {
		report, err := curation.Run(ctx, op)
		if err != nil {
			logger.Log.Error("curation failed", "operation", op, "error", err)
			failed = true
			continue
		}
		fmt.Printf("%-20s touched=%d already_consistent=%d skipped=%d\n",
			report.Operation, report.Touched, report.AlreadyConsistent, report.Skipped)
	}
	if failed {
		os.Exit(1)
	}
}
