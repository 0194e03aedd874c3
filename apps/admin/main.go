package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/draft"
	"github.com/trezcool/kaushal/core/flows"
	logsvc "github.com/trezcool/kaushal/services/logger"
	"github.com/trezcool/kaushal/storage"
)

func main() {
	if err := start(); err != nil {
		fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		os.Exit(1)
	}
}

func start() error {
	conf := core.NewConfig()
	logger, err := logsvc.NewRollbarLogger(conf)
	if err != nil {
		return err
	}
	logger.Enable(!conf.Debug)
	defer func() { _ = logger.Sync() }()

	st, err := storage.Open(context.Background(), conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error("Failed to close storage", err)
		}
	}()

	store, err := draft.NewStore(st.Drafts, logger)
	if err != nil {
		return err
	}

	cli := commandLine{
		store:       store,
		registry:    flows.DefaultRegistry(),
		submissions: st.Submissions,
		in:          os.Stdin,
		out:         os.Stdout,
		stdinFd:     int(os.Stdin.Fd()),
	}
	if st.DB != nil {
		cli.db = st.DB.DB
	}
	return cli.run(os.Args)
}
