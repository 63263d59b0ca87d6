// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakepool/api"
	"github.com/vechain/stakepool/api/middleware"
	"github.com/vechain/stakepool/builtin/protocol"
	"github.com/vechain/stakepool/chain"
	"github.com/vechain/stakepool/cmd/stakepool/httpserver"
	"github.com/vechain/stakepool/config"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/metrics"
)

var (
	version   string
	gitCommit string
	gitTag    string
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "stakepool",
		Usage:     "Liquid staking pool node",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			inMemoryFlag,
			cacheFlag,
			headWindowFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			apiSlowQueriesThresholdFlag,
			apiLog5xxErrorsFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			logDirFlag,
			pprofFlag,
			enableMetricsFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
		Commands: []cli.Command{
			{
				Name:   "default-config",
				Usage:  "print the dev network config as YAML",
				Action: printDefaultConfig,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal, cancel := handleExitSignal()
	defer cancel()

	logLevel, closeLogs, err := initLogger(ctx)
	if err != nil {
		return err
	}
	defer closeLogs()
	defer func() { log.Info("exited") }()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	db, instanceDir, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing pool database..."); db.Close() }()

	window, err := readIntFromUInt64Flag(ctx.Uint64(headWindowFlag.Name))
	if err != nil {
		return err
	}
	tracker, err := chain.New(db, window)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	p, err := protocol.New(db, tracker, cfg)
	if err != nil {
		return err
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	apiURL, closeAPI, err := httpserver.StartAPIServer(
		ctx.String(apiAddrFlag.Name),
		p,
		api.Options{
			AllowedOrigins: ctx.String(apiCorsFlag.Name),
			PprofOn:        ctx.Bool(pprofFlag.Name),
			EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
			RequestLogs: middleware.Options{
				Enabled:              apiLogs,
				SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
				Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
			},
		},
		time.Duration(ctx.Uint64(apiTimeoutFlag.Name))*time.Millisecond,
	)
	if err != nil {
		return err
	}
	defer func() { log.Info("stopping API server..."); closeAPI() }()

	adminURL := "disabled"
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeAdmin, err := httpserver.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, apiLogs, p)
		if err != nil {
			return err
		}
		defer func() { log.Info("stopping admin server..."); closeAdmin() }()
		adminURL = url
	}

	printStartupMessage(cfg, tracker, instanceDir, apiURL, adminURL)

	<-exitSignal.Done()
	log.Info("exit signal received")
	return nil
}

func printStartupMessage(cfg *config.Config, tracker *chain.Tracker, dataDir, apiURL, adminURL string) {
	head := tracker.Head()
	fmt.Printf(`Starting %v
    Network      [ chain id %v ]
    Head         [ #%v %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
    Admin portal [ %v ]
`,
		fullVersion(),
		cfg.ChainID,
		head.Number, head.Hash.AbbrevString(),
		dataDir,
		apiURL,
		adminURL,
	)
}

func printDefaultConfig(*cli.Context) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return err
	}
	return enc.Close()
}
