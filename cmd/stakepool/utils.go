// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakepool/config"
	"github.com/vechain/stakepool/log"
	"github.com/vechain/stakepool/log/rotatewriter"
	"github.com/vechain/stakepool/lvldb"
)

// homeDir returns home dir of current user if have, or current working dir
func homeDir() (string, error) {
	if home := os.Getenv("HOME"); home != "" {
		return home, nil
	}
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	if u.HomeDir != "" {
		return u.HomeDir, nil
	}
	return os.Getwd()
}

func defaultDataDir() string {
	if home, err := homeDir(); err == nil {
		return filepath.Join(home, ".org.vechain.stakepool")
	}
	return ""
}

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, fmt.Errorf("invalid value %d, must be <= %d", val, math.MaxInt)
	}
	return int(val), nil
}

// initLogger installs the root handler. The returned closer flushes the log file, if any.
func initLogger(ctx *cli.Context) (*slog.LevelVar, func(), error) {
	verbosity, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return nil, nil, errors.WithMessage(err, verbosityFlag.Name)
	}

	var (
		w     io.Writer = os.Stdout
		color           = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		done            = func() {}
	)
	if dir := ctx.String(logDirFlag.Name); dir != "" {
		rw, err := rotatewriter.New(rotatewriter.WithDir(dir))
		if err != nil {
			return nil, nil, err
		}
		if err := rw.Start(); err != nil {
			return nil, nil, err
		}
		// escape codes would end up in the files
		color = false
		w = io.MultiWriter(os.Stdout, rw)
		done = func() { rw.Close() }
	}

	lvl := log.Init(w, log.Options{
		Verbosity: verbosity,
		JSON:      ctx.Bool(jsonLogsFlag.Name),
		Color:     color,
	})
	return lvl, done, nil
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.String(configFlag.Name)
	if path == "" {
		log.Warn("no config given, running the dev network")
		return config.Default(), nil
	}
	return config.Load(path)
}

// openDB opens the pool database of the network, in memory when asked to.
func openDB(ctx *cli.Context, cfg *config.Config) (*lvldb.LevelDB, string, error) {
	if ctx.Bool(inMemoryFlag.Name) {
		db, err := lvldb.NewMem()
		return db, "memory", err
	}

	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return nil, "", errors.Errorf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name)
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%d", cfg.ChainID))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return nil, "", errors.Wrapf(err, "create data dir at '%v'", instanceDir)
	}

	cacheMB, err := readIntFromUInt64Flag(ctx.Uint64(cacheFlag.Name))
	if err != nil {
		return nil, "", errors.WithMessage(err, cacheFlag.Name)
	}
	dir := filepath.Join(instanceDir, "pool.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, "", errors.Wrapf(err, "open pool database at '%v'", dir)
	}
	return db, instanceDir, nil
}

// handleExitSignal returns a context canceled on the first interrupt.
func handleExitSignal() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
