// lcdmon
// Copyright (c) 2026 The lcdmon Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of lcdmon.
//
// lcdmon is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// lcdmon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with lcdmon.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/jonboulle/clockwork"
	"github.com/lcdmon/lcdmon/pkg/config"
	"github.com/lcdmon/lcdmon/pkg/helpers"
	"github.com/lcdmon/lcdmon/pkg/lcd"
	"github.com/lcdmon/lcdmon/pkg/service"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const appName = "lcdmon"

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.String(
		"port",
		"",
		"serial port of the display (default AUTO)",
	)
	theme := flag.String(
		"theme",
		"",
		"theme directory override",
	)
	simulate := flag.Bool(
		"simulate",
		false,
		"drive a simulated display served over HTTP",
	)
	debug := flag.Bool(
		"debug",
		false,
		"enable debug logging",
	)
	flag.Parse()

	configDir := filepath.Join(xdg.ConfigHome, appName)
	logDir := filepath.Join(xdg.StateHome, appName)

	if err := helpers.InitLogging(logDir, *debug, []io.Writer{os.Stderr}); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}

	cfg, err := config.NewConfig(configDir, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *port != "" {
		cfg.SetPort(*port)
	}
	if *theme != "" {
		cfg.SetThemePath(*theme)
	}
	if *simulate {
		cfg.SetRevision(config.RevisionSimulated)
	}

	defer func() {
		if err := recover(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Panic: %s\n", err)
			log.Fatal().Msgf("panic: %v", err)
		}
	}()

	svc, err := service.New(cfg, afero.NewOsFs(), clockwork.NewRealClock())
	if err != nil {
		return err
	}

	if err := svc.Start(); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	if cfg.Revision() == config.RevisionSimulated {
		log.Info().Msgf("simulated display at http://%s", lcd.DefaultSimulatedAddr)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	log.Info().Msgf("received signal %s, shutting down", sig)

	if err := svc.Stop(); err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}
	return nil
}
