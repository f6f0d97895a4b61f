/*
 * This file is part of Loqa (https://github.com/loqalabs/loqa).
 * Copyright (C) 2025 Loqa Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/loqalabs/loqa-audiofx/internal/audio"
	"github.com/loqalabs/loqa-audiofx/internal/compat"
	"github.com/loqalabs/loqa-audiofx/internal/config"
	"github.com/loqalabs/loqa-audiofx/internal/device"
	"github.com/loqalabs/loqa-audiofx/internal/effects"
	"github.com/loqalabs/loqa-audiofx/internal/logging"
	"github.com/loqalabs/loqa-audiofx/internal/nats"
	"github.com/loqalabs/loqa-audiofx/internal/session"
)

// options holds what the command line adds on top of config.Config.
type options struct {
	cfg           config.Config
	listDenylists bool
	openStreams   bool
}

// parseFlags registers flags defaulting to the environment configuration, so
// a flag wins over the environment.
func parseFlags(args []string, cfg config.Config, output io.Writer) (options, error) {
	fs := flag.NewFlagSet("loqa-audiofx", flag.ContinueOnError)
	fs.SetOutput(output)

	opts := options{cfg: cfg}
	c := &opts.cfg
	fs.StringVar(&c.PuckID, "id", c.PuckID, "Puck identifier")
	fs.StringVar(&c.NATSURL, "nats", c.NATSURL, "NATS URL for remote overrides (empty disables)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&c.LogJSON, "log-json", c.LogJSON, "Log as JSON instead of console output")
	fs.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "Address to serve /metrics on (empty disables)")
	fs.IntVar(&c.Channels, "channels", c.Channels, "Channels per stream")
	fs.BoolVar(&c.ForceSoftwareAEC, "force-software-aec", c.ForceSoftwareAEC, "Use the software echo canceler")
	fs.BoolVar(&c.ForceSoftwareAGC, "force-software-agc", c.ForceSoftwareAGC, "Use the software gain control")
	fs.BoolVar(&c.ForceSoftwareNS, "force-software-ns", c.ForceSoftwareNS, "Use the software noise suppressor")
	fs.IntVar(&c.SampleRateHz, "sample-rate", c.SampleRateHz, "Override the native sample rate in Hz (0 keeps the platform value)")
	fs.StringVar(&c.Device.Model, "model", c.Device.Model, "Device model used for denylist matching")
	fs.BoolVar(&opts.listDenylists, "list-denylists", false, "Print the device denylists and exit")
	fs.BoolVar(&opts.openStreams, "open", false, "Open capture and playback streams at the planned rate")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if err := opts.cfg.Validate(); err != nil {
		return options{}, err
	}
	return opts, nil
}

// printDenylists writes one line per capability.
func printDenylists(w io.Writer) {
	for _, c := range compat.Capabilities() {
		fmt.Fprintf(w, "%-20s %s\n", c.String()+":", strings.Join(compat.Denylisted(c), ", "))
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	opts, err := parseFlags(os.Args[1:], cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	if opts.listDenylists {
		printDenylists(os.Stdout)
		return
	}

	logger, err := logging.New(opts.cfg.LogLevel, os.Stderr, !opts.cfg.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	if err := run(opts, logger); err != nil {
		logger.Fatal().Err(err).Msg("loqa-audiofx failed")
	}
}

func run(opts options, logger zerolog.Logger) error {
	cfg := opts.cfg
	logger = logger.With().Str("puck_id", cfg.PuckID).Logger()
	logger.Info().Msg("starting loqa-audiofx")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	policy := effects.NewPolicy(
		effects.WithLogger(logger),
		effects.WithMetrics(effects.NewMetrics(reg)),
	)
	cfg.ApplyOverrides(policy)

	backend := audio.NewPortAudioBackend()
	if err := backend.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := backend.Terminate(); err != nil {
			logger.Warn().Err(err).Msg("failed to terminate audio backend")
		}
	}()

	// The puck runs as a dedicated audio service; recording is always allowed.
	perms := device.GrantAll(device.PermissionRecordAudio, device.PermissionModifyAudioSettings)
	planner := session.NewPlanner(device.StaticProvider(cfg.Identity()), policy, backend, perms, logger)

	plan, err := planner.Plan()
	if err != nil {
		return fmt.Errorf("failed to plan session: %w", err)
	}

	if opts.openStreams {
		s, err := session.Open(backend, plan, cfg.Channels)
		if err != nil {
			return err
		}
		defer func() {
			if err := s.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close session")
			}
		}()
		logger.Info().Int("sample_rate_hz", plan.SampleRateHz).Msg("streams open")
	}

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server stopped")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}

	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		subscriber := nats.NewOverrideSubscriber(nats.NewPuckNATSConnectionAdapter(nc), cfg.PuckID, policy, logger)
		defer subscriber.Close()

		// Overrides take effect on the next session; replan so the log shows it.
		subscriber.OnApplied = func(effects.State) {
			if _, err := planner.Plan(); err != nil {
				logger.Error().Err(err).Msg("failed to replan session")
			}
		}
		if err := subscriber.Start(); err != nil {
			return err
		}
	}

	if !opts.openStreams && cfg.MetricsAddr == "" && cfg.NATSURL == "" {
		return nil
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("shutting down")
	return nil
}
