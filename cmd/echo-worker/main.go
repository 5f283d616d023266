/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/discovery-handler/pkg/echo"
	"github.com/carverauto/discovery-handler/pkg/lifecycle"
	"github.com/carverauto/discovery-handler/pkg/logger"
	"github.com/carverauto/discovery-handler/pkg/sandbox"
	"github.com/carverauto/discovery-handler/pkg/version"
)

func main() {
	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("Fatal error")
	}
}

func run() error {
	root := flag.String("root", "/tmp/wde-dir", "Sandbox root shared with the discovery handler")
	interval := flag.Duration("interval", 2*time.Second, "Delay between passes over the sandbox")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logConfig := logger.DefaultConfig()

	if err := lifecycle.InitializeLogger(ctx, logConfig); err != nil {
		return err
	}

	defer func() { _ = lifecycle.ShutdownLogger() }()

	log, err := lifecycle.CreateComponentLogger(ctx, "echo-worker", logConfig)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	sandboxRoot, err := sandbox.NewRoot(*root)
	if err != nil {
		return fmt.Errorf("failed to open sandbox root: %w", err)
	}

	log.Info().Str("version", version.GetFullVersion()).Msg("Starting echo worker")

	return echo.NewWorker(sandboxRoot, *interval, log).Run(ctx)
}
