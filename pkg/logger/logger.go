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

// Package logger provides JSON structured logging using zerolog, with
// optional export of log records, metrics and traces over OTLP.
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

//nolint:gochecknoglobals // process-wide logger used before components are wired
var (
	globalMu     sync.RWMutex
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// NewZerolog builds a logger from cfg. When OTLP export is enabled the
// output is also written to the collector.
func NewZerolog(ctx context.Context, cfg *Config) (zerolog.Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var output io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		output = os.Stderr
	}

	level, err := parseLevel(cfg)
	if err != nil {
		return zerolog.Nop(), err
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	if cfg.OTel.Enabled && cfg.OTel.Endpoint != "" {
		otelWriter, err := NewOTelWriter(ctx, cfg.OTel)
		if err != nil {
			return zerolog.Nop(), err
		}

		output = NewMultiWriter(output, otelWriter)
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger(), nil
}

func parseLevel(cfg *Config) (zerolog.Level, error) {
	if cfg.Debug {
		return zerolog.DebugLevel, nil
	}

	if cfg.Level == "" {
		return zerolog.InfoLevel, nil
	}

	return zerolog.ParseLevel(cfg.Level)
}

// Init replaces the process-wide logger.
func Init(ctx context.Context, cfg *Config) error {
	l, err := NewZerolog(ctx, cfg)
	if err != nil {
		return err
	}

	globalMu.Lock()
	globalLogger = l
	log.Logger = l
	globalMu.Unlock()

	return nil
}

// Shutdown flushes any OTLP pipelines.
func Shutdown() error {
	return ShutdownOTEL()
}

func SetLevel(level zerolog.Level) {
	globalMu.Lock()
	defer globalMu.Unlock()

	globalLogger = globalLogger.Level(level)
	log.Logger = globalLogger
}

func SetDebug(debug bool) {
	if debug {
		SetLevel(zerolog.DebugLevel)
		return
	}

	SetLevel(zerolog.InfoLevel)
}

func GetLogger() zerolog.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()

	return globalLogger
}

func Debug() *zerolog.Event {
	l := GetLogger()
	return l.Debug()
}

func Info() *zerolog.Event {
	l := GetLogger()
	return l.Info()
}

func Warn() *zerolog.Event {
	l := GetLogger()
	return l.Warn()
}

func Error() *zerolog.Event {
	l := GetLogger()
	return l.Error()
}

func Fatal() *zerolog.Event {
	l := GetLogger()
	return l.Fatal()
}

func WithComponent(component string) zerolog.Logger {
	return GetLogger().With().Str("component", component).Logger()
}
