// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package demo

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/formset-go/upload"
)

// Janitor periodically removes abandoned temp uploads. Files a client
// uploaded but never submitted stay on disk until this sweep catches them.
type Janitor struct {
	receiver *upload.Receiver
	maxAge   time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewJanitor wires a janitor around the receiver's temp area.
func NewJanitor(receiver *upload.Receiver, maxAge time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		receiver: receiver,
		maxAge:   maxAge,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start begins the hourly sweep.
func (j *Janitor) Start() error {
	_, err := j.cron.AddFunc("@hourly", j.sweep)
	if err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("janitor started", "max_age", j.maxAge)
	return nil
}

// Stop gracefully stops the janitor, waiting for a running sweep.
func (j *Janitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
	j.logger.Info("janitor stopped")
}

func (j *Janitor) sweep() {
	removed, err := j.receiver.PurgeOlderThan(j.maxAge)
	if err != nil {
		j.logger.Error("temp upload sweep failed", "err", err)
		return
	}
	if removed > 0 {
		j.logger.Info("removed stale temp uploads", "count", removed)
	}
}
