// Package scheduler keeps the conversion-rate cache warm on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher reloads the conversion table for one base currency.
type Refresher interface {
	Refresh(ctx context.Context, base string) (map[string]float64, error)
}

// RatesWarmer refreshes a fixed list of base currencies on a cron schedule.
type RatesWarmer struct {
	refresher  Refresher
	schedule   string
	currencies []string
	logger     *logrus.Entry

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

// NewRatesWarmer creates a warmer. An empty schedule disables it.
func NewRatesWarmer(refresher Refresher, schedule string, currencies []string, logger *logrus.Logger) *RatesWarmer {
	var codes []string
	for _, c := range currencies {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			codes = append(codes, c)
		}
	}
	return &RatesWarmer{
		refresher:  refresher,
		schedule:   strings.TrimSpace(schedule),
		currencies: codes,
		logger:     logger.WithField("component", "scheduler"),
	}
}

// Currencies returns the normalized base codes.
func (w *RatesWarmer) Currencies() []string {
	return w.currencies
}

// Start registers the job and starts the cron runner. ctx is passed to each run
// and cancelling it aborts in-flight refreshes.
func (w *RatesWarmer) Start(ctx context.Context) error {
	if w.schedule == "" || len(w.currencies) == 0 {
		w.logger.Info("Rates warm-up disabled")
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cron != nil {
		return fmt.Errorf("rates warmer already started")
	}

	c := cron.New()
	id, err := c.AddFunc(w.schedule, func() {
		w.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling rates warm-up %q: %w", w.schedule, err)
	}

	c.Start()
	w.cron = c
	w.entryID = id

	w.logger.WithFields(logrus.Fields{
		"schedule":   w.schedule,
		"currencies": strings.Join(w.currencies, ","),
	}).Info("Scheduled rates warm-up")
	return nil
}

// Stop halts the runner and waits for a running job to finish.
func (w *RatesWarmer) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}

// RunOnce refreshes every currency and returns how many succeeded. Failures are
// logged and do not stop the remaining currencies.
func (w *RatesWarmer) RunOnce(ctx context.Context) int {
	refreshed := 0
	for _, code := range w.currencies {
		if ctx.Err() != nil {
			break
		}
		rates, err := w.refresher.Refresh(ctx, code)
		if err != nil {
			w.logger.WithError(err).WithField("base", code).Warn("Rates warm-up failed")
			continue
		}
		refreshed++
		w.logger.WithFields(logrus.Fields{"base": code, "rates": len(rates)}).Debug("Rates warmed")
	}

	w.logger.WithFields(logrus.Fields{
		"refreshed": refreshed,
		"total":     len(w.currencies),
	}).Info("Rates warm-up completed")
	return refreshed
}
