// Package pipeline sequences one synchronization run: download the ledger,
// merge provider statuses, send urgency notifications, persist. Handlers
// run strictly in order; there is exactly one writer and no concurrency.
package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pwegrzyn/paybook/pkg/notify"
	"github.com/pwegrzyn/paybook/pkg/paybook"
	"github.com/pwegrzyn/paybook/pkg/storage"
)

// Context is the shared state threaded through a run.
type Context struct {
	Book     *paybook.PaymentBook
	Store    storage.Store
	Notifier notify.Notifier

	RemotePath string
	LocalPath  string
	Silent     bool // suppress push notifications
	DryRun     bool // skip the remote upload

	// Statuses collects one human-readable line per step for the final
	// summary notification.
	Statuses []string
}

// AddStatus appends a summary line.
func (pc *Context) AddStatus(line string) {
	pc.Statuses = append(pc.Statuses, line)
}

// Handler is one step of the run.
type Handler interface {
	Name() string
	Handle(ctx context.Context, pc *Context) error
}

// Chain runs handlers in order. A handler error ends the run after an
// error notification; merges already applied but not yet uploaded are lost
// (at-most-once persistence).
type Chain struct {
	handlers []Handler
	log      zerolog.Logger
}

// NewChain builds a chain over the given handlers.
func NewChain(log zerolog.Logger, handlers ...Handler) *Chain {
	return &Chain{handlers: handlers, log: log}
}

// Run executes the chain.
func (c *Chain) Run(ctx context.Context, pc *Context) error {
	for _, h := range c.handlers {
		c.log.Info().Str("handler", h.Name()).Msg("running")
		if err := h.Handle(ctx, pc); err != nil {
			c.log.Error().Str("handler", h.Name()).Err(err).Msg("failed")
			if pc.Notifier != nil && !pc.Silent {
				if nerr := pc.Notifier.Error(ctx, err.Error()); nerr != nil {
					c.log.Warn().Err(nerr).Msg("error notification failed")
				}
			}
			return err
		}
	}
	for _, line := range pc.Statuses {
		c.log.Info().Msg(line)
	}
	return nil
}
