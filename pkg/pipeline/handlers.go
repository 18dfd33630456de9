package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pwegrzyn/paybook/pkg/provider"
)

// DownloadHandler fetches the ledger document and builds the payment book.
type DownloadHandler struct{}

// Name implements Handler.
func (DownloadHandler) Name() string { return "download" }

// Handle implements Handler.
func (DownloadHandler) Handle(ctx context.Context, pc *Context) error {
	data, err := pc.Store.Download(ctx, pc.RemotePath)
	if err != nil {
		return err
	}
	if err := pc.Book.Load(data); err != nil {
		return err
	}
	pc.AddStatus(fmt.Sprintf("workbook loaded: %d monitored sheets active", len(pc.Book.Sheets())))
	return nil
}

// ProviderHandler fetches one external bill status and merges it into the
// book. Provider failures are reported but do not stop the run; the other
// providers and the upload still proceed.
type ProviderHandler struct {
	Provider provider.Provider
	Sheet    string
	Category string
	Log      zerolog.Logger
}

// Name implements Handler.
func (h ProviderHandler) Name() string { return h.Provider.Name() }

// Handle implements Handler.
func (h ProviderHandler) Handle(ctx context.Context, pc *Context) error {
	result, err := h.Provider.Fetch(ctx)
	if err != nil {
		h.Log.Warn().Str("provider", h.Provider.Name()).Err(err).Msg("fetch failed")
		pc.AddStatus(fmt.Sprintf("%s: fetch failed: %v", h.Provider.Name(), err))
		if pc.Notifier != nil && !pc.Silent {
			if nerr := pc.Notifier.Error(ctx, fmt.Sprintf("%s: %v", h.Provider.Name(), err)); nerr != nil {
				h.Log.Warn().Err(nerr).Msg("error notification failed")
			}
		}
		return nil
	}
	if err := pc.Book.UpdateCurrentPayment(h.Sheet, h.Category, result.Update()); err != nil {
		return err
	}
	if result.Status != "" {
		pc.AddStatus(result.Status)
	}
	return nil
}

// NotifyHandler pushes one message per urgent payment: unpaid and due
// within two days or already overdue.
type NotifyHandler struct{}

// Name implements Handler.
func (NotifyHandler) Name() string { return "notify" }

// Handle implements Handler.
func (NotifyHandler) Handle(ctx context.Context, pc *Context) error {
	urgent := 0
	for _, item := range pc.Book.PaymentList() {
		if !item.Payment.PayableWithin2Days() {
			continue
		}
		urgent++
		if pc.Notifier == nil || pc.Silent {
			continue
		}
		if err := pc.Notifier.Notify(ctx, item.String()); err != nil {
			return err
		}
	}
	pc.AddStatus(fmt.Sprintf("urgent payments: %d", urgent))
	return nil
}

// UploadHandler persists the workbook: a local copy when configured, then
// the remote overwrite unless the run is dry.
type UploadHandler struct{}

// Name implements Handler.
func (UploadHandler) Name() string { return "upload" }

// Handle implements Handler.
func (UploadHandler) Handle(ctx context.Context, pc *Context) error {
	data, err := pc.Book.Bytes()
	if err != nil {
		return err
	}
	if pc.LocalPath != "" {
		if err := os.WriteFile(pc.LocalPath, data, 0o644); err != nil {
			return err
		}
	}
	if pc.DryRun {
		pc.AddStatus("dry run: remote upload skipped")
		return nil
	}
	if err := pc.Store.Upload(ctx, pc.RemotePath, data); err != nil {
		return err
	}
	pc.AddStatus(fmt.Sprintf("workbook uploaded: %s", pc.RemotePath))
	return nil
}
