// Command paybook synchronizes the monthly bill ledger: it downloads the
// workbook, merges live provider statuses into the current month's row,
// pushes urgency notifications and uploads the result.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pwegrzyn/paybook/pkg/config"
	"github.com/pwegrzyn/paybook/pkg/notify"
	"github.com/pwegrzyn/paybook/pkg/paybook"
	"github.com/pwegrzyn/paybook/pkg/pipeline"
	"github.com/pwegrzyn/paybook/pkg/provider"
	"github.com/pwegrzyn/paybook/pkg/storage"
)

var (
	cfgPath   string
	localPath string
	silent    bool
	dryRun    bool
	pretty    bool
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:           "paybook",
		Short:         "Monthly bill ledger over an Excel workbook",
		Long:          `paybook keeps a payment ledger workbook up to date: it locates the current month's row on every monitored sheet, rolls the grid forward one month, merges live statuses from bill providers and recolors cells to reflect payment state.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "paybook.yaml", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&localPath, "local", "", "Use a local workbook file instead of remote storage")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass and persist the workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), log)
		},
	}
	syncCmd.Flags().BoolVar(&silent, "silent", false, "Suppress push notifications")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Skip the remote upload")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Print all tracked payments as JSON, sorted by due date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context())
		},
	}
	reportCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	rootCmd.AddCommand(syncCmd, reportCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("paybook failed")
		os.Exit(1)
	}
}

// runSync builds the handler chain from configuration and executes it.
func runSync(ctx context.Context, log zerolog.Logger) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	store, remotePath, localCopy := selectStore(cfg)
	var notifier notify.Notifier
	if cfg.Pushover.Token != "" {
		notifier = notify.NewPushover(cfg.Pushover.Token, cfg.Pushover.User)
	}

	pc := &pipeline.Context{
		Book:       paybook.NewPaymentBook(cfg.MonitoredSheets),
		Store:      store,
		Notifier:   notifier,
		RemotePath: remotePath,
		LocalPath:  localCopy,
		Silent:     silent,
		DryRun:     dryRun,
	}

	handlers := []pipeline.Handler{pipeline.DownloadHandler{}}
	for _, p := range cfg.Providers {
		prov := buildProvider(p)
		if prov == nil {
			log.Warn().Str("provider", p.Name).Msg("unknown provider, skipping")
			continue
		}
		handlers = append(handlers, pipeline.ProviderHandler{
			Provider: prov,
			Sheet:    p.Sheet,
			Category: p.Category,
			Log:      log,
		})
	}
	handlers = append(handlers, pipeline.NotifyHandler{}, pipeline.UploadHandler{})

	return pipeline.NewChain(log, handlers...).Run(ctx, pc)
}

// runReport loads the workbook and prints the flattened payment list.
func runReport(ctx context.Context) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	store, remotePath, _ := selectStore(cfg)

	data, err := store.Download(ctx, remotePath)
	if err != nil {
		return err
	}
	book := paybook.NewPaymentBook(cfg.MonitoredSheets)
	if err := book.Load(data); err != nil {
		return err
	}

	records := paybook.MakeJSONPayments(paybook.SortPaymentListByDate(book.PaymentList()))
	var out []byte
	if pretty {
		out, err = json.MarshalIndent(records, "", "  ")
	} else {
		out, err = json.Marshal(records)
	}
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// selectStore picks the transport: a local file when --local is given,
// Dropbox otherwise. Returns the store, the path it addresses, and the
// local copy path for the upload step.
func selectStore(cfg *config.Config) (storage.Store, string, string) {
	if localPath != "" {
		return storage.File{}, localPath, ""
	}
	return storage.NewDropbox(cfg.Dropbox.Token), cfg.Workbook.RemotePath, cfg.Workbook.LocalPath
}

// buildProvider maps a provider configuration entry to a client, or nil
// for an unknown name.
func buildProvider(p config.Provider) provider.Provider {
	switch p.Name {
	case "ekartoteka":
		return provider.NewEkartoteka(p.Username, p.Password)
	default:
		return nil
	}
}
