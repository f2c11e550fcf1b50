// Package lookup runs one batch of product code lookups end to end: read
// the codes, query the catalog, print the summary and write the report.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/lepinkainen/lcsc-lookup/internal/batch"
	"github.com/lepinkainen/lcsc-lookup/internal/cache"
	"github.com/lepinkainen/lcsc-lookup/internal/catalog"
	"github.com/lepinkainen/lcsc-lookup/internal/config"
	"github.com/lepinkainen/lcsc-lookup/internal/csvutil"
	lookuperrors "github.com/lepinkainen/lcsc-lookup/internal/errors"
	"github.com/lepinkainen/lcsc-lookup/internal/progress"
	"github.com/lepinkainen/lcsc-lookup/internal/report"
)

// Modes of operation.
const (
	ModeFile   = "file"
	ModeInline = "inline"
)

// DefaultInlineOutput is the report path used in inline mode.
const DefaultInlineOutput = "output.csv"

// Options configures a single run.
type Options struct {
	// Mode is ModeFile or ModeInline.
	Mode string
	// Source is a file path in file mode, a comma separated list otherwise.
	Source string
	// Output overrides the derived report path.
	Output string
	Config config.Config

	// Stdout receives the summary. Defaults to os.Stdout.
	Stdout io.Writer
	// ProgressOut receives the progress bar or nothing. Defaults to os.Stderr.
	ProgressOut io.Writer
}

// OutputPath returns where the report for mode and source is written.
func OutputPath(mode, source, override string) string {
	if override != "" {
		return override
	}
	if mode == ModeFile {
		return source + ".csv"
	}
	return DefaultInlineOutput
}

// ReadIdentifiers loads the product codes for mode and source.
func ReadIdentifiers(mode, source string) ([]string, error) {
	var (
		ids []string
		err error
	)

	switch mode {
	case ModeFile:
		ids, err = csvutil.ReadIdentifiers(source)
	case ModeInline:
		ids, err = csvutil.ParseIdentifiers(source)
	default:
		return nil, lookuperrors.NewUsageError(fmt.Sprintf("invalid mode %q", mode))
	}

	if errors.Is(err, csvutil.ErrNoIdentifiers) {
		return nil, lookuperrors.NewUsageError(fmt.Sprintf("%s: %s", err, source))
	}
	return ids, err
}

// NewClient builds a catalog client from cfg.
func NewClient(cfg config.CatalogConfig) *catalog.Client {
	return catalog.NewClient(
		catalog.WithEndpoint(cfg.Endpoint),
		catalog.WithQueryParam(cfg.QueryParam),
		catalog.WithUserAgent(cfg.UserAgent),
		catalog.WithTimeout(cfg.Timeout),
		catalog.WithPageLinks(catalog.PageLinks{
			ProductPageBase: cfg.ProductPageBase,
			SiteRoot:        cfg.SiteRoot,
		}),
	)
}

// Run performs one lookup batch. Individual lookup failures never fail the
// run; only usage, input and output errors do.
func Run(ctx context.Context, opts Options) error {
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	progressOut := opts.ProgressOut
	if progressOut == nil {
		progressOut = os.Stderr
	}

	ids, err := ReadIdentifiers(opts.Mode, opts.Source)
	if err != nil {
		return err
	}

	outputPath := OutputPath(opts.Mode, opts.Source, opts.Output)
	cfg := opts.Config

	prevLogger := slog.Default()
	slog.SetDefault(prevLogger.With("run", uuid.NewString()))
	defer slog.SetDefault(prevLogger)

	if cfg.Memo {
		defer func() {
			if err := cache.ResetGlobalCache(); err != nil {
				slog.Warn("Failed to close lookup memo", "error", err)
			}
		}()
	}

	slog.Info("Looking up product codes",
		"count", len(ids),
		"mode", opts.Mode,
		"workers", cfg.Batch.Workers,
		"stagger", cfg.Batch.Stagger,
	)

	client := NewClient(cfg.Catalog)
	coordinator := batch.NewCoordinator(client,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithStagger(cfg.Batch.Stagger),
		batch.WithProgress(progress.New("Fetching product details", progressOut, cfg.Progress)),
		batch.WithMemo(cfg.Memo),
	)

	start := time.Now()
	result := coordinator.Run(ctx, ids)
	slog.Info("Lookup finished",
		"found", len(result.Valid),
		"dropped", len(result.Dropped),
		"duration", time.Since(start).Round(time.Millisecond),
		"rate_limited", client.RateLimited(),
	)

	if len(result.Valid) == 0 {
		return report.PrintNoProducts(stdout)
	}

	if err := report.PrintSummary(stdout, result); err != nil {
		return fmt.Errorf("failed to print summary: %w", err)
	}

	if err := report.Write(outputPath, result.Products(), cfg.Overwrite); err != nil {
		return err
	}

	return report.PrintWritten(stdout, outputPath)
}
