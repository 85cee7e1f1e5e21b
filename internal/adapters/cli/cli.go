// Package cli is the terminal front end of the quote browser. The list
// command drives a Browser through the same intents the HTTP screens use and
// renders the resulting view with lipgloss.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jsamuelsen/quote-browser/internal/adapters/clients"
	"github.com/jsamuelsen/quote-browser/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-browser/internal/app"
	"github.com/jsamuelsen/quote-browser/internal/platform/config"
	"github.com/jsamuelsen/quote-browser/internal/platform/logging"
	"github.com/jsamuelsen/quote-browser/internal/ports"
)

// ErrLoadFailed is returned by the list command when the quotes could not be
// fetched. The failure itself has already been rendered.
var ErrLoadFailed = errors.New("loading quotes failed")

// BuildInfo is printed by the version command.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options configures the root command.
type Options struct {
	Build BuildInfo

	// Fetcher replaces the configured dummyjson client. Tests set it.
	Fetcher ports.QuoteFetcher

	// LogOutput receives diagnostics. Defaults to os.Stderr.
	LogOutput io.Writer
}

type listFlags struct {
	search string
	page   int
}

type rootFlags struct {
	profile  string
	baseURL  string
	logLevel string
}

// NewRootCommand builds the quotes command tree.
func NewRootCommand(opts Options) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:           "quotes",
		Short:         "Browse and search quotes from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.profile, "profile", "local", "configuration profile (configs/<profile>.yaml)")
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "override the quote service base URL")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "error", "diagnostic log level (trace, debug, info, warn, error)")

	root.AddCommand(newListCommand(opts, &flags), newVersionCommand(opts.Build))

	return root
}

func newVersionCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quotes %s (commit: %s, built: %s)\n",
				build.Version, build.Commit, build.BuildTime)
		},
	}
}

func newListCommand(opts Options, root *rootFlags) *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of quotes, optionally filtered",
		Example: `  quotes list
  quotes list --search "steve jobs"
  quotes list --search life --page 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.profile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if root.baseURL != "" {
				cfg.Services.Quote.BaseURL = root.baseURL
			}

			logOut := opts.LogOutput
			if logOut == nil {
				logOut = os.Stderr
			}

			logger := logging.NewWithWriter(&logging.Config{
				Level:   root.logLevel,
				Format:  "pretty",
				Service: "quotes",
				Version: opts.Build.Version,
			}, logOut)

			fetcher := opts.Fetcher
			if fetcher == nil {
				fetcher, err = newFetcher(cfg, logger, opts.Build.Version)
				if err != nil {
					return err
				}
			}

			browser := app.NewBrowser(app.BrowserConfig{
				Fetcher:      fetcher,
				Logger:       logger,
				PageSize:     cfg.Browser.PageSize,
				WindowRadius: cfg.Browser.WindowRadius,
				FetchTimeout: cfg.Browser.FetchTimeout,
			})

			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()

				_ = browser.Close(closeCtx)
			}()

			return runList(cmd.Context(), cmd.OutOrStdout(), browser, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.search, "search", "s", "", "case-insensitive text or author filter")
	cmd.Flags().IntVarP(&flags.page, "page", "p", 1, "page number to show")

	return cmd
}

func newFetcher(cfg *config.Config, logger *slog.Logger, version string) (ports.QuoteFetcher, error) {
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Services.Quote.BaseURL,
		ServiceName: cfg.Services.Quote.Name,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		UserAgent:   "quotes/" + version,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	return acl.NewQuoteClient(acl.QuoteClientConfig{Client: httpClient, Logger: logger}), nil
}

// runList loads the quotes, applies the search and page flags as intents and
// renders the final view.
func runList(ctx context.Context, out io.Writer, browser *app.Browser, flags listFlags) error {
	views, unsubscribe := browser.Subscribe()
	defer unsubscribe()

	if _, err := browser.Start(); err != nil {
		return fmt.Errorf("starting fetch: %w", err)
	}

	view, err := awaitSettled(ctx, views)
	if err != nil {
		return err
	}

	if view.Status == app.StatusFailed {
		if err := Render(out, view); err != nil {
			return err
		}

		return ErrLoadFailed
	}

	if flags.search != "" {
		if _, err := browser.Dispatch(app.SearchQueryChanged{Text: flags.search}); err != nil {
			return err
		}

		if view, err = browser.Dispatch(app.SearchSubmitted{}); err != nil {
			return err
		}
	}

	if flags.page != 1 {
		if view, err = browser.Dispatch(app.PageChanged{Page: flags.page}); err != nil {
			return fmt.Errorf("page %d: %w", flags.page, err)
		}
	}

	return Render(out, view)
}

// awaitSettled waits for the first view that is no longer loading.
func awaitSettled(ctx context.Context, views <-chan app.View) (app.View, error) {
	for {
		select {
		case <-ctx.Done():
			return app.View{}, ctx.Err()

		case v, ok := <-views:
			if !ok {
				return app.View{}, app.ErrBrowserClosed
			}

			if !v.Loading() {
				return v, nil
			}
		}
	}
}
