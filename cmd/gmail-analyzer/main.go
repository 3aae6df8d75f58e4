// Command gmail-analyzer exports Gmail message metadata to a JSON file and
// runs offline sender analysis and Updates-category cleanup over the export.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/meherc99/Gmail-Analyzer/internal/auth"
	"github.com/meherc99/Gmail-Analyzer/internal/config"
	"github.com/meherc99/Gmail-Analyzer/internal/fetch"
	"github.com/meherc99/Gmail-Analyzer/internal/gservice"
	"github.com/meherc99/Gmail-Analyzer/internal/prune"
	"github.com/meherc99/Gmail-Analyzer/internal/senders"
)

const pruneTokenFile = "token_delete.json"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gmail-analyzer",
		Short:         "Export Gmail metadata to JSON and analyze the result",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root)
	root.AddCommand(newFetchCmd(), newSendersCmd(), newPruneCmd())

	return root
}

func newFetchCmd() *cobra.Command {
	var (
		output    string
		maxEmails int
		query     string
		pageSize  int64
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch message metadata from the mailbox into a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)
			ctx := cmd.Context()

			svc, tok, err := connect(ctx, cfg, gmail.GmailReadonlyScope)
			if err != nil {
				return err
			}
			defer persistToken(logger, tok)

			if profile, err := svc.GetProfile(ctx); err != nil {
				logger.Warn("could not read mailbox profile", "err", err)
			} else {
				logger.Info("authenticated", "email", profile.EmailAddress, "messagesTotal", profile.MessagesTotal)
			}

			opts := fetch.Options{Query: query, Max: maxEmails, PageSize: pageSize}
			records, err := fetch.NewFetcher(svc, logger).Run(ctx, opts)
			if err != nil {
				return apiErrHint(err)
			}

			if err := fetch.WriteFile(output, records); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			logger.Info("export complete", "records", len(records), "output", output)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&output, "output", "emails.json", "Output JSON file")
	flags.IntVar(&maxEmails, "max", 0, "Maximum number of emails to fetch (0 for all)")
	flags.StringVar(&query, "query", "", "Gmail search query restricting the export")
	flags.Int64Var(&pageSize, "page-size", 500, "Message list page size (max 500)")

	return cmd
}

func newSendersCmd() *cobra.Command {
	var (
		input   string
		topN    int
		output  string
		csvPath string
	)

	cmd := &cobra.Command{
		Use:   "senders",
		Short: "Rank senders in a fetched JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := setupLogger(cfg.LogLevel)

			records, err := fetch.ReadFile(input)
			if err != nil {
				return fmt.Errorf("reading %s (run fetch first): %w", input, err)
			}
			if len(records) == 0 {
				logger.Info("no emails to analyze", "input", input)
				return nil
			}
			logger.Info("loaded emails", "count", len(records), "input", input)

			ranked := senders.Top(records, topN)
			senders.WriteTable(cmd.OutOrStdout(), ranked, len(records))

			if err := senders.SaveJSON(output, ranked); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			logger.Info("analysis saved", "output", output)

			if csvPath != "" {
				if err := senders.SaveCSV(csvPath, ranked); err != nil {
					return fmt.Errorf("writing %s: %w", csvPath, err)
				}
				logger.Info("csv report saved", "output", csvPath)
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input, "input", "emails.json", "Fetched JSON file to analyze")
	flags.IntVar(&topN, "top", 20, "Number of top senders to report")
	flags.StringVar(&output, "output", "sender_analysis.json", "Output JSON report")
	flags.StringVar(&csvPath, "csv", "", "Optional CSV report path")

	return cmd
}

func newPruneCmd() *cobra.Command {
	var (
		input     string
		before    string
		dryRun    bool
		yes       bool
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Move Updates-category emails older than a date to trash",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			// The modify scope needs its own grant, so keep its token apart
			// from the readonly one unless the user chose a file explicitly.
			if !config.TokenFileSet(cmd) {
				cfg.TokenFile = pruneTokenFile
			}
			logger := setupLogger(cfg.LogLevel)
			ctx := cmd.Context()

			// midnight UTC of the given day
			cutoff, err := time.Parse("2006-01-02", before)
			if err != nil {
				return fmt.Errorf("invalid --before date %q, expected YYYY-MM-DD", before)
			}

			records, err := fetch.ReadFile(input)
			if err != nil {
				return fmt.Errorf("reading %s (run fetch first): %w", input, err)
			}

			selected := prune.Select(records, cutoff, logger)
			if len(selected) == 0 {
				logger.Info("no Updates emails found before cutoff", "before", before)
				return nil
			}

			prune.Preview(cmd.OutOrStdout(), selected, 10)

			if !dryRun && !yes {
				ok, err := confirmDeletion(cmd, len(selected))
				if err != nil {
					return err
				}
				if !ok {
					logger.Info("deletion cancelled")
					return nil
				}
			}

			svc, tok, err := connect(ctx, cfg, gmail.GmailModifyScope)
			if err != nil {
				return err
			}
			defer persistToken(logger, tok)

			ids := make([]string, 0, len(selected))
			for _, rec := range selected {
				ids = append(ids, rec.ID)
			}

			res, err := prune.NewDeleter(svc, logger).Delete(ctx, ids, batchSize, dryRun)
			if err != nil {
				return apiErrHint(err)
			}
			logger.Info("prune complete", "deleted", res.Deleted, "failed", res.Failed, "dryRun", dryRun)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&input, "input", "emails.json", "Fetched JSON file to prune from")
	flags.StringVar(&before, "before", "", "Cutoff date (YYYY-MM-DD); Updates emails before it are trashed")
	flags.BoolVar(&dryRun, "dry-run", false, "Report what would be deleted without calling the API")
	flags.BoolVar(&yes, "yes", false, "Skip the interactive confirmation")
	flags.IntVar(&batchSize, "batch-size", prune.DefaultBatchSize, "Messages per batch delete request (max 100)")
	_ = cmd.MarkFlagRequired("before")

	return cmd
}

func confirmDeletion(cmd *cobra.Command, count int) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "\nWARNING: this will move %d emails to trash (restorable for 30 days).\n", count)
	fmt.Fprint(cmd.OutOrStdout(), "Type 'DELETE' to confirm: ")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
		return false, nil
	}

	return scanner.Text() == "DELETE", nil
}

// connect assembles the OAuth config, loads (or interactively obtains) the
// token, and returns the Gmail API wrapper.
func connect(ctx context.Context, cfg config.Config, scope string) (*gservice.GMail, *auth.Token, error) {
	oauthCfg, err := newOAuthConfig(cfg, scope)
	if err != nil {
		return nil, nil, err
	}

	tok, err := auth.NewToken(oauthCfg, cfg.TokenFile)
	if err != nil {
		return nil, nil, fmt.Errorf("auth.NewToken failed: %w", err)
	}

	if err := tok.Authorize(ctx, openBrowser); err != nil {
		return nil, nil, fmt.Errorf("authorization failed: %w", err)
	}

	return gservice.NewGmail(oauthCfg, tok), tok, nil
}

func newOAuthConfig(cfg config.Config, scope string) (*oauth2.Config, error) {
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			return nil, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	clientID := os.Getenv("OAUTH_GOOGLE_CLIENT_ID")
	clientSec := os.Getenv("OAUTH_GOOGLE_CLIENT_SECRET")
	if clientID != "" && clientSec != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSec,
			Scopes:       []string{scope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s (download it from the Cloud console): %w", cfg.CredentialsFile, err)
	}

	oauthCfg, err := google.ConfigFromJSON(b, scope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}

	return oauthCfg, nil
}

func persistToken(logger *slog.Logger, tok *auth.Token) {
	if err := tok.Persist(); err != nil {
		logger.Warn("could not persist token", "err", err)
	}
}

// apiErrHint augments quota and permission failures from the vendor API with
// an actionable hint.
func apiErrHint(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 403, 429:
			return fmt.Errorf("%w (quota exceeded or access denied, check the Cloud console)", err)
		case 401:
			return fmt.Errorf("%w (token rejected, delete the token file and re-authorize)", err)
		}
	}
	return err
}

func setupLogger(level string) *slog.Logger {
	lvl := new(slog.LevelVar)
	switch level {
	case "debug":
		lvl.Set(slog.LevelDebug)
	case "warn":
		lvl.Set(slog.LevelWarn)
	case "error":
		lvl.Set(slog.LevelError)
	default:
		lvl.Set(slog.LevelInfo)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	return logger
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		slog.Warn("could not open browser automatically, open the link manually", "err", err)
	}
}
