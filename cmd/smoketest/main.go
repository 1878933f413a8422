package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ideaboard/api/internal/backend"
	"ideaboard/api/internal/logging"
	"ideaboard/api/internal/smoke"
)

type options struct {
	baseURL    string
	token      string
	timeout    time.Duration
	projectID  string
	uploadedBy string
	logLevel   string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the smoketest command tree. Failed checks are reported on
// out but never turn into a non-zero exit; only usage errors do.
func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "smoketest",
		Short: "Exercise the backend's CRUD endpoints",
		Long: `Run GET, POST, PATCH and DELETE against the backend's collections and
print one PASS/FAIL line per step followed by a summary.

Available subcommands:
  subscriptions - JSON CRUD against /api/subscriptions
  evidence      - multipart create against /api/evidence (TEXT and LINK)
  all           - both of the above`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", envOr("IDEABOARD_BACKEND_URL", "http://localhost:8080"), "Backend base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("IDEABOARD_BACKEND_TOKEN"), "Bearer token sent with every request")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout")
	root.PersistentFlags().StringVar(&opts.projectID, "project-id", "1", "Project id for evidence uploads")
	root.PersistentFlags().StringVar(&opts.uploadedBy, "uploaded-by", "smoke-test", "Uploader recorded on evidence")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level for diagnostics on stderr")

	root.AddCommand(
		suiteCmd(opts, out, "subscriptions", "Smoke-test the subscriptions endpoints", func(*options) []smoke.Suite {
			return []smoke.Suite{smoke.SubscriptionSuite()}
		}),
		suiteCmd(opts, out, "evidence", "Smoke-test the evidence endpoints", func(o *options) []smoke.Suite {
			return smoke.EvidenceSuites(o.projectID, o.uploadedBy)
		}),
		suiteCmd(opts, out, "all", "Smoke-test every supported collection", func(o *options) []smoke.Suite {
			return append([]smoke.Suite{smoke.SubscriptionSuite()}, smoke.EvidenceSuites(o.projectID, o.uploadedBy)...)
		}),
	)
	return root
}

func suiteCmd(opts *options, out io.Writer, use, short string, suites func(*options) []smoke.Suite) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			run(cmd.Context(), opts, out, suites(opts))
			return nil
		},
	}
}

func run(ctx context.Context, opts *options, out io.Writer, suites []smoke.Suite) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.Console(opts.logLevel)
	client := backend.NewClient(opts.baseURL,
		backend.WithHTTPClient(&http.Client{Timeout: opts.timeout}),
		backend.WithAuthToken(opts.token),
	)
	runner := smoke.NewRunner(client, out, logger)

	fmt.Fprintf(out, "Smoke testing %s\n", client.BaseURL())
	reports := make([]smoke.Report, 0, len(suites))
	for _, suite := range suites {
		reports = append(reports, runner.Run(ctx, suite))
	}
	runner.Summary(reports)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
