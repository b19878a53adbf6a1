// Package commands provides the subcommands of the feedback board CLI
package commands

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"feedbackboard/internal/apiclient"
	"feedbackboard/internal/board"
	"feedbackboard/internal/config"
	"feedbackboard/internal/observability"
	contextutils "feedbackboard/internal/utils"
	"feedbackboard/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions holds the persistent flags and the session built from them
type rootOptions struct {
	configFile string
	baseURL    string
	userID     string
	role       string
	verbose    bool

	out  io.Writer
	in   io.Reader
	sess *session
}

// session is everything a subcommand needs to talk to the board
type session struct {
	cfg        *config.Config
	userID     string
	logger     *observability.Logger
	client     *apiclient.Client
	controller *board.Controller
	out        io.Writer
	in         io.Reader
	width      int
}

// NewRootCommand builds the feedback CLI writing to out and reading
// interactive input from in
func NewRootCommand(out io.Writer, in io.Reader) *cobra.Command {
	opts := &rootOptions{out: out, in: in}

	root := &cobra.Command{
		Use:   "feedback",
		Short: "Anonymous feedback board client",
		Long: `Anonymous feedback board client

Browse, filter and search feedback, submit new items, like them, and, for
teachers and admins, reply to feedback and move it through its workflow.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			sess, err := opts.newSession()
			if err != nil {
				return err
			}
			opts.sess = sess
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if opts.sess != nil {
				_ = opts.sess.logger.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetIn(in)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default $"+config.ConfigFileEnv+" or ./"+config.DefaultConfigFile+")")
	flags.StringVar(&opts.baseURL, "base-url", "", "board server URL (overrides client.base_url)")
	flags.StringVar(&opts.userID, "user", "", "pseudonymous user ID (overrides client.user_id)")
	flags.StringVar(&opts.role, "role", "", "caller role: student, teacher or admin")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and reloads to stderr")

	root.AddCommand(
		listCmd(opts),
		showCmd(opts),
		createCmd(opts),
		likeCmd(opts),
		respondCmd(opts),
		statusCmd(opts),
		deleteCmd(opts),
		statsCmd(opts),
		browseCmd(opts),
	)
	return root
}

// newSession loads configuration, applies flag overrides and wires the client
func (o *rootOptions) newSession() (*session, error) {
	if o.configFile != "" {
		if err := os.Setenv(config.ConfigFileEnv, o.configFile); err != nil {
			return nil, contextutils.WrapError(err, "failed to select config file")
		}
	}
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}

	if o.baseURL != "" {
		cfg.Client.BaseURL = o.baseURL
	}
	if o.userID != "" {
		cfg.Client.UserID = o.userID
	}
	if o.role != "" {
		cfg.Client.Role = strings.ToLower(strings.TrimSpace(o.role))
	}

	userID, err := ResolveUserID(&cfg.Client)
	if err != nil {
		return nil, err
	}

	// The CLI never exports telemetry; verbose mode only logs to stderr
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = o.verbose
	cfg.OpenTelemetry.Endpoint = ""
	logger := observability.NewLoggerWithLevel(&cfg.OpenTelemetry, zap.DebugLevel)

	metrics, err := observability.NewBoardMetrics(nil)
	if err != nil {
		logger.Warn(context.Background(), "Board metrics disabled", map[string]interface{}{"error": err.Error()})
		metrics = nil
	}

	client := apiclient.NewClient(&cfg.Client, userID, logger)
	return &session{
		cfg:        cfg,
		userID:     userID,
		logger:     logger,
		client:     client,
		controller: board.NewController(client, &cfg.Client, userID, logger, metrics),
		out:        o.out,
		in:         o.in,
		width:      terminalWidth(o.out),
	}, nil
}

// parseID reads a positive feedback ID argument
func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid feedback ID %q", raw)
	}
	return id, nil
}
