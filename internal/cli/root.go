// Package cli implements the sndeals command-line interface: one command
// group per entity kind plus init, version, and history.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/sndeals/internal/paths"
	"github.com/mesh-intelligence/sndeals/pkg/sndeals"
	"github.com/mesh-intelligence/sndeals/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	baseURL   string
	jsonMode  bool
	verbose   bool
	metrics   bool
}

// app is the state shared by the commands of one invocation.
type app struct {
	flags rootFlags

	// clientOpts are appended to the options New receives.
	clientOpts []sndeals.Option

	cfg       types.Config
	client    *sndeals.Client
	log       logr.Logger
	syncLog   func()
	registry  *prometheus.Registry
	configDir string
}

// NewRootCmd creates the top-level "sndeals" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "sndeals",
		Short: "Browse and edit classifieds from the command line",
		Long: "sndeals talks to a classifieds REST backend. Each entity kind (post,\n" +
			"comment, category, attachment, resource) has list, get, create, update,\n" +
			"delete, and count commands.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: "+paths.DefaultDataDirName+")")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "backend base URL (default: "+types.DefaultBaseURL+")")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log every request")
	pf.BoolVar(&a.flags.metrics, "metrics", false, "print request metrics to stderr on exit")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newKindCmd(a, postView))
	root.AddCommand(newKindCmd(a, commentView))
	root.AddCommand(newKindCmd(a, categoryView))
	root.AddCommand(newKindCmd(a, attachmentView))
	root.AddCommand(newKindCmd(a, resourceView))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(&app{}, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes args and returns the process exit code.
func run(a *app, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	if cerr := a.close(stderr); err == nil && cerr != nil {
		err = sysErr(cerr)
	}
	if err != nil {
		fmt.Fprintln(stderr, "sndeals:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// connect loads configuration and builds the client. Commands that talk
// to the backend call it first.
func (a *app) connect(cmd *cobra.Command) (*sndeals.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.loadConfig(cmd); err != nil {
		return nil, err
	}

	log, syncLog, err := newLogger(cmd.ErrOrStderr(), a.cfg.LogLevel, a.flags.verbose)
	if err != nil {
		return nil, userErr(err)
	}
	a.log, a.syncLog = log, syncLog

	opts := []sndeals.Option{sndeals.WithLogger(log)}
	if a.flags.metrics {
		a.registry = prometheus.NewRegistry()
		opts = append(opts, sndeals.WithRegisterer(a.registry))
	}
	opts = append(opts, a.clientOpts...)

	c, err := sndeals.New(cmd.Context(), a.cfg, opts...)
	if err != nil {
		return nil, sysErr(err)
	}
	a.client = c
	return c, nil
}

// close releases the client and prints metrics when requested.
func (a *app) close(stderr io.Writer) error {
	if a.registry != nil {
		if err := dumpMetrics(stderr, a.registry); err != nil {
			fmt.Fprintln(stderr, "metrics:", err)
		}
	}
	var err error
	if a.client != nil {
		err = a.client.Close()
		a.client = nil
	}
	if a.syncLog != nil {
		a.syncLog()
	}
	return err
}
