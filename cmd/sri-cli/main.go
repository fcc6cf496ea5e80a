// Command sri-cli drives the declarations API from a terminal: uploads,
// document management, client reconciliation, yearly summaries and exports.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/sri-declaraciones/internal/apiclient"
	"github.com/garyjia/sri-declaraciones/internal/config"
	"github.com/garyjia/sri-declaraciones/pkg/utils"
)

// app carries the dependencies shared by every command
type app struct {
	configPath string
	apiURL     string
	verbose    bool

	logger *zap.Logger
	client *apiclient.Client
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	if err := newRootCommand(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describeError(err))
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "sri-cli",
		Short:         "Manage SRI Form 103/104 declarations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides client.api_url)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newHealthCommand(a),
		newUploadCommand(a),
		newDocumentsCommand(a),
		newClientsCommand(a),
		newClientCommand(a),
		newSummaryCommand(a),
		newExportCommand(a),
		newFormCommand(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	level := "warn"
	if a.verbose {
		level = "debug"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{Level: level, OutputPath: "stderr", Format: "console"})
	if err != nil {
		return err
	}
	a.logger = logger

	baseURL := cfg.Client.APIURL
	if a.apiURL != "" {
		baseURL = a.apiURL
	}
	a.client, err = apiclient.New(apiclient.Config{BaseURL: baseURL, Timeout: cfg.Client.Timeout}, logger)
	return err
}

// describeError turns API failures into the message shown to the user
func describeError(err error) string {
	if apiErr, ok := apiclient.AsAPIError(err); ok {
		switch {
		case apiErr.IsForbidden():
			return "permiso denegado o límite alcanzado: " + apiErr.Message
		case apiErr.IsNotFound():
			return "no encontrado: " + apiErr.Message
		}
		return apiErr.Message
	}
	var te *apiclient.TransportError
	if errors.As(err, &te) {
		return "no se pudo conectar con el servidor: " + te.Err.Error()
	}
	return err.Error()
}

func newHealthCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := a.client.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (version %s, %s)\n", h.Status, h.Version, h.Timestamp)
			return nil
		},
	}
}
