package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gestion-erp/gestion-go/api"
	"github.com/gestion-erp/gestion-go/internal/config"
	"github.com/gestion-erp/gestion-go/session"
)

// App wires configuration, the session store and the API client for command
// handlers.
type App struct {
	Config *config.Config
	Store  session.Store
	Client *api.Client
	Logger zerolog.Logger
	JSON   bool
}

var app *App

var rootCmd = &cobra.Command{
	Use:   "gestion",
	Short: "Terminal front-end for the Gestion ERP",
	Long: `gestion is a terminal front-end for the Gestion ERP backend. It signs in
against the API, keeps the session tokens locally, and exposes the inventory,
sales and HR modules as subcommands.

Configuration comes from GESTION_-prefixed environment variables (or a .env
file): GESTION_API_URL, GESTION_CREDENTIALS_FILE, GESTION_TIMEOUT_SECONDS,
GESTION_LOG_LEVEL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		app = a
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		displayBanner(cmd.Root().Use)
		_ = cmd.Help()
	},
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+FormatError(err))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "emit JSON instead of text")
}

func newApp(cmd *cobra.Command) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.Level()).
		With().Timestamp().Logger()

	path := cfg.CredentialsFile
	if path == "" {
		path, err = session.DefaultCredentialsPath()
		if err != nil {
			return nil, err
		}
	}
	store := session.NewFileStore(path)

	client, err := api.New(cfg.APIURL, store,
		api.WithLogger(logger),
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
		api.WithSessionExpiredHook(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Run 'gestion auth login' to sign in again.")
		}),
	)
	if err != nil {
		return nil, err
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	return &App{Config: cfg, Store: store, Client: client, Logger: logger, JSON: jsonOut}, nil
}

// print renders v as indented JSON when --json is set, otherwise the text
// produced by render.
func (a *App) print(v any, render func() string) error {
	if a.JSON {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(render())
	return nil
}

// FormatError turns the client's error taxonomy into a user-facing message,
// appending field errors line by line the way the web UI lists them under a
// form.
func FormatError(err error) string {
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}

	msg := apiErr.Message
	if apiErr.Title != "" && apiErr.Title != "Error" {
		msg = apiErr.Title + ": " + msg
	}
	if len(apiErr.FieldErrors) == 0 {
		return msg
	}

	fields := make([]string, 0, len(apiErr.FieldErrors))
	for field := range apiErr.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(msg)
	for _, field := range fields {
		for _, detail := range apiErr.FieldErrors[field] {
			b.WriteString(fmt.Sprintf("\n  %s: %s", field, detail))
		}
	}
	return b.String()
}

func displayBanner(appName string) {
	figure.NewFigure(appName, "cybermedium", true).Print()
	fmt.Println()
}
