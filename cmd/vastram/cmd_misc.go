package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vastram/internal/config"
	"vastram/internal/contact"
	"vastram/internal/logging"
	"vastram/internal/mockbackend"
	"vastram/internal/system"
	"vastram/internal/telemetry"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	contactName    string
	contactEmail   string
	contactPhone   string
	contactMessage string

	mockAddr    string
	mockSecret  string
	mockDebug   bool
	mockOrigins []string
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a message to Vastram customer care",
	RunE:  runContact,
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "List drop-off stores",
	RunE:  runLocations,
}

// configCmd inspects the client configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml into the data directory",
	RunE:  runConfigInit,
}

// mockServerCmd runs the in-memory backend
var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Run an in-memory Vastram backend for local use",
	Long: `Serves the full Vastram REST API from memory: auth, services, cart,
orders and profile. A demo account is seeded:

  email:    demo@vastram.in
  password: vastram123

Point the client at it with api.base_url: http://localhost:5000/api`,
	RunE: runMockServer,
}

func registerContactFlags() {
	contactCmd.Flags().StringVar(&contactName, "name", "", "Your name (required)")
	contactCmd.Flags().StringVar(&contactEmail, "email", "", "Reply address (required)")
	contactCmd.Flags().StringVar(&contactPhone, "phone", "", "Phone number")
	contactCmd.Flags().StringVarP(&contactMessage, "message", "m", "", "Message (required)")
}

func registerMockFlags() {
	mockServerCmd.Flags().StringVar(&mockAddr, "addr", "localhost:5000", "Listen address")
	mockServerCmd.Flags().StringVar(&mockSecret, "secret", "", "JWT signing secret (default: random per run)")
	mockServerCmd.Flags().BoolVar(&mockDebug, "debug", false, "Run gin in debug mode")
	mockServerCmd.Flags().StringSliceVar(&mockOrigins, "allow-origin", nil, "CORS origins (default: local dev servers)")
}

// runContact validates and delivers the contact form
func runContact(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	ack, err := sf.Contact.Submit(ctx, contact.Message{
		Name:    strings.TrimSpace(contactName),
		Email:   strings.TrimSpace(contactEmail),
		Phone:   strings.TrimSpace(contactPhone),
		Message: strings.TrimSpace(contactMessage),
	})
	if err != nil {
		logger.Debug("Contact submit failed", zap.Error(err), zap.String("channel", sf.Contact.Channel()))
		return errors.New(ack)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", ack)
	return nil
}

func runLocations(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for i, loc := range contact.Locations {
		if i > 0 {
			fmt.Fprintln(out)
		}
		table := uitable.New()
		table.MaxColWidth = 60
		table.Wrap = true
		table.AddRow(loc.Name, "")
		table.AddRow("  Address:", loc.Address)
		table.AddRow("  Phone:", loc.Phone)
		table.AddRow("  Hours:", loc.Hours)
		table.AddRow("  Services:", strings.Join(loc.Features, ", "))
		fmt.Fprintln(out, table)
	}
	return nil
}

// runConfigShow prints the effective config with secrets masked
func runConfigShow(cmd *cobra.Command, args []string) error {
	c := *cfg
	if c.Contact.SendGridAPIKey != "" {
		c.Contact.SendGridAPIKey = "********"
	}
	data, err := yaml.Marshal(&c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s\n", config.PathIn(dataDir))
	_, err = out.Write(data)
	return err
}

// runConfigInit writes the defaults unless a config already exists
func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.PathIn(dataDir)
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
		return nil
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s\n", path)
	return nil
}

// runMockServer serves until SIGINT/SIGTERM
func runMockServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// otelgin spans land in the same trace file as the client's.
	shutdown, err := telemetry.Init(ctx, telemetry.Options{
		Enabled:     cfg.Telemetry.Enabled,
		Path:        cfg.TracePath(dataDir),
		ServiceName: "vastram-mock",
		Version:     system.Version,
		Component:   "mock-server",
	})
	if err != nil {
		logger.Warn("Tracing disabled", zap.Error(err))
	}
	defer func() { _ = shutdown(context.Background()) }()

	return serveMock(ctx, mockAddr, cmd.OutOrStdout())
}

func serveMock(ctx context.Context, addr string, out io.Writer) error {
	backend := mockbackend.New(mockbackend.Options{
		Secret:       []byte(mockSecret),
		AllowOrigins: mockOrigins,
		SeedDemoUser: true,
		Debug:        mockDebug,
	})

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:      backend.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Fprintf(out, "Vastram mock backend listening on http://%s%s\n", ln.Addr(), mockbackend.BasePath)
	fmt.Fprintf(out, "Demo account: %s / %s\n", mockbackend.DemoUser.Email, mockbackend.DemoUser.Password)
	logging.Mock("Mock backend listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down mock backend")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock backend shutdown: %w", err)
	}
	<-errCh
	fmt.Fprintln(out, "Mock backend stopped.")
	return nil
}
