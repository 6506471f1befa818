package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"vastram/internal/config"
	"vastram/internal/logging"
	"vastram/internal/system"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose bool
	dataDir string
	timeout time.Duration

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger

	// bootOptions is passed to system.Boot; tests swap in an HTTP client.
	bootOptions = system.Options{Component: "cli"}
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "vastram",
	Short: "Vastram - premium laundry and dry cleaning from your terminal",
	Long: `Vastram is a terminal storefront for the Vastram laundry service.

Browse services, build a cart, schedule a pickup and follow your orders.
Sign in to keep your cart on the server; as a guest the cart lives only
for the current shop session.

Run without arguments to open the interactive shop.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataDir == "" {
			dataDir = config.DefaultDataDir()
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}

		var err error
		cfg, err = config.Load(config.PathIn(dataDir))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logging.Initialize(dataDir, cfg.Logging.Settings()); err != nil {
			return err
		}
		if err := logging.InitAudit(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}

		// The shop owns the terminal; console logging would corrupt it.
		if isShop(cmd) {
			logger = zap.NewNop()
			return nil
		}

		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAudit()
		logging.CloseAll()
	},
	RunE: runShop,
}

// isShop matches by name; comparing against rootCmd here would be an
// initialization cycle.
func isShop(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "shop"
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (default: ~/.vastram)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")

	registerAccountFlags()
	registerShopFlags()
	registerOrderFlags()
	registerContactFlags()
	registerMockFlags()
	registerInteractiveFlags()

	// Cart subcommands
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartSetCmd)
	cartCmd.AddCommand(cartRemoveCmd)
	cartCmd.AddCommand(cartClearCmd)

	// Config subcommands
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	// Add commands to root
	rootCmd.AddCommand(shopCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(cartCmd)
	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(contactCmd)
	rootCmd.AddCommand(locationsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mockServerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext bounds a one-shot command by --timeout.
func commandContext() (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}

// bootStorefront wires a storefront for a one-shot command. Callers close it.
func bootStorefront(ctx context.Context) (*system.Storefront, error) {
	return bootWith(ctx, bootOptions)
}

func bootWith(ctx context.Context, opts system.Options) (*system.Storefront, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	sf, err := system.Boot(ctx, cfg, dataDir, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Storefront booted",
		zap.String("backend", sf.Client.BaseURL()),
		zap.Bool("signed_in", sf.Session.IsAuthenticated()))
	return sf, nil
}

func closeStorefront(sf *system.Storefront) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sf.Close(ctx); err != nil {
		logger.Warn("Shutdown incomplete", zap.Error(err))
	}
}
