package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vastram/cmd/vastram/shop"
	"vastram/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var shopTheme string

var shopCmd = &cobra.Command{
	Use:   "shop",
	Short: "Open the interactive shop (default)",
	Long: `Opens the full-screen storefront.

Pages: Home, Services, Cart, Checkout, Profile (or Login) and Contact.
Press 1-6 to jump between pages, ctrl+t to switch light/dark and q to quit.
Edits to config.yaml (theme, animations, logging) apply while the shop is open.`,
	Args: cobra.NoArgs,
	RunE: runShop,
}

func registerInteractiveFlags() {
	shopCmd.Flags().StringVar(&shopTheme, "theme", "", "Theme for this session: auto, light or dark")
}

// runShop boots the storefront and hands the terminal to the shop until
// the user quits or the process is interrupted.
func runShop(cmd *cobra.Command, args []string) error {
	if shopTheme != "" && !config.IsValidTheme(shopTheme) {
		return fmt.Errorf("invalid theme %q: must be one of %v", shopTheme, config.ValidThemes)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootCtx, cancel := commandContext()
	opts := bootOptions
	opts.Component = "shop"
	sf, err := bootWith(bootCtx, opts)
	cancel()
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	theme := cfg.UI.Theme
	if shopTheme != "" {
		theme = shopTheme
	}
	logger.Debug("Starting shop", zap.String("theme", theme))

	return shop.Run(ctx, shop.Options{
		Storefront: sf,
		Theme:      theme,
		ForceTheme: shopTheme != "",
		Animations: cfg.UI.Animations,
		ConfigPath: config.PathIn(dataDir),
	})
}
