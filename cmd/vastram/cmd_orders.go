package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"vastram/internal/api"
	"vastram/internal/checkout"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	pickupAddress   string
	pickupDate      string
	pickupTime      string
	deliveryAddress string
	instructions    string

	ordersStatus string
	ordersLimit  int
)

// checkoutCmd places an order for the signed-in cart
var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Schedule a pickup and place an order for your cart",
	Long: `Places an order for everything in your cart.

Addresses default to the address on your profile. Pickup is possible from
tomorrow onwards, in hourly slots between 09:00 and 17:00.

Example:
  vastram checkout --pickup-date 2026-10-20 --pickup-time 11:00`,
	RunE: runCheckout,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Show your order history",
	RunE:  runOrders,
}

func registerOrderFlags() {
	checkoutCmd.Flags().StringVar(&pickupAddress, "pickup-address", "", "Pickup address (default: profile address)")
	checkoutCmd.Flags().StringVar(&pickupDate, "pickup-date", "", "Pickup date YYYY-MM-DD (default: tomorrow)")
	checkoutCmd.Flags().StringVar(&pickupTime, "pickup-time", checkout.DefaultPickupTime, "Pickup slot HH:MM, 09:00-17:00")
	checkoutCmd.Flags().StringVar(&deliveryAddress, "delivery-address", "", "Delivery address (default: profile address)")
	checkoutCmd.Flags().StringVar(&instructions, "instructions", "", "Special instructions")

	ordersCmd.Flags().StringVar(&ordersStatus, "status", "", "Only orders with this status")
	ordersCmd.Flags().IntVar(&ordersLimit, "limit", 20, "Maximum orders to show")
}

// checkoutForm merges the flags over the profile defaults.
func checkoutForm(u api.User, now time.Time) checkout.Form {
	f := checkout.NewForm(u)
	if v := strings.TrimSpace(pickupAddress); v != "" {
		f.PickupAddress = v
	}
	if v := strings.TrimSpace(deliveryAddress); v != "" {
		f.DeliveryAddress = v
	}
	f.PickupDate = strings.TrimSpace(pickupDate)
	if f.PickupDate == "" {
		f.PickupDate = checkout.MinPickupDate(now)
	}
	if v := strings.TrimSpace(pickupTime); v != "" {
		f.PickupTime = v
	}
	f.SpecialInstructions = strings.TrimSpace(instructions)
	return f
}

// runCheckout validates the form, places the order and prints the receipt
func runCheckout(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	switch err := sf.Checkout.Ready(); {
	case errors.Is(err, checkout.ErrNotSignedIn):
		return fmt.Errorf("please sign in to place an order: run 'vastram login'")
	case errors.Is(err, checkout.ErrEmptyCart):
		return fmt.Errorf("your cart is empty: add services with 'vastram cart add <service-id>'")
	case err != nil:
		return err
	}

	u, _ := sf.Session.User()
	form := checkoutForm(u, time.Now())
	quote := sf.Checkout.Quote()

	receipt, err := sf.Checkout.Place(ctx, form)
	if err != nil {
		logger.Debug("Checkout failed", zap.Error(err))
		return errors.New(receipt.Message)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s\n\n", receipt.Message)

	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("Items:", receipt.Order.ItemsSummary())
	table.AddRow("Pickup:", fmt.Sprintf("%s at %s", form.PickupDate, form.PickupTime))
	table.AddRow("Pickup address:", form.PickupAddress)
	table.AddRow("Delivery address:", form.DeliveryAddress)
	total := receipt.Order.Total
	if total == 0 {
		total = quote.Total
	}
	table.AddRow("Total:", price(total))
	fmt.Fprintln(out, table)
	return nil
}

// runOrders lists orders newest first
func runOrders(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	if !sf.Session.IsAuthenticated() {
		return fmt.Errorf("please sign in to see your orders: run 'vastram login'")
	}

	orders, err := sf.Client.Orders().List(ctx, api.OrderQuery{Status: ordersStatus, Limit: ordersLimit})
	if err != nil {
		logger.Debug("Order list failed", zap.Error(err))
		return errors.New(msgOrdersFailed)
	}

	out := cmd.OutOrStdout()
	if len(orders) == 0 {
		fmt.Fprintln(out, msgNoOrders)
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 40
	table.Wrap = true
	table.AddRow("ORDER", "PLACED", "STATUS", "ITEMS", "TOTAL")
	for _, o := range orders {
		placed := ""
		if !o.CreatedAt.IsZero() {
			placed = humanize.Time(o.CreatedAt)
		}
		table.AddRow(o.OrderNumber, placed, o.StatusLabel(), o.ItemsSummary(), price(o.Total))
	}
	table.RightAlign(4)
	fmt.Fprintln(out, table)
	return nil
}

const (
	msgNoOrders     = "No orders yet. Start by browsing our services!"
	msgOrdersFailed = "Failed to load orders. Please try again."
)
