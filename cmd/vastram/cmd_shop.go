package main

import (
	"errors"
	"fmt"
	"strconv"

	"vastram/internal/cart"
	"vastram/internal/catalog"
	"vastram/internal/system"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

var servicesCategory string

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List laundry and dry-cleaning services",
	Long: `Lists active services with their price and turnaround.

Categories: all, suits, shirts, traditional, home-essentials. The home page
link names (dry-cleaning, premium-laundry, bridal-wear) are accepted too.`,
	RunE: runServices,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List service categories",
	RunE:  runCategories,
}

// cartCmd shows the server-side cart
var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show and edit your cart (requires sign-in)",
	Long: `Shows the cart stored on your account.

A guest cart only lives inside the interactive shop, so the cart commands
need a signed-in session.`,
	RunE: runCartShow,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <service-id>",
	Short: "Add one of a service to the cart",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartAdd,
}

var cartSetCmd = &cobra.Command{
	Use:   "set <service-id> <quantity>",
	Short: "Set the quantity of a cart line (0 removes it)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCartSet,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <service-id>",
	Short: "Remove a service from the cart",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartRemove,
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart",
	RunE:  runCartClear,
}

func registerShopFlags() {
	servicesCmd.Flags().StringVarP(&servicesCategory, "category", "c", catalog.All, "Category filter")
}

// price renders an amount in whole rupees, e.g. ₹1,499.
func price(amount int64) string {
	symbol := "₹"
	if cfg != nil && cfg.Checkout.CurrencySymbol != "" {
		symbol = cfg.Checkout.CurrencySymbol
	}
	return symbol + humanize.Comma(amount)
}

// runServices lists the catalog, filtered by --category
func runServices(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	if err := sf.Catalog.Load(ctx); err != nil {
		return errors.New(sf.Catalog.Err())
	}

	category := catalog.ResolveCategory(servicesCategory)
	services := sf.Catalog.Services(category)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%d)\n\n", catalog.OptionName(category), len(services))
	if len(services) == 0 {
		fmt.Fprintln(out, "No services in this category yet.")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 48
	table.Wrap = true
	table.AddRow("ID", "SERVICE", "CATEGORY", "PRICE", "TURNAROUND")
	for _, s := range services {
		table.AddRow(s.ID, s.Name, s.Category, price(s.Price), s.ProcessingTime)
	}
	table.RightAlign(3)
	fmt.Fprintln(out, table)
	return nil
}

// runCategories lists the categories reported by the backend
func runCategories(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	if err := sf.Catalog.Load(ctx); err != nil {
		return errors.New(sf.Catalog.Err())
	}

	table := uitable.New()
	table.AddRow("CATEGORY", "NAME", "SERVICES")
	for _, c := range sf.Catalog.Categories() {
		count := ""
		if c.Count > 0 {
			count = strconv.Itoa(c.Count)
		}
		table.AddRow(c.Name, catalog.OptionName(c.Name), count)
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}

// openCart boots a storefront and loads the signed-in cart.
func openCart() (*system.Storefront, error) {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return nil, err
	}
	if err := sf.Cart.RequireAuthenticated(); err != nil {
		closeStorefront(sf)
		return nil, fmt.Errorf("%w: run 'vastram login' first", err)
	}
	return sf, nil
}

// cartFailure prefers the controller's user-facing message.
func cartFailure(sf *system.Storefront, err error) error {
	if msg := sf.Cart.Err(); msg != "" {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return err
}

func printCart(cmd *cobra.Command, sf *system.Storefront, snap cart.Snapshot) {
	out := cmd.OutOrStdout()
	if snap.IsEmpty() {
		fmt.Fprintln(out, "Your cart is empty. Browse services with 'vastram services'.")
		return
	}

	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("ID", "SERVICE", "PRICE", "QTY", "SUBTOTAL")
	for _, it := range snap.Items() {
		table.AddRow(it.ServiceID, it.Name, price(it.UnitPrice), it.Quantity, price(it.Subtotal()))
	}
	table.RightAlign(2)
	table.RightAlign(3)
	table.RightAlign(4)
	fmt.Fprintln(out, table)

	q := sf.Checkout.Quote()
	fmt.Fprintln(out)
	totals := uitable.New()
	totals.AddRow("Items:", strconv.Itoa(snap.TotalItems()))
	totals.AddRow("Subtotal:", price(q.Subtotal))
	totals.AddRow(fmt.Sprintf("GST (%d%%):", q.RatePct), price(q.Tax))
	totals.AddRow("Total:", price(q.Total))
	totals.RightAlign(1)
	fmt.Fprintln(out, totals)
}

func runCartShow(cmd *cobra.Command, args []string) error {
	sf, err := openCart()
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	ctx, cancel := commandContext()
	defer cancel()
	snap, err := sf.Cart.Load(ctx)
	if err != nil {
		return cartFailure(sf, err)
	}
	printCart(cmd, sf, snap)
	return nil
}

// runCartAdd adds one unit; the price and name come from the catalog
func runCartAdd(cmd *cobra.Command, args []string) error {
	sf, err := openCart()
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	ctx, cancel := commandContext()
	defer cancel()

	svc, err := sf.Client.Services().Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("unknown service %q: %w", args[0], err)
	}
	snap, err := sf.Cart.Add(ctx, catalog.ItemFor(svc))
	if err != nil {
		return cartFailure(sf, err)
	}
	it, _ := snap.Get(svc.ID)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s (now %d in cart)\n", svc.Name, it.Quantity)
	return nil
}

func runCartSet(cmd *cobra.Command, args []string) error {
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	sf, err := openCart()
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	ctx, cancel := commandContext()
	defer cancel()
	snap, err := sf.Cart.UpdateQuantity(ctx, args[0], qty)
	if err != nil {
		return cartFailure(sf, err)
	}
	printCart(cmd, sf, snap)
	return nil
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	sf, err := openCart()
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	ctx, cancel := commandContext()
	defer cancel()
	snap, err := sf.Cart.Remove(ctx, args[0])
	if err != nil {
		return cartFailure(sf, err)
	}
	printCart(cmd, sf, snap)
	return nil
}

func runCartClear(cmd *cobra.Command, args []string) error {
	sf, err := openCart()
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	ctx, cancel := commandContext()
	defer cancel()
	if _, err := sf.Cart.Clear(ctx); err != nil {
		return cartFailure(sf, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Cart cleared.")
	return nil
}
