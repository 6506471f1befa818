package main

import (
	"errors"
	"fmt"
	"strings"

	"vastram/internal/api"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	accountName     string
	accountEmail    string
	accountPassword string
	accountPhone    string
	accountAddress  string
)

// loginCmd signs in and stores the credential
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to your Vastram account",
	Long: `Signs in with email and password. The credential is stored in the
data directory and reused by later commands until it expires or you log out.

Example:
  vastram login --email demo@vastram.in --password vastram123`,
	RunE: runLogin,
}

// registerCmd creates an account
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a Vastram account",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored credential",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in customer",
	RunE:  runWhoami,
}

func registerAccountFlags() {
	loginCmd.Flags().StringVar(&accountEmail, "email", "", "Account email (required)")
	loginCmd.Flags().StringVar(&accountPassword, "password", "", "Account password (required)")
	loginCmd.MarkFlagRequired("email")
	loginCmd.MarkFlagRequired("password")

	registerCmd.Flags().StringVar(&accountName, "name", "", "Full name (required)")
	registerCmd.Flags().StringVar(&accountEmail, "email", "", "Email (required)")
	registerCmd.Flags().StringVar(&accountPassword, "password", "", "Password, at least 6 characters (required)")
	registerCmd.Flags().StringVar(&accountPhone, "phone", "", "Phone number")
	registerCmd.Flags().StringVar(&accountAddress, "address", "", "Default pickup address")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("email")
	registerCmd.MarkFlagRequired("password")
}

// runLogin signs in with --email/--password
func runLogin(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	res, err := sf.Session.Login(ctx, strings.TrimSpace(accountEmail), accountPassword)
	if err != nil {
		logger.Debug("Login failed", zap.Error(err))
		return errors.New(res.Message)
	}
	u, _ := sf.Session.User()
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Welcome back, %s.\n", u.Name)
	return nil
}

// runRegister creates an account and signs in
func runRegister(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	res, err := sf.Session.Register(ctx, api.RegisterRequest{
		Name:     strings.TrimSpace(accountName),
		Email:    strings.TrimSpace(accountEmail),
		Password: accountPassword,
		Phone:    strings.TrimSpace(accountPhone),
		Address:  strings.TrimSpace(accountAddress),
	})
	if err != nil {
		logger.Debug("Register failed", zap.Error(err))
		return errors.New(res.Message)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Account created. Signed in as %s.\n", strings.TrimSpace(accountEmail))
	return nil
}

// runLogout always clears the local credential, even if the backend call fails
func runLogout(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	if !sf.Session.IsAuthenticated() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
		return nil
	}
	sf.Session.Logout(ctx)
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed out.")
	return nil
}

// runWhoami prints the profile of the signed-in customer
func runWhoami(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	sf, err := bootStorefront(ctx)
	if err != nil {
		return err
	}
	defer closeStorefront(sf)

	u, ok := sf.Session.User()
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Run 'vastram login' first.")
		return nil
	}

	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("Name:", u.Name)
	table.AddRow("Email:", u.Email)
	if u.Phone != "" {
		table.AddRow("Phone:", u.Phone)
	}
	if u.Address != "" {
		table.AddRow("Address:", u.Address)
	}
	table.AddRow("Membership:", strings.ToUpper(u.Tier()))
	if !u.CreatedAt.IsZero() {
		table.AddRow("Member since:", humanize.Time(u.CreatedAt))
	}
	if exp, ok := sf.Session.ExpiresAt(); ok {
		table.AddRow("Session expires:", humanize.Time(exp))
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}
