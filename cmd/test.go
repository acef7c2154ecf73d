package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/dhparkeren/parkeren"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the login and connection to the parking service",
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fmt.Printf("Testing connection to %s...\n", cfg.Client.BaseURL)

	start := time.Now()
	if err := client.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	fmt.Printf("✓ Logged in as %s (%s)\n", cfg.Account.Username, time.Since(start).Round(time.Millisecond))

	// The three reads share the session established above.
	var (
		account      *parkeren.Account
		reservations []parkeren.Reservation
		favorites    []parkeren.Favorite
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		account, err = client.Account.Get(gctx)
		return err
	})
	g.Go(func() (err error) {
		reservations, err = client.Reservations.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		favorites, err = client.Favorites.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("\nAccount Statistics:\n")
	fmt.Printf("- Balance: %s\n", formatMinutes(int(account.Balance().Minutes())))
	fmt.Printf("- Reservations: %d\n", len(reservations))
	fmt.Printf("- Favorites: %d\n", len(favorites))
	if account.Zone != nil {
		fmt.Printf("- Zone: %s\n", account.Zone.Name)
	}
	fmt.Printf("- Session state: %s\n", client.State())

	return nil
}
