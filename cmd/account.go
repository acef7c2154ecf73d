package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/dhparkeren/parkeren"
)

var (
	historyLimit  int
	historyOffset int
)

// accountCmd represents the account command
var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show the account balance and zone",
	RunE:  runAccount,
}

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past parking sessions",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", parkeren.DefaultHistoryPage.Limit, "number of entries to show")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "number of entries to skip")
}

func runAccount(cmd *cobra.Command, args []string) error {
	account, err := client.Account.Get(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Print(formatAccount(account))
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	entries, err := client.History.List(cmd.Context(), parkeren.Page{Limit: historyLimit, Offset: historyOffset})
	if err != nil {
		return err
	}

	fmt.Println(formatHistory(entries))
	return nil
}
