package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/s0up4200/dhparkeren/parkeren"
)

const displayTime = "2006-01-02 15:04"

// treeItem returns the branch prefix and child indent for entry i of n
func treeItem(i, n int) (prefix, indent string) {
	if i == n-1 {
		return "\u2570", "    "
	}
	return "\u251c", "\u2502   "
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// formatAccount renders the account summary
func formatAccount(account *parkeren.Account) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "\nAccount %d:\n\n", account.ID)
	fmt.Fprintf(&sb, "\u251c\u2500\u2500 Balance: %s\n", formatMinutes(int(account.Balance().Minutes())))
	fmt.Fprintf(&sb, "\u251c\u2500\u2500 Reservations: %d\n", account.ReservationCount)
	if account.Zone != nil {
		fmt.Fprintf(&sb, "\u251c\u2500\u2500 Zone: %s (%s)\n", account.Zone.Name, account.Zone.ID)
		if !account.Zone.StartTime.IsZero() {
			fmt.Fprintf(&sb, "\u2502   Paid parking: %s - %s\n",
				account.Zone.StartTime.Local().Format("15:04"),
				account.Zone.EndTime.Local().Format("15:04"))
		}
	}
	fmt.Fprintf(&sb, "\u2570\u2500\u2500 Language: %s\n\n", account.Language)
	return sb.String()
}

// formatReservations renders reservations as a tree
func formatReservations(reservations []parkeren.Reservation, now time.Time) string {
	if len(reservations) == 0 {
		return "No reservations found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", plural(len(reservations), "Reservation"), len(reservations))

	for i, r := range reservations {
		prefix, indent := treeItem(i, len(reservations))

		title := r.LicensePlate
		if r.Name != "" {
			title = fmt.Sprintf("%s (%s)", r.LicensePlate, r.Name)
		}
		fmt.Fprintf(&sb, "%s\u2500\u2500 #%d %s", prefix, r.ID, title)
		if r.IsActive(now) {
			sb.WriteString(" [ACTIVE]")
		}
		sb.WriteString("\n")

		fmt.Fprintf(&sb, "%s%s - %s (%s)\n", indent,
			r.StartTime.Local().Format(displayTime),
			r.EndTime.Local().Format(displayTime),
			formatMinutes(int(r.Duration().Minutes())))

		if i != len(reservations)-1 {
			sb.WriteString("\u2502\n")
		}
	}

	sb.WriteString("\n")
	return sb.String()
}

// formatFavorites renders saved plates
func formatFavorites(favorites []parkeren.Favorite) string {
	if len(favorites) == 0 {
		return "No favorites found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s (%d):\n\n", plural(len(favorites), "Favorite"), len(favorites))
	for i, f := range favorites {
		prefix, _ := treeItem(i, len(favorites))
		fmt.Fprintf(&sb, "%s\u2500\u2500 #%d %s (%s)\n", prefix, f.ID, f.LicensePlate, f.Name)
	}
	sb.WriteString("\n")
	return sb.String()
}

// formatHistory renders past parking sessions
func formatHistory(entries []parkeren.HistoryEntry) string {
	if len(entries) == 0 {
		return "No parking history found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nParking history (%d):\n\n", len(entries))
	for i, e := range entries {
		prefix, indent := treeItem(i, len(entries))
		fmt.Fprintf(&sb, "%s\u2500\u2500 %s\n", prefix, e.LicensePlate)
		fmt.Fprintf(&sb, "%s%s - %s | %s used\n", indent,
			e.StartTime.Local().Format(displayTime),
			e.EndTime.Local().Format(displayTime),
			formatMinutes(e.MinutesUsed))
	}
	sb.WriteString("\n")
	return sb.String()
}

// formatMinutes renders a minute count as "2h05m"
func formatMinutes(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	if minutes < 60 {
		return fmt.Sprintf("%s%dm", sign, minutes)
	}
	return fmt.Sprintf("%s%dh%02dm", sign, minutes/60, minutes%60)
}
