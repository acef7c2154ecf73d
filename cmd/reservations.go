package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/s0up4200/dhparkeren/filter"
	"github.com/s0up4200/dhparkeren/parkeren"
)

var (
	filterExpr string
	preset     string

	reservationName  string
	reservationPlate string
	reservationStart string
	reservationEnd   string
	reservationFav   string
)

// reservationsCmd groups the reservation subcommands
var reservationsCmd = &cobra.Command{
	Use:     "reservations",
	Aliases: []string{"reservation", "res"},
	Short:   "Manage parking reservations",
}

var reservationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reservations, optionally filtered",
	Long: `List reservations. Filter with an expression or a preset from the config:

  dhparkeren reservations list --filter 'Upcoming and hoursUntil(Start) < 24'
  dhparkeren reservations list --preset today

Variables: ID, Name, Plate, Start, End, DurationMinutes, Active, Upcoming, Ended.
Helpers: now(), today(), minutesUntil(t), hoursUntil(t), daysUntil(t), parseTime(s),
plateIs(p), hasSubstr(s, sub), hasPrefix(s, p), hasSuffix(s, p), lower(s), upper(s).
The case-sensitive operators contains, startsWith and endsWith work infix:
  Name contains "Mom"`,
	RunE: runReservationsList,
}

var reservationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a reservation",
	Example: `  dhparkeren reservations add --plate AB-123-C --start 2025-03-01T09:00:00 --end 2025-03-01T12:00:00
  dhparkeren reservations add --favorite Mom --start 2025-03-01T09:00:00 --end 2025-03-01T12:00:00`,
	RunE: runReservationsAdd,
}

var reservationsExtendCmd = &cobra.Command{
	Use:   "extend <id>",
	Short: "Change the end time of a reservation",
	Args:  cobra.ExactArgs(1),
	RunE:  runReservationsExtend,
}

var reservationsDeleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Delete reservations by id or by filter",
	RunE:  runReservationsDelete,
}

func init() {
	for _, c := range []*cobra.Command{reservationsListCmd, reservationsDeleteCmd} {
		c.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
		c.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	}

	reservationsAddCmd.Flags().StringVar(&reservationName, "name", "", "reservation name")
	reservationsAddCmd.Flags().StringVar(&reservationPlate, "plate", "", "license plate")
	reservationsAddCmd.Flags().StringVar(&reservationFav, "favorite", "", "use the plate of this favorite")
	reservationsAddCmd.Flags().StringVar(&reservationStart, "start", "", "start time (ISO 8601)")
	reservationsAddCmd.Flags().StringVar(&reservationEnd, "end", "", "end time (ISO 8601)")
	_ = reservationsAddCmd.MarkFlagRequired("start")
	_ = reservationsAddCmd.MarkFlagRequired("end")
	reservationsAddCmd.MarkFlagsMutuallyExclusive("plate", "favorite")

	reservationsExtendCmd.Flags().StringVar(&reservationEnd, "end", "", "new end time (ISO 8601)")
	_ = reservationsExtendCmd.MarkFlagRequired("end")

	reservationsCmd.AddCommand(reservationsListCmd, reservationsAddCmd, reservationsExtendCmd, reservationsDeleteCmd)
}

func runReservationsList(cmd *cobra.Command, args []string) error {
	f, err := selectFilter()
	if err != nil {
		return err
	}

	reservations, err := client.Reservations.List(cmd.Context())
	if err != nil {
		return err
	}

	matches := filter.Apply(f, reservations)
	logger.Debug().
		Str("filter", f.Expression()).
		Int("total", len(reservations)).
		Int("matched", len(matches)).
		Msg("Filtered reservations")

	fmt.Println(formatReservations(matches, time.Now()))
	return nil
}

func runReservationsAdd(cmd *cobra.Command, args []string) error {
	plate := reservationPlate
	name := reservationName

	if reservationFav != "" {
		fav, err := findFavorite(cmd, reservationFav)
		if err != nil {
			return err
		}
		plate = fav.LicensePlate
		if name == "" {
			name = fav.Name
		}
	}
	if plate == "" {
		return errors.New("either --plate or --favorite is required")
	}

	in := parkeren.NewReservation{
		Name:         name,
		LicensePlate: plate,
		StartTime:    reservationStart,
		EndTime:      reservationEnd,
	}

	if dryRun {
		fmt.Printf("[DRY RUN] Would reserve %s from %s to %s\n", plate, reservationStart, reservationEnd)
		return nil
	}

	id, err := client.Reservations.Add(cmd.Context(), in)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Reservation %d created for %s\n", id, plate)
	return nil
}

func runReservationsExtend(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid reservation id %q: %w", args[0], err)
	}

	if dryRun {
		fmt.Printf("[DRY RUN] Would set end of reservation %d to %s\n", id, reservationEnd)
		return nil
	}

	if err := client.Reservations.UpdateEnd(cmd.Context(), id, reservationEnd); err != nil {
		return err
	}

	fmt.Printf("✓ Reservation %d now ends at %s\n", id, reservationEnd)
	return nil
}

func runReservationsDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if len(ids) == 0 {
		if filterExpr == "" && preset == "" {
			return errors.New("pass reservation ids or a --filter/--preset")
		}
		f, err := selectFilter()
		if err != nil {
			return err
		}
		reservations, err := client.Reservations.List(cmd.Context())
		if err != nil {
			return err
		}
		matches := filter.Apply(f, reservations)
		if len(matches) == 0 {
			fmt.Println("No reservations found matching the filter criteria.")
			return nil
		}
		fmt.Println(formatReservations(matches, time.Now()))
		for _, r := range matches {
			ids = append(ids, int64(r.ID))
		}
	}

	if dryRun {
		fmt.Printf("[DRY RUN] Would delete %d %s\n", len(ids), plural(len(ids), "reservation"))
		return nil
	}
	if !confirm(fmt.Sprintf("Delete %d %s?", len(ids), plural(len(ids), "reservation"))) {
		logger.Info().Msg("Deletion cancelled")
		return nil
	}

	return reportDeletes(client.Reservations.DeleteMany(cmd.Context(), ids), "reservation")
}

// selectFilter resolves --filter and --preset; neither means match all
func selectFilter() (filter.CompiledFilter, error) {
	if filterExpr != "" {
		f, err := filters.Compile(filterExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return f, nil
	}
	if preset != "" {
		f, err := filters.Resolve(preset)
		if err != nil {
			return nil, fmt.Errorf("preset '%s' not found in config: %w", preset, err)
		}
		return f, nil
	}
	return filter.ParseAndCreateFilter("")
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", arg, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// reportDeletes prints a batch result and fails when anything failed
func reportDeletes(result parkeren.BatchDeleteResult, noun string) error {
	if len(result.Successful) > 0 {
		fmt.Printf("✓ Deleted %d %s\n", len(result.Successful), plural(len(result.Successful), noun))
	}
	for _, failure := range result.Failed {
		fmt.Printf("✗ %v\n", failure)
	}
	if len(result.Failed) > 0 {
		return fmt.Errorf("failed to delete %d of %d %s", len(result.Failed), result.Requested, plural(result.Requested, noun))
	}
	return nil
}
