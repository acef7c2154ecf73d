package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/dhparkeren/parkeren"
	"github.com/s0up4200/dhparkeren/validate"
)

// favoritesCmd groups the favorite subcommands
var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"favorite", "fav"},
	Short:   "Manage favorite license plates",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites",
	RunE:  runFavoritesList,
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add <name> <plate>",
	Short: "Save a license plate",
	Args:  cobra.ExactArgs(2),
	RunE:  runFavoritesAdd,
}

var favoritesUpdateCmd = &cobra.Command{
	Use:   "update <id> <name> <plate>",
	Short: "Change the name and plate of a favorite",
	Args:  cobra.ExactArgs(3),
	RunE:  runFavoritesUpdate,
}

var favoritesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFavoritesDelete,
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesUpdateCmd, favoritesDeleteCmd)
}

func runFavoritesList(cmd *cobra.Command, args []string) error {
	favorites, err := client.Favorites.List(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println(formatFavorites(favorites))
	return nil
}

func runFavoritesAdd(cmd *cobra.Command, args []string) error {
	if dryRun {
		fmt.Printf("[DRY RUN] Would save %s as %s\n", validate.NormalizePlate(args[1]), args[0])
		return nil
	}

	id, err := client.Favorites.Add(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("✓ Favorite %d saved\n", id)
	return nil
}

func runFavoritesUpdate(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid favorite id %q: %w", args[0], err)
	}

	if dryRun {
		fmt.Printf("[DRY RUN] Would update favorite %d\n", id)
		return nil
	}

	if err := client.Favorites.Update(cmd.Context(), id, args[1], args[2]); err != nil {
		return err
	}

	fmt.Printf("✓ Favorite %d updated\n", id)
	return nil
}

func runFavoritesDelete(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Printf("[DRY RUN] Would delete %d %s\n", len(ids), plural(len(ids), "favorite"))
		return nil
	}
	if !confirm(fmt.Sprintf("Delete %d %s?", len(ids), plural(len(ids), "favorite"))) {
		logger.Info().Msg("Deletion cancelled")
		return nil
	}

	return reportDeletes(client.Favorites.DeleteMany(cmd.Context(), ids), "favorite")
}

// findFavorite looks a favorite up by name or plate
func findFavorite(cmd *cobra.Command, key string) (*parkeren.Favorite, error) {
	favorites, err := client.Favorites.List(cmd.Context())
	if err != nil {
		return nil, err
	}

	plate := validate.NormalizePlate(key)
	for _, f := range favorites {
		if strings.EqualFold(f.Name, key) || validate.NormalizePlate(f.LicensePlate) == plate {
			return &f, nil
		}
	}
	return nil, errors.New("favorite not found: " + key)
}
