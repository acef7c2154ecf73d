package parkeren

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/s0up4200/dhparkeren/validate"
)

const favoritePath = "/api/favorite"

// DefaultFavoritePage is the window requested by List
var DefaultFavoritePage = Page{Limit: 100}

// FavoriteManager manages saved license plates
type FavoriteManager struct {
	executor RequestExecutor
	logger   zerolog.Logger
}

// NewFavoriteManager creates a FavoriteManager
func NewFavoriteManager(executor RequestExecutor, logger zerolog.Logger) *FavoriteManager {
	return &FavoriteManager{executor: executor, logger: logger}
}

func favoriteItemPath(id int64) string {
	return fmt.Sprintf("%s/%d", favoritePath, id)
}

// List retrieves the saved favorites
func (m *FavoriteManager) List(ctx context.Context) ([]Favorite, error) {
	req := authenticated(http.MethodGet, favoritePath, nil)
	req.Headers = DefaultFavoritePage.headers()

	outcome := m.executor.Execute(ctx, req)
	if err := outcome.Err(); err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}

	favorites, err := decodeList[Favorite](outcome.Body, "favorites")
	if err != nil {
		return nil, fmt.Errorf("failed to parse favorites: %w", err)
	}

	m.logger.Debug().Int("count", len(favorites)).Msg("Retrieved favorites")
	return favorites, nil
}

// Add saves a license plate under name and returns the new favorite id
func (m *FavoriteManager) Add(ctx context.Context, name, licensePlate string) (int64, error) {
	plate, err := validate.LicensePlate(licensePlate)
	if err != nil {
		return 0, err
	}

	payload := favoritePayload{Name: name, LicensePlate: plate}
	outcome := m.executor.Execute(ctx, authenticated(http.MethodPost, favoritePath, payload))

	var created createdResponse
	if err := outcome.Decode(&created); err != nil {
		return 0, fmt.Errorf("failed to add favorite: %w", err)
	}

	m.logger.Info().Int64("favorite_id", created.id()).Str("license_plate", plate).Msg("Favorite added")
	return created.id(), nil
}

// Update replaces the name and plate of a favorite
func (m *FavoriteManager) Update(ctx context.Context, id int64, name, licensePlate string) error {
	plate, err := validate.LicensePlate(licensePlate)
	if err != nil {
		return err
	}

	payload := favoritePayload{Name: name, LicensePlate: plate}
	outcome := m.executor.Execute(ctx, authenticated(http.MethodPatch, favoriteItemPath(id), payload))
	if err := outcome.Err(); err != nil {
		return fmt.Errorf("failed to update favorite %d: %w", id, err)
	}

	m.logger.Info().Int64("favorite_id", id).Str("license_plate", plate).Msg("Favorite updated")
	return nil
}

// Delete removes a favorite
func (m *FavoriteManager) Delete(ctx context.Context, id int64) error {
	outcome := m.executor.Execute(ctx, authenticated(http.MethodDelete, favoriteItemPath(id), nil))
	if err := outcome.Err(); err != nil {
		return fmt.Errorf("failed to delete favorite %d: %w", id, err)
	}

	m.logger.Info().Int64("favorite_id", id).Msg("Favorite deleted")
	return nil
}

// DeleteMany removes favorites concurrently over the shared session
func (m *FavoriteManager) DeleteMany(ctx context.Context, ids []int64) BatchDeleteResult {
	return batchDelete(ctx, ids, m.Delete)
}
