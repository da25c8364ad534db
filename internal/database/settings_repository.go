package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/STRATINT/activityscan/internal/models"
)

// SettingsRepository stores scan settings in Postgres. Every save appends a
// row; the latest row is the current settings.
type SettingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Load returns the latest settings. Without a stored row it returns empty
// settings, which resolve to defaults.
func (r *SettingsRepository) Load(ctx context.Context) (models.Settings, error) {
	query := `
		SELECT use_comparison, total_threshold, keyboard_threshold, mouse_threshold, skip_annotated, updated_at
		FROM scan_settings
		ORDER BY id DESC
		LIMIT 1
	`

	var (
		useComparison, skipAnnotated sql.NullBool
		total, keyboard, mouse       sql.NullInt64
		settings                     models.Settings
	)
	err := r.db.QueryRowContext(ctx, query).Scan(
		&useComparison,
		&total,
		&keyboard,
		&mouse,
		&skipAnnotated,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Settings{}, nil
	}
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	settings.UseGemini = nullBool(useComparison)
	settings.TotalThreshold = nullInt(total)
	settings.KeyboardThreshold = nullInt(keyboard)
	settings.MouseThreshold = nullInt(mouse)
	settings.IgnoreWithNotes = nullBool(skipAnnotated)
	return settings, nil
}

// Save appends settings as the new current row.
func (r *SettingsRepository) Save(ctx context.Context, settings models.Settings) error {
	query := `
		INSERT INTO scan_settings (use_comparison, total_threshold, keyboard_threshold, mouse_threshold, skip_annotated, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		settings.UseGemini,
		settings.TotalThreshold,
		settings.KeyboardThreshold,
		settings.MouseThreshold,
		settings.IgnoreWithNotes,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return models.BoolPtr(v.Bool)
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return models.IntPtr(int(v.Int64))
}
