package sqlite

import (
	"context"
	"fmt"

	"github.com/garnizeh/innohub/pkg/apperr"
	"github.com/garnizeh/innohub/pkg/models"
)

// Settings persists the site_settings singleton (id is always models.SettingsID).
type Settings struct{ r *SQLiteRepo }

const settingsColumns = `id, site_name, site_logo, site_favicon, slogan, about_text, phone, email, address, telegram_link, instagram_link, youtube_link, map_embed, working_hours, updated`

// GetOrCreate inserts the defaults unless the row exists, then reads it back.
// INSERT OR IGNORE on the fixed primary key makes racing first calls safe.
func (s Settings) GetOrCreate(ctx context.Context, d models.SiteSettings) (*models.SiteSettings, error) {
	res, err := s.r.conn.Exec(ctx, `INSERT OR IGNORE INTO site_settings (`+settingsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		models.SettingsID, d.SiteName, d.SiteLogo, d.SiteFavicon, d.Slogan, d.AboutText, d.Phone, d.Email, d.Address, d.TelegramLink, d.InstagramLink, d.YoutubeLink, d.MapEmbed, d.WorkingHours, now())
	if err != nil {
		return nil, fmt.Errorf("ensure settings row: %w", err)
	}
	if created, _ := rowsAffected(res); created {
		s.r.logger.Info("site settings row created")
	}

	var st models.SiteSettings
	err = s.r.conn.QueryRow(ctx, `SELECT `+settingsColumns+` FROM site_settings WHERE id = ?`, models.SettingsID).
		Scan(&st.ID, &st.SiteName, &st.SiteLogo, &st.SiteFavicon, &st.Slogan, &st.AboutText, &st.Phone, &st.Email, &st.Address, &st.TelegramLink, &st.InstagramLink, &st.YoutubeLink, &st.MapEmbed, &st.WorkingHours, &st.Updated)
	if err != nil {
		return nil, fmt.Errorf("read settings row: %w", err)
	}
	return &st, nil
}

// Update writes every column of row 1 regardless of st.ID.
func (s Settings) Update(ctx context.Context, st *models.SiteSettings) error {
	if st == nil {
		return fmt.Errorf("settings is nil")
	}
	st.ID = models.SettingsID
	ts := now()

	res, err := s.r.conn.Exec(ctx, `UPDATE site_settings SET site_name = ?, site_logo = ?, site_favicon = ?, slogan = ?, about_text = ?, phone = ?, email = ?, address = ?, telegram_link = ?, instagram_link = ?, youtube_link = ?, map_embed = ?, working_hours = ?, updated = ? WHERE id = ?`,
		st.SiteName, st.SiteLogo, st.SiteFavicon, st.Slogan, st.AboutText, st.Phone, st.Email, st.Address, st.TelegramLink, st.InstagramLink, st.YoutubeLink, st.MapEmbed, st.WorkingHours, ts, models.SettingsID)
	if err != nil {
		return err
	}
	if ok, err := rowsAffected(res); err != nil {
		return err
	} else if !ok {
		return apperr.ErrNotFound
	}
	st.Updated = ts
	return nil
}
