package journals

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kenala/internal/client/models"
)

const columns = `id, user_id, title, story, image_url, latitude, longitude, created_at, synced`

type scanner interface {
	Scan(dest ...any) error
}

func scanJournal(s scanner) (models.Journal, error) {
	var (
		j        models.Journal
		img      sql.NullString
		lat, lng sql.NullFloat64
		created  int64
	)
	if err := s.Scan(&j.ID, &j.UserID, &j.Title, &j.Story, &img, &lat, &lng, &created, &j.Synced); err != nil {
		return models.Journal{}, err
	}
	j.ImageURL = img.String
	if lat.Valid && lng.Valid {
		j.Location = &models.GeoPoint{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	j.CreatedAt = time.UnixMilli(created).UTC()
	return j, nil
}

func scanAll(rows *sql.Rows) ([]models.Journal, error) {
	defer rows.Close()

	var result []models.Journal
	for rows.Next() {
		j, err := scanJournal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journals: %w", err)
	}
	return result, nil
}

// args returns the column values of j in the order of columns.
func args(j models.Journal) []any {
	var lat, lng sql.NullFloat64
	if j.Location != nil {
		lat = sql.NullFloat64{Float64: j.Location.Latitude, Valid: true}
		lng = sql.NullFloat64{Float64: j.Location.Longitude, Valid: true}
	}
	img := sql.NullString{String: j.ImageURL, Valid: j.ImageURL != ""}
	return []any{j.ID, j.UserID, j.Title, j.Story, img, lat, lng, j.CreatedAt.UnixMilli(), j.Synced}
}
