package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const lastRefreshPrefix = "last_refresh:"

// LastRefreshKey is the key under which the time of the last successful
// refresh of userID is kept.
func LastRefreshKey(userID string) string {
	return lastRefreshPrefix + userID
}

// PutTime stores t in UTC with millisecond precision.
func PutTime(ctx context.Context, r Repository, key string, t time.Time) error {
	return r.Set(ctx, key, []byte(t.UTC().Truncate(time.Millisecond).Format(time.RFC3339Nano)))
}

// GetTime returns the zero time when key is unset.
func GetTime(ctx context.Context, r Repository, key string) (time.Time, error) {
	v, err := r.Get(ctx, key)
	if errors.Is(err, ErrNotFound) || (err == nil && len(v) == 0) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("metadata %q is not a timestamp: %w", key, err)
	}
	return t, nil
}
