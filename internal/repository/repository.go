// Package repository defines the persistence contract for client-side state.
//
// Session and preferences are a flat string→string map, the same shape a web
// front end keeps in localStorage. The stores above KeyValueStore do not care
// whether the bytes land in SQLite or Redis.
package repository

import "context"

// Well-known keys. Values are plain strings; structured values are JSON.
const (
	KeyAuthToken       = "auth.token"
	KeyAuthUser        = "auth.user"
	KeyAuthExpiresAt   = "auth.expiresAt"
	KeyThemePreference = "theme-preference"

	// Written by earlier releases that cached data locally. Nothing reads them
	// any more; ResetLegacy removes them.
	KeyLegacyProjects    = "portfolio-projects"
	KeyLegacyUserRatings = "user-ratings"
)

// KeyValueStore is a persistent string map.
//
// Get reports found=false (and a nil error) for a missing key; an error means
// the backend itself failed.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ResetLegacy deletes the keys older releases left behind.
func ResetLegacy(ctx context.Context, store KeyValueStore) error {
	for _, key := range []string{KeyLegacyProjects, KeyLegacyUserRatings} {
		if err := store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}
