// Package storage writes processed image uploads to local disk, Google Cloud
// Storage or an S3-compatible bucket and returns the URL clients load them from.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yasinhessnawi1/Natours_Backend/internal/config"
	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

// ImageStore persists one object and returns its public URL.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageSettings) (ImageStore, error) {
	switch cfg.Driver {
	case "", constants.StorageDriverLocal:
		return NewLocalStore(cfg.LocalDir, cfg.PublicURL), nil
	case constants.StorageDriverGCS:
		return NewGCSStore(ctx, cfg.GCSCredentialsFile, cfg.Bucket)
	case constants.StorageDriverS3:
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// UserPhotoKey names the resized photo of a user.
func UserPhotoKey(userID int64, now time.Time) string {
	return fmt.Sprintf("users/user-%d-%d.jpeg", userID, now.UnixMilli())
}

// TourCoverKey names the resized cover image of a tour.
func TourCoverKey(tourID int64, now time.Time) string {
	return fmt.Sprintf("tours/tour-%d-%d-cover.jpeg", tourID, now.UnixMilli())
}

// TourImageKey names gallery image i (1-based) of a tour.
func TourImageKey(tourID int64, now time.Time, i int) string {
	return fmt.Sprintf("tours/tour-%d-%d-%d.jpeg", tourID, now.UnixMilli(), i)
}

// ResolveURL turns a stored image reference into an address a browser can
// load. Seeded data holds bare file names under /img/<folder>; uploads hold
// the URL returned by Put. baseURL may be empty for same-origin links.
func ResolveURL(baseURL, folder, ref string) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return ref
	case strings.HasPrefix(ref, "/"):
		return strings.TrimRight(baseURL, "/") + ref
	default:
		return fmt.Sprintf("%s/img/%s/%s", strings.TrimRight(baseURL, "/"), folder, ref)
	}
}
