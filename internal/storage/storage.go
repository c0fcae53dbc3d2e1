// Package storage keeps uploaded receipt images and returns an opaque
// reference to each one.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
)

var ErrInvalidKey = errors.New("invalid storage key")

type Store interface {
	// Save writes body under key and returns the reference to persist.
	Save(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// ReceiptKey is a unique key for one receipt upload, grouped by donor and period.
func ReceiptKey(donorID int64, period jalali.Period, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%d/%04d-%02d/%s.%s", donorID, period.Year, period.Month, uuid.NewString(), ext)
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
