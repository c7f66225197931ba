package domain

import "context"

// ImageStore keeps uploaded event images and hands back their public URLs.
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
