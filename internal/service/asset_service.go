package service

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"sync"

	// Registered decoders for DecodeConfig. Dimensions are read from the
	// header only; full frames are never decoded.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"nextblog/internal/middleware"
	"nextblog/internal/models"
	"nextblog/internal/observability"
	"nextblog/internal/storage"
)

const (
	// MaxImageSize caps a single uploaded image.
	MaxImageSize = 10 << 20 // 10 MB

	// MaxImagesPerPost caps how many images a post can carry.
	MaxImagesPerPost = 10
)

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// AssetService manages the lifecycle of images in the remote object store.
type AssetService struct {
	store storage.ObjectStore
}

func NewAssetService(store storage.ObjectStore) *AssetService {
	return &AssetService{store: store}
}

// Upload validates and stores a single image, returning its asset descriptor.
// The content type is sniffed from the bytes, never taken from the client.
func (s *AssetService) Upload(ctx context.Context, r io.Reader, folder string) (models.ImageAsset, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		observability.AssetUploads.WithLabelValues("error").Inc()
		return models.ImageAsset{}, models.NewInternalError(err)
	}
	if len(data) == 0 {
		observability.AssetUploads.WithLabelValues("rejected").Inc()
		return models.ImageAsset{}, models.NewValidationError("Image file is empty")
	}
	if len(data) > MaxImageSize {
		observability.AssetUploads.WithLabelValues("rejected").Inc()
		return models.ImageAsset{}, models.NewValidationError("Image exceeds the 10MB size limit")
	}

	contentType := http.DetectContentType(data)
	format, ok := allowedImageTypes[contentType]
	if !ok {
		observability.AssetUploads.WithLabelValues("rejected").Inc()
		return models.ImageAsset{}, models.NewValidationError("Unsupported image type (jpeg, png, gif, webp only)")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		observability.AssetUploads.WithLabelValues("rejected").Inc()
		return models.ImageAsset{}, models.NewValidationError("File is not a valid image")
	}

	publicID, url, err := s.store.Upload(ctx, bytes.NewReader(data), int64(len(data)), contentType, folder)
	if err != nil {
		observability.AssetUploads.WithLabelValues("error").Inc()
		return models.ImageAsset{}, models.NewDependencyError("Image storage is unavailable", err)
	}

	observability.AssetUploads.WithLabelValues("success").Inc()
	return models.ImageAsset{
		PublicID: publicID,
		URL:      url,
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		Size:     int64(len(data)),
	}, nil
}

// ReconcileInput describes the desired image set for an entity that owns
// remote assets.
type ReconcileInput struct {
	// Current is the entity's stored asset set.
	Current []models.ImageAsset
	// Keep lists the public IDs of current assets to retain. An absent or
	// malformed keep-list is an empty set, which discards every current
	// asset. The one exception: no keep-list and no uploads is a
	// metadata-only edit and leaves the set untouched.
	Keep         []string
	KeepProvided bool
	// Uploads are freshly stored assets to append.
	Uploads []models.ImageAsset
	// RequireNonEmpty rejects a reconciliation whose final set would be
	// empty, before any remote deletion happens.
	RequireNonEmpty bool
}

// Reconcile computes the final asset set and deletes the discarded remote
// objects. Deletions are best-effort: failures are logged and counted but
// never propagated, so a flaky object store cannot block a content update.
func (s *AssetService) Reconcile(ctx context.Context, in ReconcileInput) ([]models.ImageAsset, error) {
	if !in.KeepProvided && len(in.Uploads) == 0 {
		return in.Current, nil
	}

	keepSet := make(map[string]struct{}, len(in.Keep))
	for _, id := range in.Keep {
		keepSet[id] = struct{}{}
	}

	var kept, removed []models.ImageAsset
	for _, a := range in.Current {
		if _, ok := keepSet[a.PublicID]; ok {
			kept = append(kept, a)
		} else {
			removed = append(removed, a)
		}
	}

	final := make([]models.ImageAsset, 0, len(kept)+len(in.Uploads))
	final = append(final, kept...)
	final = append(final, in.Uploads...)

	if in.RequireNonEmpty && len(final) == 0 {
		return nil, models.NewValidationError("A post must keep at least one image")
	}
	if len(final) > MaxImagesPerPost {
		return nil, models.NewValidationError("A post can have at most 10 images")
	}

	s.DeleteAll(ctx, removed)
	return final, nil
}

// DeleteAll removes remote objects concurrently, best-effort. It returns once
// every deletion attempt has finished.
func (s *AssetService) DeleteAll(ctx context.Context, assets []models.ImageAsset) {
	if len(assets) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, a := range assets {
		if a.PublicID == "" {
			continue
		}
		wg.Add(1)
		go func(asset models.ImageAsset) {
			defer wg.Done()
			if err := s.store.Delete(ctx, asset.PublicID); err != nil {
				observability.AssetDeletionFailures.Inc()
				middleware.Logger.WarnContext(ctx, "remote asset deletion failed",
					"public_id", asset.PublicID,
					"error", err)
			}
		}(a)
	}
	wg.Wait()
}
