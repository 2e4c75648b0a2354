package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/repo"
)

// PhotoConfig bounds the photo memo
type PhotoConfig struct {
	Size int
	TTL  time.Duration
}

// DefaultPhotoConfig returns the default memo bounds
func DefaultPhotoConfig() PhotoConfig {
	return PhotoConfig{
		Size: 256,
		TTL:  12 * time.Hour,
	}
}

type photoKey struct {
	account domain.AccountID
	childID string
}

// PhotoUsecase turns a child's portal photo into an uploaded image key.
// Results are memoized per (account, child) in a bounded LRU; two concurrent
// misses for one key both fetch, which only wastes an upload.
type PhotoUsecase struct {
	portalRepo  repo.PortalRepo
	messageRepo repo.MessageRepo
	cache       *expirable.LRU[photoKey, string]
	logger      *slog.Logger
}

// NewPhotoUsecase creates a new photo usecase
func NewPhotoUsecase(portalRepo repo.PortalRepo, messageRepo repo.MessageRepo, cfg PhotoConfig) *PhotoUsecase {
	if cfg.Size <= 0 {
		cfg.Size = DefaultPhotoConfig().Size
	}
	return &PhotoUsecase{
		portalRepo:  portalRepo,
		messageRepo: messageRepo,
		cache:       expirable.NewLRU[photoKey, string](cfg.Size, nil, cfg.TTL),
		logger:      slog.With("component", "photo"),
	}
}

// Resolve returns the image key for the child's photo, or "" when the child
// has no photo or it could not be fetched
func (uc *PhotoUsecase) Resolve(ctx context.Context, account domain.AccountID, child domain.Child) string {
	if child.PhotoURL == "" {
		return ""
	}

	key := photoKey{account: account, childID: child.ID}
	if imageKey, ok := uc.cache.Get(key); ok {
		return imageKey
	}

	data, err := uc.portalRepo.FetchPhoto(ctx, account, child.PhotoURL)
	if err != nil {
		uc.logger.Warn("fetch photo failed", "account", account, "child", child.ID, "err", err)
		return ""
	}

	imageKey, err := uc.messageRepo.UploadImage(ctx, data)
	if err != nil {
		uc.logger.Warn("upload photo failed", "account", account, "child", child.ID, "err", err)
		return ""
	}

	uc.cache.Add(key, imageKey)
	return imageKey
}

// Len returns the number of memoized photos
func (uc *PhotoUsecase) Len() int {
	return uc.cache.Len()
}
