package usecase

import (
	"context"
	"strings"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/pkg/errors"
)

// AdUseCase manages the promotional banners shown alongside listings.
// Creation and deletion are admin-only; the role check happens at the
// middleware layer.
type AdUseCase struct {
	adRepo repository.AdRepository
}

func NewAdUseCase(adRepo repository.AdRepository) *AdUseCase {
	return &AdUseCase{adRepo: adRepo}
}

type CreateAdInput struct {
	Title       string
	Description string
	Link        string
}

func (uc *AdUseCase) ListAds(ctx context.Context) ([]*entity.Ad, error) {
	return uc.adRepo.List(ctx)
}

func (uc *AdUseCase) CreateAd(ctx context.Context, creatorID string, input CreateAdInput) (*entity.Ad, error) {
	title := strings.TrimSpace(input.Title)
	link := strings.TrimSpace(input.Link)
	if title == "" || link == "" {
		return nil, errors.BadRequest("Title and link are required", nil)
	}

	ad := &entity.Ad{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Link:        link,
		CreatedBy:   creatorID,
	}

	if err := uc.adRepo.Create(ctx, ad); err != nil {
		return nil, err
	}

	return ad, nil
}

func (uc *AdUseCase) DeleteAd(ctx context.Context, adID string) error {
	if _, err := uc.adRepo.GetByID(ctx, adID); err != nil {
		return errors.NotFound("Ad", err)
	}
	return uc.adRepo.Delete(ctx, adID)
}
