package usecase

import (
	"context"
	"io"
	"strings"

	"campusmarket/internal/domain/entity"
	"campusmarket/internal/domain/repository"
	"campusmarket/internal/infrastructure/ratelimit"
	"campusmarket/pkg/errors"
	"campusmarket/pkg/logger"
)

type ItemUseCase struct {
	itemRepo    repository.ItemRepository
	userRepo    repository.UserRepository
	uploader    FileUploader
	rateLimiter *ratelimit.RateLimiter
}

func NewItemUseCase(itemRepo repository.ItemRepository, userRepo repository.UserRepository, uploader FileUploader) *ItemUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &ItemUseCase{
		itemRepo:    itemRepo,
		userRepo:    userRepo,
		uploader:    uploader,
		rateLimiter: rateLimiter,
	}
}

type CreateItemInput struct {
	Title       string
	Description string
	Price       float64
	Category    string

	// Optional listing image; ignored when Image is nil.
	Image            io.Reader
	ImageContentType string
}

// ItemResponse joins a listing with its seller's display name.
type ItemResponse struct {
	*entity.Item
	SellerName string `json:"seller_name"`
}

func (uc *ItemUseCase) CreateItem(ctx context.Context, sellerID string, input CreateItemInput) (*entity.Item, error) {
	if allowed, wait := uc.rateLimiter.Allow(sellerID, "create_item"); !allowed {
		logger.Warn("CreateItem: user %s rate limited for %v", sellerID, wait)
		return nil, errors.TooManyRequests("You are posting items too quickly. Please try again later.")
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.BadRequest("Title is required", nil)
	}
	if input.Price < 0 {
		return nil, errors.BadRequest("Price cannot be negative", nil)
	}

	item := &entity.Item{
		SellerID:    sellerID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Category:    strings.TrimSpace(input.Category),
	}

	if input.Image != nil {
		if uc.uploader == nil {
			return nil, errors.BadRequest("Image uploads are not enabled", nil)
		}
		url, err := uc.uploader.UploadFile(ctx, input.Image, input.ImageContentType, "items")
		if err != nil {
			return nil, errors.Internal("Failed to upload item image", err)
		}
		item.ImageURL = url
	}

	if err := uc.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	logger.Info("Item %s listed by %s", item.ID, sellerID)
	return item, nil
}

// ListItems returns all unsold listings, newest first, each carrying the
// seller's display name.
func (uc *ItemUseCase) ListItems(ctx context.Context) ([]*ItemResponse, error) {
	items, err := uc.itemRepo.ListUnsold(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]*ItemResponse, 0, len(items))
	names := make(map[string]string)
	for _, item := range items {
		name, ok := names[item.SellerID]
		if !ok {
			name = "Unknown user"
			if seller, err := uc.userRepo.GetByID(ctx, item.SellerID); err == nil {
				name = seller.Name
			}
			names[item.SellerID] = name
		}
		responses = append(responses, &ItemResponse{Item: item, SellerName: name})
	}

	return responses, nil
}

func (uc *ItemUseCase) GetItem(ctx context.Context, id string) (*ItemResponse, error) {
	item, err := uc.itemRepo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NotFound("Item", err)
	}

	name := "Unknown user"
	if seller, err := uc.userRepo.GetByID(ctx, item.SellerID); err == nil {
		name = seller.Name
	}

	return &ItemResponse{Item: item, SellerName: name}, nil
}

// MyListings returns every item the user has posted, sold ones included.
func (uc *ItemUseCase) MyListings(ctx context.Context, sellerID string) ([]*entity.Item, error) {
	return uc.itemRepo.ListBySeller(ctx, sellerID)
}

func (uc *ItemUseCase) MarkSold(ctx context.Context, requesterID, itemID string) error {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return errors.NotFound("Item", err)
	}
	if item.SellerID != requesterID {
		return errors.Forbidden("You can only update your own listings", nil)
	}

	return uc.itemRepo.MarkSold(ctx, itemID)
}

func (uc *ItemUseCase) DeleteItem(ctx context.Context, requesterID, itemID string) error {
	item, err := uc.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return errors.NotFound("Item", err)
	}
	if item.SellerID != requesterID {
		return errors.Forbidden("You can only delete your own listings", nil)
	}

	return uc.itemRepo.Delete(ctx, itemID)
}
