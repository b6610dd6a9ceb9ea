package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
)

type InteractionService struct {
	repo repository.InteractionRepository
}

func NewInteractionService(repo repository.InteractionRepository) *InteractionService {
	return &InteractionService{repo: repo}
}

// Record stores a browsing event. The timestamp is always server time.
func (s *InteractionService) Record(ctx context.Context, in *domain.Interaction) error {
	if in.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInteraction)
	}
	if !in.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidInteraction, in.Action)
	}
	if in.Action == domain.ActionSearch && in.SearchQuery == "" {
		return fmt.Errorf("%w: search requires a query", ErrInvalidInteraction)
	}
	if in.Action != domain.ActionSearch && in.ProductID == "" {
		return fmt.Errorf("%w: %s requires a product id", ErrInvalidInteraction, in.Action)
	}

	in.Timestamp = time.Now()
	return s.repo.InsertInteraction(ctx, in)
}
