package cart

import (
	"context"
	"errors"
	"strings"

	"cartview/internal/domain"
	cartrepo "cartview/internal/repository/cart"
)

// WholeLine as a removal quantity means "drop the line regardless of quantity".
const WholeLine = 0

var ErrItemRequired = errors.New("itemId required")

type Service struct {
	repo    cartRepo
	catalog catalogRepo
}

type cartRepo interface {
	List(ctx context.Context, userID string) ([]domain.CartLine, error)
	AddItem(ctx context.Context, userID, itemID string, quantity int) error
	Decrement(ctx context.Context, userID, itemID string, quantity int) error
	RemoveLine(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

type catalogRepo interface {
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
}

func New(repo cartrepo.Repository, catalog catalogRepo) *Service {
	return &Service{repo: repo, catalog: catalog}
}

type AddInput struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func (s *Service) Get(ctx context.Context, userID string) ([]domain.CartLine, error) {
	return s.repo.List(ctx, userID)
}

// Add puts quantity units of a catalog item in the cart, merging with an existing line.
func (s *Service) Add(ctx context.Context, userID string, in AddInput) ([]domain.CartLine, error) {
	itemID := strings.TrimSpace(in.ItemID)
	if itemID == "" {
		return nil, ErrItemRequired
	}
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if s.catalog != nil {
		if _, err := s.catalog.GetByID(ctx, itemID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.AddItem(ctx, userID, itemID, in.Quantity); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

// Remove decrements a line by quantity, or drops it when quantity is WholeLine.
func (s *Service) Remove(ctx context.Context, userID, itemID string, quantity int) ([]domain.CartLine, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return nil, ErrItemRequired
	}
	var err error
	switch {
	case quantity == WholeLine:
		err = s.repo.RemoveLine(ctx, userID, itemID)
	case quantity < 0:
		err = domain.ErrInvalidQuantity
	default:
		err = s.repo.Decrement(ctx, userID, itemID, quantity)
	}
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

func (s *Service) Clear(ctx context.Context, userID string) ([]domain.CartLine, error) {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return nil, err
	}
	return []domain.CartLine{}, nil
}
