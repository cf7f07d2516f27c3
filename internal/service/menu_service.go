package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fsdevblog/cafe-pos/internal/domain"
	"github.com/fsdevblog/cafe-pos/internal/repository/repoargs"
	"github.com/fsdevblog/cafe-pos/pkg/uow"
	"github.com/shopspring/decimal"
)

const MaxMenuItemNameLength = 20

type MenuService struct {
	menuRepo MenuRepository
}

func NewMenuService(u uow.UOW) (*MenuService, error) {
	menuRepo, err := uow.GetRepositoryAs[MenuRepository](u, uow.RepositoryName(repoargs.MenuRepoName))
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &MenuService{menuRepo: menuRepo}, nil
}

// Available позиции, доступные для заказа.
func (m *MenuService) Available(ctx context.Context) ([]domain.MenuItem, error) {
	available := true
	return m.List(ctx, &available)
}

func (m *MenuService) List(ctx context.Context, available *bool) ([]domain.MenuItem, error) {
	items, err := m.menuRepo.List(ctx, available)
	if err != nil {
		return nil, fmt.Errorf("listing menu: %w", err)
	}
	return items, nil
}

func (m *MenuService) Categories(ctx context.Context) ([]string, error) {
	categories, err := m.menuRepo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing menu categories: %w", err)
	}
	return categories, nil
}

func (m *MenuService) Create(ctx context.Context, args repoargs.CreateMenuItem) (*domain.MenuItem, error) {
	args.Name = strings.TrimSpace(args.Name)
	args.Category = strings.TrimSpace(args.Category)
	if err := validateMenuName(args.Name); err != nil {
		return nil, err
	}
	if args.Category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidMenuItem)
	}
	if err := validateMenuPrice("price", args.Price); err != nil {
		return nil, err
	}
	if err := validateMenuPrice("cost", args.Cost); err != nil {
		return nil, err
	}

	item, err := m.menuRepo.Create(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("creating menu item: %w", err)
	}
	return item, nil
}

func (m *MenuService) Update(
	ctx context.Context,
	id string,
	args repoargs.UpdateMenuItem,
) (*domain.MenuItem, error) {
	if args.Name != nil {
		name := strings.TrimSpace(*args.Name)
		if err := validateMenuName(name); err != nil {
			return nil, err
		}
		args.Name = &name
	}
	if args.Category != nil && strings.TrimSpace(*args.Category) == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidMenuItem)
	}
	if args.Price != nil {
		if err := validateMenuPrice("price", *args.Price); err != nil {
			return nil, err
		}
	}
	if args.Cost != nil {
		if err := validateMenuPrice("cost", *args.Cost); err != nil {
			return nil, err
		}
	}

	item, err := m.menuRepo.Update(ctx, id, args)
	if err != nil {
		return nil, fmt.Errorf("updating menu item `%s`: %w", id, err)
	}
	return item, nil
}

// Delete удаляет позицию. Позицию, попавшую в заказы, удалить нельзя: ее следует сделать недоступной.
func (m *MenuService) Delete(ctx context.Context, id string) error {
	err := m.menuRepo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrForeignKey) {
			return fmt.Errorf("%w: `%s`", domain.ErrMenuItemInUse, id)
		}
		return fmt.Errorf("deleting menu item `%s`: %w", id, err)
	}
	return nil
}

func validateMenuName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidMenuItem)
	}
	if utf8.RuneCountInString(name) > MaxMenuItemNameLength {
		return fmt.Errorf("%w: name is longer than %d characters", domain.ErrInvalidMenuItem, MaxMenuItemNameLength)
	}
	return nil
}

func validateMenuPrice(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidMenuItem, field)
	}
	if !v.Equal(v.Truncate(domain.CurrencyScale)) || v.GreaterThanOrEqual(domain.MaxAmount) {
		return fmt.Errorf("%w: %s %s is out of range", domain.ErrInvalidMenuItem, field, v.String())
	}
	return nil
}
