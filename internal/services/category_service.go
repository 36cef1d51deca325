package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finledger/internal/cache"
	"finledger/internal/core"
	"finledger/internal/log"
	"finledger/internal/storage"
)

// CategoryService manages the per-user category tree and resolves category
// subtrees for the accumulators and reports. Subtree id-sets are memoized;
// any category mutation by a user drops that user's cached entries.
type CategoryService struct {
	store    *storage.Store
	subtrees *cache.LRUCache[[]int64]
	log      *log.Logger
}

func NewCategoryService(store *storage.Store, logger *log.Logger) *CategoryService {
	return &CategoryService{
		store:    store,
		subtrees: cache.NewLRUCache[[]int64](256, 5*time.Minute),
		log:      logger.WithComponent(log.ComponentCategory),
	}
}

type CreateCategoryInput struct {
	Name     string
	Type     core.CategoryType
	Icon     string
	ParentID *int64
}

func (s *CategoryService) Create(ctx context.Context, userID int64, in CreateCategoryInput) (core.Category, error) {
	category := core.Category{
		UserID:   userID,
		Name:     in.Name,
		Type:     in.Type,
		Icon:     in.Icon,
		ParentID: in.ParentID,
		IsActive: true,
	}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}

	if in.ParentID != nil {
		if _, err := s.store.GetCategory(ctx, userID, *in.ParentID); err != nil {
			return core.Category{}, err
		}
	}

	created, err := s.store.CreateCategory(ctx, category)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	s.invalidateUser(userID)

	s.log.InfoContext(ctx, "Category created",
		log.FieldCategoryID, created.ID,
		log.FieldUserID, userID)
	return created, nil
}

func (s *CategoryService) Get(ctx context.Context, userID, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, userID, id)
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

type CategoryPatch struct {
	Name     *string
	Icon     *string
	ParentID *int64
	IsActive *bool
}

// Update edits a category. Default categories are immutable.
func (s *CategoryService) Update(ctx context.Context, userID, id int64, patch CategoryPatch) (core.Category, error) {
	category, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	if category.IsDefault {
		return core.Category{}, core.ErrDefaultCategory
	}

	if patch.Name != nil {
		category.Name = *patch.Name
	}
	if patch.Icon != nil {
		category.Icon = *patch.Icon
	}
	if patch.ParentID != nil {
		if _, err := s.store.GetCategory(ctx, userID, *patch.ParentID); err != nil {
			return core.Category{}, err
		}
		category.ParentID = patch.ParentID
	}
	if patch.IsActive != nil {
		category.IsActive = *patch.IsActive
	}

	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	s.invalidateUser(userID)

	s.log.InfoContext(ctx, "Category updated", log.FieldCategoryID, id, log.FieldUserID, userID)
	return category, nil
}

// Delete removes a category. Default categories and categories still
// referenced by transactions cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	category, err := s.store.GetCategory(ctx, userID, id)
	if err != nil {
		return err
	}
	if category.IsDefault {
		return core.ErrDefaultCategory
	}

	count, err := s.store.CountTransactionsByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return core.ErrCategoryHasTransactions
	}

	if err := s.store.DeleteCategory(ctx, userID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	s.invalidateUser(userID)

	s.log.InfoContext(ctx, "Category deleted", log.FieldCategoryID, id, log.FieldUserID, userID)
	return nil
}

// SubtreeIDs resolves a category and all of its descendants.
func (s *CategoryService) SubtreeIDs(ctx context.Context, userID, categoryID int64) ([]int64, error) {
	key := subtreeKey(userID, categoryID)
	if ids, ok := s.subtrees.Get(key); ok {
		return ids, nil
	}

	ids, err := s.store.DescendantIDs(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}
	s.subtrees.Set(key, ids)
	return ids, nil
}

// SubtreeIDsByName locates the user's category whose name contains the
// fragment (case-insensitive) and resolves its subtree. A missing category
// yields an empty set, not an error.
func (s *CategoryService) SubtreeIDsByName(ctx context.Context, userID int64, fragment string) ([]int64, error) {
	category, err := s.store.FindCategoryByNameContains(ctx, userID, fragment)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.SubtreeIDs(ctx, userID, category.ID)
}

// SeedDefaults creates the system categories for a new user. It is a no-op
// when the user already has default categories.
func (s *CategoryService) SeedDefaults(ctx context.Context, userID int64) error {
	existing, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return err
	}
	for _, c := range existing {
		if c.IsDefault {
			return nil
		}
	}

	defaults := []core.Category{
		{Name: "Salary", Type: core.Income},
		{Name: "Freelance", Type: core.Income},
		{Name: "Investments", Type: core.Income},
		{Name: "Other Income", Type: core.Income},
		{Name: "Food", Type: core.Expense},
		{Name: "Transport", Type: core.Expense},
		{Name: "Housing", Type: core.Expense},
		{Name: "Health", Type: core.Expense},
		{Name: "Education", Type: core.Expense},
		{Name: "Leisure", Type: core.Expense},
		{Name: "Purchases", Type: core.Expense},
		{Name: "Services", Type: core.Expense},
		{Name: "Other Expenses", Type: core.Expense},
	}
	for _, c := range defaults {
		c.UserID = userID
		c.IsDefault = true
		c.IsActive = true
		if _, err := s.store.CreateCategory(ctx, c); err != nil {
			return fmt.Errorf("seed default category %q: %w", c.Name, err)
		}
	}
	s.invalidateUser(userID)

	s.log.InfoContext(ctx, "Default categories seeded",
		log.FieldUserID, userID,
		log.FieldCount, len(defaults))
	return nil
}

func (s *CategoryService) invalidateUser(userID int64) {
	s.subtrees.InvalidatePrefix(fmt.Sprintf("u%d:", userID))
}

func subtreeKey(userID, categoryID int64) string {
	return fmt.Sprintf("u%d:c%d", userID, categoryID)
}
