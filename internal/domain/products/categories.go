package products

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

func (r *Repository) CreateCategory(ctx context.Context, c *Category) (*Category, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Slug, c.Description, c.ImageURL, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (r *Repository) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	c := &Category{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, slug, description, image_url, is_active, created_at, updated_at
		FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// GetCategoryBySlug returns an active category with its active subcategories.
func (r *Repository) GetCategoryBySlug(ctx context.Context, slug string) (*CategoryWithSubs, error) {
	c := &CategoryWithSubs{}
	err := r.db.QueryRow(ctx, `
		SELECT id, name, slug, description, image_url, is_active, created_at, updated_at
		FROM categories WHERE slug = $1 AND is_active = true`, slug).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category by slug: %w", err)
	}

	subs, err := r.ListSubCategories(ctx, c.ID, false)
	if err != nil {
		return nil, err
	}
	c.SubCategories = subs
	return c, nil
}

// ListCategories returns the full tree in two queries.
func (r *Repository) ListCategories(ctx context.Context, includeInactive bool) ([]*CategoryWithSubs, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, description, image_url, is_active, created_at, updated_at
		FROM categories
		WHERE ($1 OR is_active = true)
		ORDER BY lower(name), id`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []*CategoryWithSubs{}
	byID := map[int64]*CategoryWithSubs{}
	for rows.Next() {
		c := &CategoryWithSubs{SubCategories: []*SubCategory{}}
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
		byID[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	subRows, err := r.db.Query(ctx, `
		SELECT id, category_id, name, slug, is_active, created_at, updated_at
		FROM subcategories
		WHERE ($1 OR is_active = true)
		ORDER BY category_id, lower(name), id`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer subRows.Close()

	for subRows.Next() {
		s := &SubCategory{}
		if err := subRows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Slug, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		if parent, ok := byID[s.CategoryID]; ok {
			parent.SubCategories = append(parent.SubCategories, s)
		}
	}
	return out, subRows.Err()
}

func (r *Repository) UpdateCategory(ctx context.Context, c *Category) error {
	err := r.db.QueryRow(ctx, `
		UPDATE categories
		SET name = $1, slug = $2, description = $3, image_url = $4, is_active = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at`,
		c.Name, c.Slug, c.Description, c.ImageURL, c.IsActive, c.ID,
	).Scan(&c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrCategoryNotFound
		case dbx.IsUniqueViolation(err):
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory refuses while subcategories or products still point at it.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	var hasSubs, hasProducts bool
	err := r.db.QueryRow(ctx, `
		SELECT
		  EXISTS (SELECT 1 FROM subcategories WHERE category_id = $1),
		  EXISTS (SELECT 1 FROM products WHERE category_id = $1)`, id).Scan(&hasSubs, &hasProducts)
	if err != nil {
		return fmt.Errorf("category dependents: %w", err)
	}
	if hasSubs {
		return ErrCategoryHasChildren
	}
	if hasProducts {
		return ErrCategoryHasProducts
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		// a row slipped in between the check and the delete
		if dbx.IsForeignKeyViolation(err) {
			return ErrCategoryHasProducts
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// ------------------------------------
// Subcategories
// ------------------------------------

func (r *Repository) CreateSubCategory(ctx context.Context, s *SubCategory) (*SubCategory, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO subcategories (category_id, name, slug, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		s.CategoryID, s.Name, s.Slug, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return nil, ErrDuplicateSlug
		case dbx.IsForeignKeyViolation(err):
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("create subcategory: %w", err)
	}
	return s, nil
}

func (r *Repository) GetSubCategoryByID(ctx context.Context, id int64) (*SubCategory, error) {
	s := &SubCategory{}
	err := r.db.QueryRow(ctx, `
		SELECT id, category_id, name, slug, is_active, created_at, updated_at
		FROM subcategories WHERE id = $1`, id).
		Scan(&s.ID, &s.CategoryID, &s.Name, &s.Slug, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubCategoryNotFound
		}
		return nil, fmt.Errorf("get subcategory: %w", err)
	}
	return s, nil
}

func (r *Repository) ListSubCategories(ctx context.Context, categoryID int64, includeInactive bool) ([]*SubCategory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, category_id, name, slug, is_active, created_at, updated_at
		FROM subcategories
		WHERE category_id = $1 AND ($2 OR is_active = true)
		ORDER BY lower(name), id`, categoryID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	defer rows.Close()

	out := []*SubCategory{}
	for rows.Next() {
		s := &SubCategory{}
		if err := rows.Scan(&s.ID, &s.CategoryID, &s.Name, &s.Slug, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subcategory: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSubCategory never moves a subcategory to another category;
// products reference the (id, category_id) pair.
func (r *Repository) UpdateSubCategory(ctx context.Context, s *SubCategory) error {
	err := r.db.QueryRow(ctx, `
		UPDATE subcategories
		SET name = $1, slug = $2, is_active = $3, updated_at = now()
		WHERE id = $4
		RETURNING category_id, updated_at`,
		s.Name, s.Slug, s.IsActive, s.ID,
	).Scan(&s.CategoryID, &s.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return ErrSubCategoryNotFound
		case dbx.IsUniqueViolation(err):
			return ErrDuplicateSlug
		}
		return fmt.Errorf("update subcategory: %w", err)
	}
	return nil
}

func (r *Repository) DeleteSubCategory(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return ErrSubCategoryHasProducts
		}
		return fmt.Errorf("delete subcategory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSubCategoryNotFound
	}
	return nil
}
