package products

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
)

const imageColumns = `id, product_id, product_variant_id, url, alt, is_primary, sort_order, created_at, updated_at`

func scanImage(row pgx.Row, img *ProductImage) error {
	return row.Scan(&img.ID, &img.ProductID, &img.ProductVariantID, &img.URL, &img.Alt,
		&img.IsPrimary, &img.SortOrder, &img.CreatedAt, &img.UpdatedAt)
}

// CreateProductImage appends the image to the end of the gallery.
// The first image of a product becomes its primary image.
func (r *Repository) CreateProductImage(ctx context.Context, img *ProductImage) (*ProductImage, error) {
	err := dbx.WithTx(ctx, r.tx, func(tx pgx.Tx) error {
		// serialize gallery writes per product
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, img.ProductID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProductNotFound
			}
			return fmt.Errorf("lock product: %w", err)
		}

		var count, nextOrder int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*), COALESCE(MAX(sort_order) + 1, 0)
			FROM product_images WHERE product_id = $1`, img.ProductID).Scan(&count, &nextOrder); err != nil {
			return fmt.Errorf("image position: %w", err)
		}

		if count == 0 {
			img.IsPrimary = true
		} else if img.IsPrimary {
			if _, err := tx.Exec(ctx, `UPDATE product_images SET is_primary = false, updated_at = now() WHERE product_id = $1 AND is_primary`, img.ProductID); err != nil {
				return fmt.Errorf("clear primary: %w", err)
			}
		}
		img.SortOrder = nextOrder

		return scanImage(tx.QueryRow(ctx, `
			INSERT INTO product_images (product_id, product_variant_id, url, alt, is_primary, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+imageColumns,
			img.ProductID, img.ProductVariantID, img.URL, img.Alt, img.IsPrimary, img.SortOrder), img)
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (r *Repository) GetProductImageByID(ctx context.Context, id int64) (*ProductImage, error) {
	img := &ProductImage{}
	if err := scanImage(r.db.QueryRow(ctx, `SELECT `+imageColumns+` FROM product_images WHERE id = $1`, id), img); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("get image: %w", err)
	}
	return img, nil
}

func (r *Repository) ListProductImages(ctx context.Context, productID int64) ([]*ProductImage, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+imageColumns+`
		FROM product_images
		WHERE product_id = $1
		ORDER BY is_primary DESC, sort_order, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	out := []*ProductImage{}
	for rows.Next() {
		img := &ProductImage{}
		if err := scanImage(rows, img); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *Repository) SetPrimaryImage(ctx context.Context, productID, imageID int64) error {
	return dbx.WithTx(ctx, r.tx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE product_images SET is_primary = false, updated_at = now()
			WHERE product_id = $1 AND is_primary AND id <> $2`, productID, imageID); err != nil {
			return fmt.Errorf("clear primary: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE product_images SET is_primary = true, updated_at = now()
			WHERE product_id = $1 AND id = $2`, productID, imageID)
		if err != nil {
			return fmt.Errorf("set primary: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrImageNotFound
		}
		return nil
	})
}

// ReorderProductImages assigns sort_order by position in orderedIDs.
// orderedIDs must name every image of the product exactly once.
func (r *Repository) ReorderProductImages(ctx context.Context, productID int64, orderedIDs []int64) error {
	return dbx.WithTx(ctx, r.tx, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM product_images
			WHERE product_id = $1 AND id = ANY($2)`, productID, orderedIDs).Scan(&count); err != nil {
			return fmt.Errorf("check images: %w", err)
		}
		var all int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM product_images WHERE product_id = $1`, productID).Scan(&all); err != nil {
			return fmt.Errorf("count images: %w", err)
		}
		if count != len(orderedIDs) || count != all {
			return ErrImageNotFound
		}

		if _, err := tx.Exec(ctx, `
			UPDATE product_images pi
			SET sort_order = o.ord - 1, updated_at = now()
			FROM unnest($2::bigint[]) WITH ORDINALITY AS o(id, ord)
			WHERE pi.id = o.id AND pi.product_id = $1`, productID, orderedIDs); err != nil {
			return fmt.Errorf("reorder images: %w", err)
		}
		return nil
	})
}

// DeleteProductImage promotes the next image when the primary one is removed.
func (r *Repository) DeleteProductImage(ctx context.Context, id int64) error {
	return dbx.WithTx(ctx, r.tx, func(tx pgx.Tx) error {
		var (
			productID int64
			wasPrime  bool
		)
		err := tx.QueryRow(ctx, `
			DELETE FROM product_images WHERE id = $1
			RETURNING product_id, is_primary`, id).Scan(&productID, &wasPrime)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrImageNotFound
			}
			return fmt.Errorf("delete image: %w", err)
		}
		if !wasPrime {
			return nil
		}

		_, err = tx.Exec(ctx, `
			UPDATE product_images SET is_primary = true, updated_at = now()
			WHERE id = (
			  SELECT id FROM product_images
			  WHERE product_id = $1
			  ORDER BY sort_order, id
			  LIMIT 1
			)`, productID)
		if err != nil {
			return fmt.Errorf("promote image: %w", err)
		}
		return nil
	})
}
