package variants

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/domain/inventory"
	"storefront/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

var (
	ErrAttributeNotFound  = errors.New("attribute not found")
	ErrDuplicateAttribute = errors.New("attribute with this name or code already exists")
	ErrAttributeInUse     = errors.New("attribute is used by product variants")
	ErrValueNotFound      = errors.New("attribute value not found")
	ErrDuplicateValue     = errors.New("value already exists for this attribute")
	ErrValueInUse         = errors.New("attribute value is used by product variants")
	ErrProductNotFound    = errors.New("product not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrDuplicateSKU       = errors.New("sku already exists")
	ErrDuplicateOptions   = errors.New("a variant with the same options already exists")
	ErrRepeatedAttribute  = errors.New("a variant can have only one value per attribute")
	ErrValueMismatch      = errors.New("value does not belong to the selected attribute")
)

type Store interface {
	CreateAttribute(ctx context.Context, a *Attribute) (*Attribute, error)
	GetAttributeByID(ctx context.Context, id int64) (*Attribute, error)
	ListAttributes(ctx context.Context) ([]*Attribute, error)
	UpdateAttribute(ctx context.Context, a *Attribute) error
	DeleteAttribute(ctx context.Context, id int64) error
	CreateAttributeValue(ctx context.Context, v *AttributeValue) (*AttributeValue, error)
	DeleteAttributeValue(ctx context.Context, attributeID, valueID int64) error

	CreateVariant(ctx context.Context, nv NewVariant) (*Variant, error)
	GenerateVariants(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	GetVariant(ctx context.Context, id int64) (*Variant, error)
	ListVariantsByProduct(ctx context.Context, productID int64, includeInactive bool) ([]*Variant, error)
	UpdateVariant(ctx context.Context, v *Variant) error
	DeleteVariant(ctx context.Context, id int64) error
}

type Repository struct {
	db dbx.Querier
	tx dbx.TxBeginner
}

func NewRepository(db dbx.DB) *Repository {
	return &Repository{db: db, tx: db}
}

// ------------------------------------
// Attributes
// ------------------------------------

func (r *Repository) CreateAttribute(ctx context.Context, a *Attribute) (*Attribute, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO attributes (name, code) VALUES ($1, $2)
		RETURNING id, created_at`, a.Name, a.Code).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, ErrDuplicateAttribute
		}
		return nil, fmt.Errorf("create attribute: %w", err)
	}
	a.Values = []*AttributeValue{}
	return a, nil
}

func (r *Repository) GetAttributeByID(ctx context.Context, id int64) (*Attribute, error) {
	a := &Attribute{}
	err := r.db.QueryRow(ctx, `SELECT id, name, code, created_at FROM attributes WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Code, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttributeNotFound
		}
		return nil, fmt.Errorf("get attribute: %w", err)
	}

	values, err := r.listValues(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	a.Values = lo.Ternary(values[id] != nil, values[id], []*AttributeValue{})
	return a, nil
}

// ListAttributes returns every attribute with its values, both ordered by id.
func (r *Repository) ListAttributes(ctx context.Context) ([]*Attribute, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, code, created_at FROM attributes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	defer rows.Close()

	out := []*Attribute{}
	for rows.Next() {
		a := &Attribute{Values: []*AttributeValue{}}
		if err := rows.Scan(&a.ID, &a.Name, &a.Code, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	values, err := r.listValues(ctx, lo.Map(out, func(a *Attribute, _ int) int64 { return a.ID }))
	if err != nil {
		return nil, err
	}
	for _, a := range out {
		if vs, ok := values[a.ID]; ok {
			a.Values = vs
		}
	}
	return out, nil
}

func (r *Repository) listValues(ctx context.Context, attributeIDs []int64) (map[int64][]*AttributeValue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, attribute_id, value, code, created_at
		FROM attribute_values
		WHERE attribute_id = ANY($1)
		ORDER BY attribute_id, id`, attributeIDs)
	if err != nil {
		return nil, fmt.Errorf("list attribute values: %w", err)
	}
	defer rows.Close()

	out := map[int64][]*AttributeValue{}
	for rows.Next() {
		v := &AttributeValue{}
		if err := rows.Scan(&v.ID, &v.AttributeID, &v.Value, &v.Code, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attribute value: %w", err)
		}
		out[v.AttributeID] = append(out[v.AttributeID], v)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateAttribute(ctx context.Context, a *Attribute) error {
	tag, err := r.db.Exec(ctx, `UPDATE attributes SET name = $1, code = $2 WHERE id = $3`, a.Name, a.Code, a.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return ErrDuplicateAttribute
		}
		return fmt.Errorf("update attribute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttributeNotFound
	}
	return nil
}

func (r *Repository) DeleteAttribute(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attributes WHERE id = $1`, id)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return ErrAttributeInUse
		}
		return fmt.Errorf("delete attribute: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttributeNotFound
	}
	return nil
}

// CreateAttributeValue derives the code from the value when none is given.
func (r *Repository) CreateAttributeValue(ctx context.Context, v *AttributeValue) (*AttributeValue, error) {
	if strings.TrimSpace(v.Code) == "" {
		v.Code = CodeFromValue(v.Value)
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO attribute_values (attribute_id, value, code) VALUES ($1, $2, $3)
		RETURNING id, created_at`, v.AttributeID, v.Value, v.Code).Scan(&v.ID, &v.CreatedAt)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err):
			return nil, ErrDuplicateValue
		case dbx.IsForeignKeyViolation(err):
			return nil, ErrAttributeNotFound
		}
		return nil, fmt.Errorf("create attribute value: %w", err)
	}
	return v, nil
}

func (r *Repository) DeleteAttributeValue(ctx context.Context, attributeID, valueID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attribute_values WHERE id = $1 AND attribute_id = $2`, valueID, attributeID)
	if err != nil {
		if dbx.IsForeignKeyViolation(err) {
			return ErrValueInUse
		}
		return fmt.Errorf("delete attribute value: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrValueNotFound
	}
	return nil
}

// ------------------------------------
// Variants
// ------------------------------------

const variantColumns = `id, product_id, sku, price_cents, stock, low_stock_threshold, is_active, created_at, updated_at`

func scanVariant(row pgx.Row, v *Variant) error {
	return row.Scan(&v.ID, &v.ProductID, &v.SKU, &v.PriceCents, &v.Stock, &v.LowStockThreshold,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt)
}

func mapVariantWriteErr(err error) error {
	if !dbx.IsUniqueViolation(err) {
		return nil
	}
	if dbx.ConstraintName(err) == "product_variants_sku_key" {
		return ErrDuplicateSKU
	}
	return ErrDuplicateOptions
}

// lockProduct serializes variant creation per product and returns its slug.
func lockProduct(ctx context.Context, tx pgx.Tx, productID int64) (string, error) {
	var slug string
	err := tx.QueryRow(ctx, `SELECT slug FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProductNotFound
		}
		return "", fmt.Errorf("lock product: %w", err)
	}
	return slug, nil
}

// loadOptions resolves value ids into options ordered by attribute id.
func loadOptions(ctx context.Context, q dbx.Querier, valueIDs []int64) ([]Option, error) {
	ids := lo.Uniq(valueIDs)
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := q.Query(ctx, `
		SELECT a.id, a.name, av.id, av.value, av.code
		FROM attribute_values av
		JOIN attributes a ON a.id = av.attribute_id
		WHERE av.id = ANY($1)
		ORDER BY a.id, av.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	defer rows.Close()

	var opts []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.AttributeID, &o.AttributeName, &o.ValueID, &o.Value, &o.ValueCode); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		opts = append(opts, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(opts) != len(ids) {
		return nil, ErrValueNotFound
	}
	return opts, nil
}

// takenSKUs returns existing SKUs that share base as a prefix.
func takenSKUs(ctx context.Context, q dbx.Querier, prefix string) (map[string]struct{}, error) {
	rows, err := q.Query(ctx, `SELECT sku FROM product_variants WHERE sku LIKE $1 || '%'`, prefix)
	if err != nil {
		return nil, fmt.Errorf("taken skus: %w", err)
	}
	defer rows.Close()

	taken := map[string]struct{}{}
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, fmt.Errorf("scan sku: %w", err)
		}
		taken[sku] = struct{}{}
	}
	return taken, rows.Err()
}

func insertVariant(ctx context.Context, tx pgx.Tx, v *Variant, signature string) error {
	err := scanVariant(tx.QueryRow(ctx, `
		INSERT INTO product_variants (product_id, sku, price_cents, stock, low_stock_threshold, option_signature, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+variantColumns,
		v.ProductID, v.SKU, v.PriceCents, v.Stock, v.LowStockThreshold, signature, v.IsActive), v)
	if err != nil {
		if mapped := mapVariantWriteErr(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert variant: %w", err)
	}

	if len(v.Options) == 0 {
		return nil
	}
	attrIDs := lo.Map(v.Options, func(o Option, _ int) int64 { return o.AttributeID })
	valueIDs := lo.Map(v.Options, func(o Option, _ int) int64 { return o.ValueID })
	if _, err := tx.Exec(ctx, `
		INSERT INTO variant_options (variant_id, attribute_id, attribute_value_id)
		SELECT $1, a, v FROM unnest($2::bigint[], $3::bigint[]) AS t(a, v)`, v.ID, attrIDs, valueIDs); err != nil {
		return fmt.Errorf("insert variant options: %w", err)
	}
	return nil
}

// CreateVariant inserts one variant with its option set. Initial stock is
// recorded as a restock movement.
func (r *Repository) CreateVariant(ctx context.Context, nv NewVariant) (*Variant, error) {
	var created *Variant
	err := dbx.WithTx(ctx, r.tx, func(tx pgx.Tx) error {
		slug, err := lockProduct(ctx, tx, nv.ProductID)
		if err != nil {
			return err
		}

		opts, err := loadOptions(ctx, tx, nv.ValueIDs)
		if err != nil {
			return err
		}
		if len(lo.UniqBy(opts, func(o Option) int64 { return o.AttributeID })) != len(opts) {
			return ErrRepeatedAttribute
		}

		v := &Variant{
			ProductID:         nv.ProductID,
			SKU:               strings.ToUpper(strings.TrimSpace(nv.SKU)),
			PriceCents:        nv.PriceCents,
			Stock:             nv.Stock,
			LowStockThreshold: nv.LowStockThreshold,
			IsActive:          nv.IsActive,
			Options:           byAttribute(opts),
		}
		if v.Options == nil {
			v.Options = []Option{}
		}
		if v.SKU == "" {
			base := BuildSKU(ProductCode(slug), opts)
			taken, err := takenSKUs(ctx, tx, base)
			if err != nil {
				return err
			}
			v.SKU = NextFreeSKU(base, taken)
		}

		if err := insertVariant(ctx, tx, v, Signature(opts)); err != nil {
			return err
		}
		v.Label = Label(v.Options)

		if v.Stock > 0 {
			if err := inventory.RecordMovement(ctx, tx, &inventory.Movement{
				VariantID:   v.ID,
				Change:      v.Stock,
				StockBefore: 0,
				StockAfter:  v.Stock,
				Reason:      inventory.ReasonRestock,
				CreatedBy:   nv.CreatedBy,
			}); err != nil {
				return err
			}
		}
		created = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GenerateVariants creates every combination of the selected values that the
// product does not have yet. New variants start with zero stock.
func (r *Repository) GenerateVariants(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	result := &GenerateResult{Created: []*Variant{}}

	err := dbx.WithTx(ctx, r.tx, func(tx pgx.Tx) error {
		slug, err := lockProduct(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}

		valueIDs := lo.FlatMap(req.Selections, func(s Selection, _ int) []int64 { return s.ValueIDs })
		opts, err := loadOptions(ctx, tx, valueIDs)
		if err != nil {
			return err
		}

		wantAttr := map[int64]int64{}
		for _, s := range req.Selections {
			for _, id := range s.ValueIDs {
				wantAttr[id] = s.AttributeID
			}
		}
		for _, o := range opts {
			if wantAttr[o.ValueID] != o.AttributeID {
				return ErrValueMismatch
			}
		}

		groups, err := groupSelections(req.Selections, opts)
		if err != nil {
			return err
		}
		combos, err := Combinations(groups)
		if err != nil {
			return err
		}
		if len(combos) == 0 {
			return nil
		}

		existing, err := r.signatures(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}
		code := ProductCode(slug)
		taken, err := takenSKUs(ctx, tx, code)
		if err != nil {
			return err
		}

		for _, combo := range combos {
			sig := Signature(combo)
			if _, ok := existing[sig]; ok {
				result.Skipped++
				continue
			}

			v := &Variant{
				ProductID:         req.ProductID,
				SKU:               NextFreeSKU(BuildSKU(code, combo), taken),
				PriceCents:        req.PriceCents,
				LowStockThreshold: req.LowStockThreshold,
				IsActive:          req.IsActive,
				Options:           combo,
			}
			if err := insertVariant(ctx, tx, v, sig); err != nil {
				return err
			}
			v.Label = Label(combo)

			taken[v.SKU] = struct{}{}
			existing[sig] = struct{}{}
			result.Created = append(result.Created, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repository) signatures(ctx context.Context, q dbx.Querier, productID int64) (map[string]struct{}, error) {
	rows, err := q.Query(ctx, `SELECT option_signature FROM product_variants WHERE product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("variant signatures: %w", err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		out[sig] = struct{}{}
	}
	return out, rows.Err()
}

func (r *Repository) GetVariant(ctx context.Context, id int64) (*Variant, error) {
	v := &Variant{}
	if err := scanVariant(r.db.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id), v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("get variant: %w", err)
	}
	if err := r.attachOptions(ctx, []*Variant{v}); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Repository) ListVariantsByProduct(ctx context.Context, productID int64, includeInactive bool) ([]*Variant, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants
		WHERE product_id = $1 AND ($2 OR is_active = true)
		ORDER BY id`, productID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	out := []*Variant{}
	for rows.Next() {
		v := &Variant{}
		if err := scanVariant(rows, v); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachOptions(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) attachOptions(ctx context.Context, vs []*Variant) error {
	for _, v := range vs {
		v.Options = []Option{}
	}
	if len(vs) == 0 {
		return nil
	}
	byID := lo.KeyBy(vs, func(v *Variant) int64 { return v.ID })

	rows, err := r.db.Query(ctx, `
		SELECT vo.variant_id, a.id, a.name, av.id, av.value, av.code
		FROM variant_options vo
		JOIN attributes a        ON a.id = vo.attribute_id
		JOIN attribute_values av ON av.id = vo.attribute_value_id
		WHERE vo.variant_id = ANY($1)
		ORDER BY vo.variant_id, a.id`, lo.Keys(byID))
	if err != nil {
		return fmt.Errorf("variant options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			variantID int64
			o         Option
		)
		if err := rows.Scan(&variantID, &o.AttributeID, &o.AttributeName, &o.ValueID, &o.Value, &o.ValueCode); err != nil {
			return fmt.Errorf("scan variant option: %w", err)
		}
		if v, ok := byID[variantID]; ok {
			v.Options = append(v.Options, o)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, v := range vs {
		v.Label = Label(v.Options)
	}
	return nil
}

// UpdateVariant changes price, threshold, active flag and SKU. Stock only
// moves through inventory adjustments.
func (r *Repository) UpdateVariant(ctx context.Context, v *Variant) error {
	err := r.db.QueryRow(ctx, `
		UPDATE product_variants
		SET sku = $1, price_cents = $2, low_stock_threshold = $3, is_active = $4, updated_at = now()
		WHERE id = $5
		RETURNING stock, updated_at`,
		v.SKU, v.PriceCents, v.LowStockThreshold, v.IsActive, v.ID,
	).Scan(&v.Stock, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVariantNotFound
		}
		if mapped := mapVariantWriteErr(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update variant: %w", err)
	}
	return nil
}

// DeleteVariant removes the variant, its options and cart lines.
// Order items keep their snapshot with the variant reference cleared.
func (r *Repository) DeleteVariant(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete variant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVariantNotFound
	}
	return nil
}
