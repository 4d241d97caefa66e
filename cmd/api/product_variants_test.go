package main

import (
	"net/http"
	"testing"

	"storefront/internal/domain/variants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatePath = "/v1/store/admin/products/3/variants/generate"

func TestGenerateVariantsHandler(t *testing.T) {
	t.Run("passes selections through", func(t *testing.T) {
		env := newTestApp(t)
		body := map[string]any{
			"selections":  []map[string]any{{"attribute_id": 1, "value_ids": []int64{10, 11}}},
			"price_cents": 1500,
		}

		rr := env.do(t, http.MethodPost, generatePath, body, env.token(t, adminID))
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		assert.EqualValues(t, 3, env.variants.genReq.ProductID)
		assert.Equal(t, []int64{10, 11}, env.variants.genReq.Selections[0].ValueIDs)
		assert.Equal(t, 5, env.variants.genReq.LowStockThreshold)
		assert.True(t, env.variants.genReq.IsActive)
	})

	t.Run("attribute without values", func(t *testing.T) {
		env := newTestApp(t)
		body := map[string]any{
			"selections": []map[string]any{{"attribute_id": 1, "value_ids": []int64{}}},
		}

		rr := env.do(t, http.MethodPost, generatePath, body, env.token(t, adminID))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, env.variants.genReq.ProductID)
	})

	t.Run("too many combinations", func(t *testing.T) {
		env := newTestApp(t)
		env.variants.genErr = variants.ErrTooManyCombinations
		body := map[string]any{
			"selections": []map[string]any{
				{"attribute_id": 1, "value_ids": []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}},
				{"attribute_id": 2, "value_ids": []int64{21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35}},
			},
		}

		rr := env.do(t, http.MethodPost, generatePath, body, env.token(t, adminID))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, variants.ErrTooManyCombinations.Error(), decodeError(t, rr)["message"])
	})

	t.Run("empty selection from the store", func(t *testing.T) {
		env := newTestApp(t)
		env.variants.genErr = variants.ErrEmptySelection
		body := map[string]any{
			"selections": []map[string]any{{"attribute_id": 1, "value_ids": []int64{10}}},
		}

		rr := env.do(t, http.MethodPost, generatePath, body, env.token(t, adminID))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("customers are forbidden", func(t *testing.T) {
		env := newTestApp(t)
		body := map[string]any{
			"selections": []map[string]any{{"attribute_id": 1, "value_ids": []int64{10}}},
		}

		rr := env.do(t, http.MethodPost, generatePath, body, env.token(t, customerID))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}
