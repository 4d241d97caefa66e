package variants

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opt(attrID, valueID int64, value, code string) Option {
	return Option{AttributeID: attrID, ValueID: valueID, Value: value, ValueCode: code}
}

func TestProductCode(t *testing.T) {
	assert.Equal(t, "CLASSICTEE", ProductCode("classic-tee"))
	assert.Equal(t, "SUPERLONGPRO", ProductCode("super-long-product-name"))
	assert.Equal(t, "AB12", ProductCode("ab-12"))
	assert.Equal(t, "ITEM", ProductCode("--"))
}

func TestCodeFromValue(t *testing.T) {
	assert.Equal(t, "NAVYBLUE", CodeFromValue("Navy Blue"))
	assert.Equal(t, "XL", CodeFromValue("x-l"))
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRST", CodeFromValue("abcdefghijklmnopqrstuvwxyz"))
}

func TestBuildSKU_OrdersByAttribute(t *testing.T) {
	opts := []Option{opt(2, 20, "L", "l"), opt(1, 10, "Red", "RED")}
	assert.Equal(t, "CLASSICTEE-RED-L", BuildSKU("CLASSICTEE", opts))
	assert.Equal(t, "CLASSICTEE", BuildSKU("CLASSICTEE", nil))
}

func TestBuildSKU_FitsColumn(t *testing.T) {
	code := ProductCode("performance-running-jacket")
	opts := []Option{
		opt(3, 30, "Extra Extra Large Tall", "EXTRAEXTRALARGETALL"),
		opt(1, 10, "Midnight Navy Heather Blue", "MIDNIGHTNAVYHEATHERBLUE"),
		opt(2, 20, "Recycled Polyester Ripstop", "RECYCLEDPOLYESTERRIPSTOP"),
	}

	sku := BuildSKU(code, opts)
	assert.LessOrEqual(t, len(sku), MaxSKULen-skuSuffixRoom)
	assert.True(t, strings.HasPrefix(sku, "PERFORMANCER-MIDNIGHT"), sku)
	assert.Len(t, strings.Split(sku, "-"), 4)
	assert.Equal(t, sku, BuildSKU(code, []Option{opts[2], opts[0], opts[1]}))

	taken := map[string]struct{}{sku: {}}
	for n := 2; n <= 12; n++ {
		next := NextFreeSKU(sku, taken)
		assert.LessOrEqual(t, len(next), MaxSKULen)
		taken[next] = struct{}{}
	}
	assert.Len(t, taken, 12)
}

func TestNextFreeSKU_CapsLength(t *testing.T) {
	base := strings.Repeat("A", MaxSKULen)
	taken := map[string]struct{}{base: {}}

	got := NextFreeSKU(base, taken)
	assert.Len(t, got, MaxSKULen)
	assert.True(t, strings.HasSuffix(got, "-2"))
}

func TestNextFreeSKU(t *testing.T) {
	taken := map[string]struct{}{}
	assert.Equal(t, "TEE-RED", NextFreeSKU("TEE-RED", taken))

	taken["TEE-RED"] = struct{}{}
	assert.Equal(t, "TEE-RED-2", NextFreeSKU("TEE-RED", taken))

	taken["TEE-RED-2"] = struct{}{}
	assert.Equal(t, "TEE-RED-3", NextFreeSKU("TEE-RED", taken))
}

func TestSignature_IndependentOfInputOrder(t *testing.T) {
	a := []Option{opt(1, 10, "Red", "RED"), opt(2, 21, "M", "M")}
	b := []Option{opt(2, 21, "M", "M"), opt(1, 10, "Red", "RED")}
	assert.Equal(t, "1:10,2:21", Signature(a))
	assert.Equal(t, Signature(a), Signature(b))
	assert.Equal(t, "", Signature(nil))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Red / M", Label([]Option{opt(2, 21, "M", "M"), opt(1, 10, "Red", "RED")}))
}

func TestCombinations(t *testing.T) {
	colors := []Option{opt(1, 10, "Red", "RED"), opt(1, 11, "Blue", "BLUE")}
	sizes := []Option{opt(2, 20, "S", "S"), opt(2, 21, "M", "M"), opt(2, 22, "L", "L")}

	combos, err := Combinations([][]Option{colors, sizes})
	require.NoError(t, err)
	require.Len(t, combos, 6)

	labels := lo.Map(combos, func(c []Option, _ int) string { return Label(c) })
	assert.Equal(t, []string{"Red / S", "Red / M", "Red / L", "Blue / S", "Blue / M", "Blue / L"}, labels)
}

func TestCombinations_Edges(t *testing.T) {
	combos, err := Combinations(nil)
	require.NoError(t, err)
	assert.Empty(t, combos)

	_, err = Combinations([][]Option{{opt(1, 10, "Red", "RED")}, {}})
	assert.ErrorIs(t, err, ErrEmptySelection)

	big := make([]Option, 15)
	for i := range big {
		big[i] = opt(1, int64(i+1), "v", "V")
	}
	other := make([]Option, 14)
	for i := range other {
		other[i] = opt(2, int64(100+i), "w", "W")
	}
	_, err = Combinations([][]Option{big, other})
	assert.ErrorIs(t, err, ErrTooManyCombinations)

	combos, err = Combinations([][]Option{big[:10], other[:10], {opt(3, 500, "x", "X"), opt(3, 501, "y", "Y")}})
	require.NoError(t, err)
	assert.Len(t, combos, MaxCombinations)
}

func TestGroupSelections(t *testing.T) {
	values := []Option{opt(2, 21, "M", "M"), opt(1, 11, "Blue", "BLUE"), opt(2, 20, "S", "S"), opt(1, 10, "Red", "RED")}
	sel := []Selection{{AttributeID: 2, ValueIDs: []int64{20, 21}}, {AttributeID: 1, ValueIDs: []int64{10, 11}}}

	groups, err := groupSelections(sel, values)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, []int64{10, 11}, lo.Map(groups[0], func(o Option, _ int) int64 { return o.ValueID }))
	assert.Equal(t, []int64{20, 21}, lo.Map(groups[1], func(o Option, _ int) int64 { return o.ValueID }))

	_, err = groupSelections([]Selection{{AttributeID: 1}}, nil)
	assert.ErrorIs(t, err, ErrEmptySelection)
}
