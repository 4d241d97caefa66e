package variants

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const (
	MaxCombinations = 200

	// MaxSKULen matches product_variants.sku.
	MaxSKULen = 64

	productCodeLen = 12
	valueCodeLen   = 20
	// room left on a generated base for a "-N" collision suffix
	skuSuffixRoom = 6
)

var (
	ErrTooManyCombinations = fmt.Errorf("a single generation may create at most %d variants", MaxCombinations)
	ErrEmptySelection      = errors.New("every selected attribute needs at least one value")
)

// sanitizeCode upper-cases s and keeps only A-Z and 0-9.
func sanitizeCode(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ProductCode is the SKU prefix of a product: its slug without dashes,
// upper-cased and cut to 12 characters.
func ProductCode(slug string) string {
	code := sanitizeCode(strings.ReplaceAll(slug, "-", ""))
	if len(code) > productCodeLen {
		code = code[:productCodeLen]
	}
	if code == "" {
		return "ITEM"
	}
	return code
}

// CodeFromValue derives an attribute value code such as "XL" or "NAVYBLUE".
func CodeFromValue(value string) string {
	code := sanitizeCode(value)
	if len(code) > valueCodeLen {
		code = code[:valueCodeLen]
	}
	return code
}

func byAttribute(opts []Option) []Option {
	sorted := append([]Option(nil), opts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AttributeID < sorted[j].AttributeID })
	return sorted
}

// BuildSKU joins the product code and the value codes ordered by attribute id.
// When the result would not fit the sku column with room for a NextFreeSKU
// suffix, the longest value codes are shortened first.
func BuildSKU(productCode string, opts []Option) string {
	parts := []string{productCode}
	for _, o := range byAttribute(opts) {
		c := sanitizeCode(o.ValueCode)
		if len(c) > valueCodeLen {
			c = c[:valueCodeLen]
		}
		if c != "" {
			parts = append(parts, c)
		}
	}

	limit := MaxSKULen - skuSuffixRoom
	for joinedLen(parts) > limit {
		longest := 1
		for i := 2; i < len(parts); i++ {
			if len(parts[i]) > len(parts[longest]) {
				longest = i
			}
		}
		if longest >= len(parts) || len(parts[longest]) <= 1 {
			break
		}
		parts[longest] = parts[longest][:len(parts[longest])-1]
	}

	sku := strings.Join(parts, "-")
	if len(sku) > limit {
		sku = strings.TrimRight(sku[:limit], "-")
	}
	return sku
}

func joinedLen(parts []string) int {
	n := len(parts) - 1
	for _, p := range parts {
		n += len(p)
	}
	return n
}

// NextFreeSKU returns base, or base-2, base-3, ... whichever is not taken.
// Candidates never exceed MaxSKULen.
func NextFreeSKU(base string, taken map[string]struct{}) string {
	if len(base) > MaxSKULen {
		base = base[:MaxSKULen]
	}
	if _, ok := taken[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		suffix := fmt.Sprintf("-%d", n)
		stem := base
		if len(stem)+len(suffix) > MaxSKULen {
			stem = stem[:MaxSKULen-len(suffix)]
		}
		candidate := stem + suffix
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// Signature identifies an option set independent of input order:
// "attr:value" pairs sorted by attribute id, comma separated.
func Signature(opts []Option) string {
	pairs := lo.Map(byAttribute(opts), func(o Option, _ int) string {
		return fmt.Sprintf("%d:%d", o.AttributeID, o.ValueID)
	})
	return strings.Join(pairs, ",")
}

// Label renders the option values as "Red / L".
func Label(opts []Option) string {
	return strings.Join(lo.Map(byAttribute(opts), func(o Option, _ int) string { return o.Value }), " / ")
}

// Combinations returns the cartesian product of groups in lexicographic
// order: the last group varies fastest. No groups yields no combinations.
func Combinations(groups [][]Option) ([][]Option, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	total := 1
	for _, g := range groups {
		if len(g) == 0 {
			return nil, ErrEmptySelection
		}
		total *= len(g)
		if total > MaxCombinations {
			return nil, ErrTooManyCombinations
		}
	}

	out := make([][]Option, 0, total)
	idx := make([]int, len(groups))
	for {
		combo := make([]Option, len(groups))
		for i, g := range groups {
			combo[i] = g[idx[i]]
		}
		out = append(out, combo)

		// odometer increment from the last position
		pos := len(groups) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(groups[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return out, nil
		}
	}
}

// groupSelections orders values by attribute id then value id and groups
// them per attribute. Every selection must name at least one value.
func groupSelections(selections []Selection, values []Option) ([][]Option, error) {
	for _, s := range selections {
		if len(s.ValueIDs) == 0 {
			return nil, ErrEmptySelection
		}
	}

	sorted := append([]Option(nil), values...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].AttributeID != sorted[j].AttributeID {
			return sorted[i].AttributeID < sorted[j].AttributeID
		}
		return sorted[i].ValueID < sorted[j].ValueID
	})

	var groups [][]Option
	for i, v := range sorted {
		if i == 0 || sorted[i-1].AttributeID != v.AttributeID {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], v)
	}
	return groups, nil
}
