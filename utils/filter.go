package utils

import (
	"sort"
	"strconv"
	"strings"
)

// MaxPriceSentinel is the upper bound at or above which maxPrice is ignored.
const MaxPriceSentinel = 999999999

const likeEscape = "!"

// FilterSpec maps the recognised filter keys of one resource onto columns.
// Keys that have no column configured are ignored.
type FilterSpec struct {
	SearchColumns  []string
	CategoryColumn string
	PriceColumn    string
	StockColumn    string
	// Equals maps extra exact-match keys (e.g. "status") onto columns.
	Equals map[string]string
}

// Predicate is a parameterised WHERE fragment. The same value is used for
// the count query and the data query so both always agree.
type Predicate struct {
	Clause string
	Args   []interface{}
}

func (p Predicate) Empty() bool { return p.Clause == "" }

// BuildFilters turns request parameters into a Predicate. User input is
// only ever bound as an argument.
func BuildFilters(spec FilterSpec, params map[string]string) Predicate {
	var (
		parts []string
		args  []interface{}
	)
	get := func(key string) string { return strings.TrimSpace(params[key]) }

	if search := get("search"); search != "" && len(spec.SearchColumns) > 0 {
		pattern := "%" + EscapeLike(strings.ToLower(search)) + "%"
		ors := make([]string, 0, len(spec.SearchColumns))
		for _, col := range spec.SearchColumns {
			ors = append(ors, "LOWER("+col+") LIKE ? ESCAPE '"+likeEscape+"'")
			args = append(args, pattern)
		}
		parts = append(parts, "("+strings.Join(ors, " OR ")+")")
	}

	if spec.CategoryColumn != "" {
		if id, err := strconv.ParseUint(get("category"), 10, 64); err == nil && id > 0 {
			parts = append(parts, spec.CategoryColumn+" = ?")
			args = append(args, id)
		}
	}

	if spec.PriceColumn != "" {
		if min, err := strconv.ParseFloat(get("minPrice"), 64); err == nil && min > 0 {
			parts = append(parts, spec.PriceColumn+" >= ?")
			args = append(args, min)
		}
		if max, err := strconv.ParseFloat(get("maxPrice"), 64); err == nil && max > 0 && max < MaxPriceSentinel {
			parts = append(parts, spec.PriceColumn+" <= ?")
			args = append(args, max)
		}
	}

	if spec.StockColumn != "" {
		if available, err := strconv.ParseBool(get("available")); err == nil {
			if available {
				parts = append(parts, spec.StockColumn+" > 0")
			} else {
				parts = append(parts, spec.StockColumn+" = 0")
			}
		}
	}

	for _, key := range sortedKeys(spec.Equals) {
		if v := get(key); v != "" {
			parts = append(parts, spec.Equals[key]+" = ?")
			args = append(args, v)
		}
	}

	return Predicate{Clause: strings.Join(parts, " AND "), Args: args}
}

// EscapeLike neutralises LIKE wildcards so the input matches literally
// when used with ESCAPE '!'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

// QueryParams flattens URL query values to their first value.
func QueryParams(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
