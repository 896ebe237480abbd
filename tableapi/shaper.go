package tableapi

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Control keys of a collection read.
const (
	ParamSort  = "_sort"
	ParamOrder = "_order"
	ParamStart = "_start"
	ParamEnd   = "_end"
)

// Narrower authorizes and narrows records of a collection read.
type Narrower interface {
	NarrowRead(ctx context.Context, rec Record) (Record, bool, error)
}

// Page is a shaped collection: the visible slice and the count of matching
// records before sorting and paging.
type Page struct {
	Records []Record
	Total   int
}

// Shape applies, in order: _like filters, access narrowing, total count,
// sorting and paging.
func Shape(ctx context.Context, records []Record, params url.Values, narrower Narrower) (Page, error) {
	filtered, err := likeFilter(records, params)
	if err != nil {
		return Page{}, err
	}

	visible := make([]Record, 0, len(filtered))
	for _, rec := range filtered {
		narrowed, ok, err := narrower.NarrowRead(ctx, rec)
		if err != nil {
			return Page{}, err
		}
		if ok {
			visible = append(visible, narrowed)
		}
	}

	total := len(visible)

	if field := params.Get(ParamSort); field != "" {
		sortRecords(visible, field, strings.EqualFold(params.Get(ParamOrder), "desc"))
	}

	paged, err := slicePage(visible, params)
	if err != nil {
		return Page{}, err
	}
	return Page{Records: paged, Total: total}, nil
}

func likeFilter(records []Record, params url.Values) ([]Record, error) {
	type like struct{ field, needle string }
	var likes []like
	for key, values := range params {
		if !strings.HasSuffix(key, suffixLike) || len(values) == 0 {
			continue
		}
		likes = append(likes, like{
			field:  strings.TrimSuffix(key, suffixLike),
			needle: strings.ToLower(values[0]),
		})
	}
	if len(likes) == 0 {
		return records, nil
	}
	sort.Slice(likes, func(i, j int) bool { return likes[i].field < likes[j].field })

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		keep := true
		for _, l := range likes {
			v, ok := rec[l.field]
			if !ok {
				return nil, &FieldError{Field: l.field, RecordID: rec[IDField]}
			}
			if !strings.Contains(strings.ToLower(displayString(v)), l.needle) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out, nil
}

// displayString is the string form a _like filter matches against.
func displayString(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case []string:
		return strings.Join(tv, listSeparator)
	case time.Time:
		return FormatTimestamp(tv)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

// sortRecords is a stable sort on field. Records without the field go last
// in both directions.
func sortRecords(records []Record, field string, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a, okA := records[i][field]
		b, okB := records[j][field]
		okA = okA && a != nil
		okB = okB && b != nil
		switch {
		case !okA:
			return false
		case !okB:
			return true
		}
		c := compareField(a, b)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// rank orders values of different kinds.
func rank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case int, int8, int16, int32, int64, uint8, uint16, uint32, float32, float64:
		return 1
	case time.Time:
		return 2
	case string:
		return 3
	case []string:
		return 4
	}
	return 5
}

func compareField(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}
	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case time.Time:
		return av.Compare(b.(time.Time))
	case string:
		return strings.Compare(av, b.(string))
	case []string:
		return strings.Compare(strings.Join(av, listSeparator), strings.Join(b.([]string), listSeparator))
	}
	if ra == 1 {
		return compareNumbers(a, b)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func compareNumbers(a, b any) int {
	ai, aInt := asInt(a)
	bi, bInt := asInt(b)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	af, bf := asFloat(a), asFloat(b)
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	return 0
}

func asInt(v any) (int64, bool) {
	switch tv := v.(type) {
	case int:
		return int64(tv), true
	case int8:
		return int64(tv), true
	case int16:
		return int64(tv), true
	case int32:
		return int64(tv), true
	case int64:
		return tv, true
	case uint8:
		return int64(tv), true
	case uint16:
		return int64(tv), true
	case uint32:
		return int64(tv), true
	}
	return 0, false
}

func asFloat(v any) float64 {
	if i, ok := asInt(v); ok {
		return float64(i)
	}
	switch tv := v.(type) {
	case float32:
		return float64(tv)
	case float64:
		return tv
	}
	return 0
}

// slicePage applies _start/_end. A _start without a valid _end leaves the
// collection untouched. Unparseable or negative values count as absent.
func slicePage(records []Record, params url.Values) ([]Record, error) {
	start, ok := nonNegative(params.Get(ParamStart))
	if !ok {
		return records, nil
	}
	if start > len(records) {
		return []Record{}, nil
	}

	end, ok := nonNegative(params.Get(ParamEnd))
	if !ok {
		return records, nil
	}
	if start > end {
		return nil, ErrInvalidRange
	}
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], nil
}

func nonNegative(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
