package tableapi

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// Query key suffixes. A field whose real name ends in one of these cannot be
// filtered by plain equality.
const (
	suffixNotEqual = "_ne"
	suffixGTE      = "_gte"
	suffixLTE      = "_lte"
	suffixLike     = "_like"
	controlPrefix  = "_"
)

type comparator int

const (
	cmpEqual comparator = iota
	cmpNotEqual
	cmpGTE
	cmpLTE
)

// parseKey splits a query key into field and comparator. ok is false for
// control keys and post-store keys.
func parseKey(key string) (field string, cmp comparator, ok bool) {
	switch {
	case strings.HasSuffix(key, suffixLike):
		return "", 0, false
	case strings.HasPrefix(key, controlPrefix):
		return "", 0, false
	case strings.HasSuffix(key, suffixNotEqual):
		return strings.TrimSuffix(key, suffixNotEqual), cmpNotEqual, true
	case strings.HasSuffix(key, suffixGTE):
		return strings.TrimSuffix(key, suffixGTE), cmpGTE, true
	case strings.HasSuffix(key, suffixLTE):
		return strings.TrimSuffix(key, suffixLTE), cmpLTE, true
	}
	return key, cmpEqual, true
}

// BuildFilter derives a store filter from query parameters. Keys are visited
// in sorted order so the rendered expression is stable. The plain id key
// matches any of its values against the row key attribute; every other key
// uses its first value. ok is false when no clause was produced.
func BuildFilter(params url.Values, hints FieldHints, rowKeyAttr string) (expression.ConditionBuilder, bool) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var clauses []expression.ConditionBuilder
	for _, key := range keys {
		values := params[key]
		if len(values) == 0 {
			continue
		}
		field, cmp, ok := parseKey(key)
		if !ok || field == "" {
			continue
		}

		if field == IDField {
			name := expression.NameNoDotSplit(rowKeyAttr)
			if cmp == cmpEqual {
				clauses = append(clauses, anyOf(name, values))
				continue
			}
			clauses = append(clauses, compare(name, cmp, expression.Value(values[0])))
			continue
		}

		name := expression.NameNoDotSplit(field)
		clauses = append(clauses, compare(name, cmp, expression.Value(literal(hints.Hint(field), values[0]))))
	}

	switch len(clauses) {
	case 0:
		return expression.ConditionBuilder{}, false
	case 1:
		return clauses[0], true
	}
	return expression.And(clauses[0], clauses[1], clauses[2:]...), true
}

func anyOf(name expression.NameBuilder, values []string) expression.ConditionBuilder {
	conds := make([]expression.ConditionBuilder, len(values))
	for i, v := range values {
		conds[i] = expression.Equal(name, expression.Value(v))
	}
	if len(conds) == 1 {
		return conds[0]
	}
	return expression.Or(conds[0], conds[1], conds[2:]...)
}

func compare(name expression.NameBuilder, cmp comparator, value expression.ValueBuilder) expression.ConditionBuilder {
	switch cmp {
	case cmpNotEqual:
		return expression.NotEqual(name, value)
	case cmpGTE:
		return expression.GreaterThanEqual(name, value)
	case cmpLTE:
		return expression.LessThanEqual(name, value)
	}
	return expression.Equal(name, value)
}

// literal types a query value according to the field hint. Values that do
// not parse under their hint stay strings.
func literal(hint TypeHint, raw string) any {
	switch hint {
	case HintBoolean:
		switch {
		case strings.EqualFold(raw, "true"):
			return true
		case strings.EqualFold(raw, "false"):
			return false
		}
	case HintDate:
		if t, ok := ParseTimestamp(raw); ok {
			return FormatTimestamp(t)
		}
	case HintInteger:
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
	}
	return raw
}
