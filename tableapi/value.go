package tableapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TimestampLayout is the fixed-width UTC layout used to persist timestamps
// as strings, so that lexical and chronological order agree.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// listSeparator joins list-of-string values into a single stored string.
const listSeparator = ","

// Kind enumerates the field value shapes the codec understands.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindString
	KindBool
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindTimestamp
	KindListString
)

var kindNames = [...]string{"unrecognized", "string", "bool", "int", "long", "float", "double", "timestamp", "list_string"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unrecognized"
}

// Value is a tagged union over the record field kinds. Only the member
// selected by Kind is meaningful.
type Value struct {
	Kind  Kind
	Str   string
	Bool  bool
	Int   int64
	Float float64
	Time  time.Time
	List  []string
}

// Classify inspects a runtime value and returns its tagged form.
func Classify(v any) Value {
	switch tv := v.(type) {
	case string:
		return Value{Kind: KindString, Str: tv}
	case bool:
		return Value{Kind: KindBool, Bool: tv}
	case int:
		return Value{Kind: KindInt, Int: int64(tv)}
	case int8:
		return Value{Kind: KindInt, Int: int64(tv)}
	case int16:
		return Value{Kind: KindInt, Int: int64(tv)}
	case int32:
		return Value{Kind: KindInt, Int: int64(tv)}
	case uint8:
		return Value{Kind: KindInt, Int: int64(tv)}
	case uint16:
		return Value{Kind: KindInt, Int: int64(tv)}
	case uint32:
		return Value{Kind: KindLong, Int: int64(tv)}
	case int64:
		return Value{Kind: KindLong, Int: tv}
	case float32:
		return Value{Kind: KindFloat, Float: float64(tv)}
	case float64:
		return Value{Kind: KindDouble, Float: tv}
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return Value{Kind: KindLong, Int: i}
		}
		if f, err := tv.Float64(); err == nil {
			return Value{Kind: KindDouble, Float: f}
		}
	case time.Time:
		return Value{Kind: KindTimestamp, Time: tv}
	case *time.Time:
		if tv != nil {
			return Value{Kind: KindTimestamp, Time: *tv}
		}
	case []string:
		return Value{Kind: KindListString, List: tv}
	case []any:
		list := make([]string, 0, len(tv))
		for _, e := range tv {
			s, ok := scalarString(e)
			if !ok {
				return Value{Kind: KindUnrecognized}
			}
			list = append(list, s)
		}
		return Value{Kind: KindListString, List: list}
	}
	return Value{Kind: KindUnrecognized}
}

// scalarString renders an array element the way it is joined into a list.
func scalarString(v any) (string, bool) {
	switch tv := v.(type) {
	case string:
		return tv, true
	case json.Number:
		return tv.String(), true
	case bool:
		return strconv.FormatBool(tv), true
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), true
	case int, int64, int32:
		return fmt.Sprint(tv), true
	}
	return "", false
}

// Attribute encodes the value as a DynamoDB attribute. The second return is
// false when the value cannot be stored and must be dropped.
func (v Value) Attribute() (types.AttributeValue, bool) {
	switch v.Kind {
	case KindString:
		return &types.AttributeValueMemberS{Value: v.Str}, true
	case KindBool:
		return &types.AttributeValueMemberBOOL{Value: v.Bool}, true
	case KindInt, KindLong:
		return &types.AttributeValueMemberN{Value: strconv.FormatInt(v.Int, 10)}, true
	case KindFloat, KindDouble:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return nil, false
		}
		bits := 64
		if v.Kind == KindFloat {
			bits = 32
		}
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v.Float, 'g', -1, bits)}, true
	case KindTimestamp:
		return &types.AttributeValueMemberS{Value: FormatTimestamp(v.Time)}, true
	case KindListString:
		return &types.AttributeValueMemberS{Value: strings.Join(v.List, listSeparator)}, true
	case KindUnrecognized:
		return nil, false
	}
	return nil, false
}

// FormatTimestamp renders t in TimestampLayout, normalized to UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the common ISO-8601 shapes sent by admin frontends.
// Values without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
