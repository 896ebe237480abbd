package tableapi

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/raywall/fast-data-interface/dyndb"
)

// IDField is the synthetic record field carrying the row key.
const IDField = "id"

// Record is the JSON-like field/value view of a table row.
type Record map[string]any

// Fields returns the record field names, sorted.
func (r Record) Fields() []string {
	fields := make([]string, 0, len(r))
	for k := range r {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// IDGenerator produces row keys for records created without an id.
type IDGenerator func() string

// Codec converts between records and store entities.
type Codec struct {
	hints    FieldHints
	newID    IDGenerator
	keyAttrs [2]string
}

// NewCodec creates a codec for one table. A nil generator falls back to
// random UUIDs.
func NewCodec(hints FieldHints, newID IDGenerator) *Codec {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Codec{hints: hints, newID: newID}
}

// WithKeyAttributes names the store key attributes. Record fields with
// these names are dropped on encode, like the synthetic id.
func (c *Codec) WithKeyAttributes(partitionAttr, rowAttr string) *Codec {
	c.keyAttrs = [2]string{partitionAttr, rowAttr}
	return c
}

func (c *Codec) reserved(field string) bool {
	return field == IDField || (field != "" && (field == c.keyAttrs[0] || field == c.keyAttrs[1]))
}

// NewID returns a fresh row key.
func (c *Codec) NewID() string {
	return c.newID()
}

// ToEntity encodes rec under the given keys. An empty id gets a generated
// one. The synthetic id, key attribute fields and values of unrecognized
// kinds are dropped. Date-hinted strings that parse are stored in
// TimestampLayout so filters compare against one format.
func (c *Codec) ToEntity(id, partitionKey string, rec Record) dyndb.Entity {
	if id == "" {
		id = c.newID()
	}

	props := make(map[string]types.AttributeValue, len(rec))
	for field, raw := range rec {
		if c.reserved(field) {
			continue
		}
		if str, ok := raw.(string); ok && c.hints.Hint(field) == HintDate {
			if ts, ok := ParseTimestamp(str); ok {
				raw = ts
			}
		}
		if av, ok := Classify(raw).Attribute(); ok {
			props[field] = av
		}
	}

	return dyndb.Entity{
		PartitionKey: partitionKey,
		RowKey:       id,
		Properties:   props,
	}
}

// FromEntity decodes e into a record and injects id from the row key.
func (c *Codec) FromEntity(e dyndb.Entity) Record {
	rec := make(Record, len(e.Properties)+1)
	for field, av := range e.Properties {
		if v, ok := c.decode(field, av); ok {
			rec[field] = v
		}
	}
	rec[IDField] = e.RowKey
	return rec
}

func (c *Codec) decode(field string, av types.AttributeValue) (any, bool) {
	switch tv := av.(type) {
	case *types.AttributeValueMemberS:
		switch c.hints.Hint(field) {
		case HintListString:
			if tv.Value == "" {
				return []string{}, true
			}
			return strings.Split(tv.Value, listSeparator), true
		case HintDate:
			if t, ok := ParseTimestamp(tv.Value); ok {
				return t, true
			}
		}
		return tv.Value, true
	case *types.AttributeValueMemberN:
		if i, err := strconv.ParseInt(tv.Value, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(tv.Value, 64); err == nil {
			return f, true
		}
		return tv.Value, true
	case *types.AttributeValueMemberBOOL:
		return tv.Value, true
	case *types.AttributeValueMemberSS:
		return append([]string(nil), tv.Value...), true
	}
	return nil, false
}
