package tableapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/raywall/fast-data-interface/dyndb"
	"github.com/rs/zerolog"
)

// Response headers of a collection read.
const (
	HeaderTotalCount    = "x-total-count"
	HeaderExposeHeaders = "Access-Control-Expose-Headers"
)

// Request is the transport-neutral form of an incoming call.
type Request struct {
	Method       string
	ID           string
	PartitionKey string
	Query        url.Values
	Body         io.Reader
}

// Response is the outcome of a call. A nil Body means no content.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       any
}

func status(code int) *Response {
	return &Response{StatusCode: code, Header: http.Header{}}
}

// Translator maps REST calls on one table onto a TableStore.
type Translator struct {
	table            string
	store            dyndb.TableStore
	hints            FieldHints
	codec            *Codec
	gate             *AccessGate
	rowKeyAttr       string
	defaultPartition string
	scopeToPartition bool
	pageSize         int32
}

// Option configures a Translator.
type Option func(*Translator)

// WithTypeHints sets the field hints of the table.
func WithTypeHints(hints FieldHints) Option {
	return func(t *Translator) { t.hints = hints }
}

// WithAccessController sets the authorization hook.
func WithAccessController(c AccessController) Option {
	return func(t *Translator) { t.gate.controller = c }
}

// WithIDGenerator sets how row keys are generated on create.
func WithIDGenerator(gen IDGenerator) Option {
	return func(t *Translator) { t.codec.newID = gen }
}

// WithDefaultPartition is used when a request carries no partition key.
func WithDefaultPartition(pk string) Option {
	return func(t *Translator) { t.defaultPartition = pk }
}

// WithPartitionScope restricts collection reads to the request partition.
func WithPartitionScope(scoped bool) Option {
	return func(t *Translator) { t.scopeToPartition = scoped }
}

// WithDeleteFieldExposure passes the fetched field names to delete checks.
func WithDeleteFieldExposure(expose bool) Option {
	return func(t *Translator) { t.gate.exposeFieldsOnDelete = expose }
}

// WithPageSize sets the store page size used by collection reads.
func WithPageSize(n int32) Option {
	return func(t *Translator) { t.pageSize = n }
}

// New creates a translator for the logical table name backed by store.
func New(table string, store dyndb.TableStore, opts ...Option) *Translator {
	partitionAttr, rowKey := store.KeySchema()
	t := &Translator{
		table:      table,
		store:      store,
		codec:      NewCodec(nil, nil),
		gate:       NewAccessGate(table, nil),
		rowKeyAttr: rowKey,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.gate.controller == nil {
		t.gate.controller = AllowAll
	}
	if t.codec.newID == nil {
		t.codec = NewCodec(nil, nil)
	}
	t.codec.hints = t.hints
	t.codec.WithKeyAttributes(partitionAttr, rowKey)
	return t
}

// Table returns the logical table name.
func (t *Translator) Table() string {
	return t.table
}

// Handle dispatches req by method. Store failures and GET of a missing id
// are returned as errors; everything else is a Response.
func (t *Translator) Handle(ctx context.Context, req Request) (*Response, error) {
	if req.PartitionKey == "" {
		req.PartitionKey = t.defaultPartition
	}

	switch strings.ToUpper(req.Method) {
	case http.MethodPost:
		return t.create(ctx, req)
	case http.MethodPatch, http.MethodPut:
		return t.update(ctx, req)
	case http.MethodGet:
		if req.ID != "" {
			return t.getOne(ctx, req)
		}
		return t.list(ctx, req)
	case http.MethodDelete:
		return t.remove(ctx, req)
	}
	return status(http.StatusOK), nil
}

func (t *Translator) create(ctx context.Context, req Request) (*Response, error) {
	rec, err := decodeBody(req.Body)
	if err != nil {
		return status(http.StatusBadRequest), nil
	}

	id := req.ID
	if id == "" {
		id = t.codec.NewID()
	}

	d, err := t.gate.Check(ctx, AccessCreate, id, rec)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return t.denied(ctx, AccessCreate, id), nil
	}

	if err := t.store.Upsert(ctx, t.codec.ToEntity(id, req.PartitionKey, rec)); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("table", t.table).Str("id", id).Msg("record created")
	return status(http.StatusOK), nil
}

func (t *Translator) update(ctx context.Context, req Request) (*Response, error) {
	if req.ID == "" {
		return status(http.StatusBadRequest), nil
	}
	rec, err := decodeBody(req.Body)
	if err != nil {
		return status(http.StatusBadRequest), nil
	}

	d, err := t.gate.Check(ctx, AccessWrite, req.ID, rec)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return t.denied(ctx, AccessWrite, req.ID), nil
	}
	rec = d.Narrow(rec, false)

	if err := t.store.Merge(ctx, t.codec.ToEntity(req.ID, req.PartitionKey, rec)); err != nil {
		return nil, err
	}
	return status(http.StatusOK), nil
}

func (t *Translator) getOne(ctx context.Context, req Request) (*Response, error) {
	e, err := t.store.Get(ctx, req.PartitionKey, req.ID)
	if err != nil {
		return nil, err
	}
	rec := t.codec.FromEntity(*e)

	d, err := t.gate.Check(ctx, AccessRead, req.ID, rec)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return t.denied(ctx, AccessRead, req.ID), nil
	}

	resp := status(http.StatusOK)
	resp.Body = d.Narrow(rec, true)
	return resp, nil
}

func (t *Translator) list(ctx context.Context, req Request) (*Response, error) {
	resp := status(http.StatusOK)
	resp.Header.Set(HeaderExposeHeaders, HeaderTotalCount)

	qb := t.store.Query()
	if cond, ok := BuildFilter(req.Query, t.hints, t.rowKeyAttr); ok {
		qb.Filter(cond)
	}
	if t.scopeToPartition && req.PartitionKey != "" {
		qb.Partition(req.PartitionKey)
	}
	if t.pageSize > 0 {
		qb.PageSize(t.pageSize)
	}

	entities, err := qb.Exec(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]Record, len(entities))
	for i, e := range entities {
		records[i] = t.codec.FromEntity(e)
	}

	page, err := Shape(ctx, records, req.Query, t.gate)
	if errors.Is(err, ErrInvalidRange) {
		resp.StatusCode = http.StatusBadRequest
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("table", t.table).
		Int("fetched", len(entities)).
		Int("total", page.Total).
		Int("returned", len(page.Records)).
		Msg("collection read")

	resp.Header.Set(HeaderTotalCount, strconv.Itoa(page.Total))
	resp.Body = page.Records
	return resp, nil
}

func (t *Translator) remove(ctx context.Context, req Request) (*Response, error) {
	if req.ID == "" {
		return status(http.StatusBadRequest), nil
	}

	e, err := t.store.Get(ctx, req.PartitionKey, req.ID)
	if errors.Is(err, dyndb.ErrNotFound) {
		return status(http.StatusNotFound), nil
	}
	if err != nil {
		return nil, err
	}

	d, err := t.gate.Check(ctx, AccessDelete, req.ID, t.codec.FromEntity(*e))
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		return t.denied(ctx, AccessDelete, req.ID), nil
	}

	if err := t.store.Delete(ctx, req.PartitionKey, req.ID); err != nil {
		return nil, err
	}
	return status(http.StatusOK), nil
}

func (t *Translator) denied(ctx context.Context, typ AccessType, id string) *Response {
	zerolog.Ctx(ctx).Warn().
		Str("table", t.table).
		Str("access", typ.String()).
		Str("id", id).
		Msg("access denied")
	return status(http.StatusUnauthorized)
}

// decodeBody reads a JSON object keeping numbers as json.Number.
func decodeBody(body io.Reader) (Record, error) {
	if body == nil {
		return nil, ErrMalformedBody
	}
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if rec == nil {
		return nil, ErrMalformedBody
	}
	return rec, nil
}
