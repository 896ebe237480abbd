package tableapi

import (
	"context"
	"fmt"
)

// AccessType is the operation being authorized.
type AccessType int

const (
	AccessRead AccessType = iota
	AccessWrite
	AccessDelete
	AccessCreate
)

func (a AccessType) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessDelete:
		return "delete"
	case AccessCreate:
		return "create"
	}
	return fmt.Sprintf("access(%d)", int(a))
}

// AccessRequest describes one authorization question.
//
// Fields lists the record fields involved: the input fields for writes and
// the stored fields for reads. Record carries their values, so policies may
// depend on field contents. On delete both are empty unless the gate was
// built with field exposure.
type AccessRequest struct {
	Table    string
	Type     AccessType
	RecordID string
	Fields   []string
	Record   Record
}

// AccessDecision is the outcome of an access check.
type AccessDecision struct {
	Allowed          bool
	AllFieldsAllowed bool
	AllowedFields    []string
}

// FullAccess allows the operation on every field.
func FullAccess() AccessDecision {
	return AccessDecision{Allowed: true, AllFieldsAllowed: true}
}

// Denied blocks the operation.
func Denied() AccessDecision {
	return AccessDecision{}
}

// PartialAccess allows the operation restricted to fields.
func PartialAccess(fields ...string) AccessDecision {
	return AccessDecision{Allowed: true, AllowedFields: fields}
}

// AccessController is the external authorization hook.
type AccessController interface {
	CheckAccess(ctx context.Context, req AccessRequest) (AccessDecision, error)
}

// AccessControllerFunc adapts a function to AccessController.
type AccessControllerFunc func(ctx context.Context, req AccessRequest) (AccessDecision, error)

func (f AccessControllerFunc) CheckAccess(ctx context.Context, req AccessRequest) (AccessDecision, error) {
	return f(ctx, req)
}

type allowAll struct{}

func (allowAll) CheckAccess(context.Context, AccessRequest) (AccessDecision, error) {
	return FullAccess(), nil
}

// AllowAll permits every operation. It is used when no controller is set.
var AllowAll AccessController = allowAll{}

// Narrow keeps only the allowed fields of rec. keepID retains the synthetic
// id field even when it is not listed.
func (d AccessDecision) Narrow(rec Record, keepID bool) Record {
	if d.AllFieldsAllowed {
		return rec
	}
	out := make(Record, len(d.AllowedFields)+1)
	for _, f := range d.AllowedFields {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	if keepID {
		if v, ok := rec[IDField]; ok {
			out[IDField] = v
		}
	}
	return out
}

// AccessGate runs the access checks of one table.
type AccessGate struct {
	table                string
	controller           AccessController
	exposeFieldsOnDelete bool
}

// NewAccessGate binds a controller to a table. A nil controller allows
// everything.
func NewAccessGate(table string, controller AccessController) *AccessGate {
	if controller == nil {
		controller = AllowAll
	}
	return &AccessGate{table: table, controller: controller}
}

// Check asks the controller about typ on the record id. rec is the input
// (writes) or the fetched record (reads and deletes).
func (g *AccessGate) Check(ctx context.Context, typ AccessType, id string, rec Record) (AccessDecision, error) {
	req := AccessRequest{
		Table:    g.table,
		Type:     typ,
		RecordID: id,
	}
	if typ != AccessDelete || g.exposeFieldsOnDelete {
		req.Fields = rec.Fields()
		req.Record = rec
	}

	d, err := g.controller.CheckAccess(ctx, req)
	if err != nil {
		return AccessDecision{}, fmt.Errorf("tableapi: access check failed: %w", err)
	}
	return d, nil
}

// NarrowRead authorizes a record of a collection read. ok is false when the
// record must be dropped.
func (g *AccessGate) NarrowRead(ctx context.Context, rec Record) (Record, bool, error) {
	id, _ := rec[IDField].(string)
	d, err := g.Check(ctx, AccessRead, id, rec)
	if err != nil {
		return nil, false, err
	}
	if !d.Allowed {
		return nil, false, nil
	}
	return d.Narrow(rec, true), true, nil
}
