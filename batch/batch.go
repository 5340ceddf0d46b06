// Package batch implements the transactional multi-operation batch
// builder and response decoder for a document database: a group of
// create/upsert/replace/read/delete/patch operations against a single
// partition key, executed as one atomic unit.
package batch

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/meridiandb/meridian-go/core"
	"github.com/meridiandb/meridian-go/partitionkey"
)

// BatchOperationOptions carries ETag-based optimistic concurrency
// conditions shared by every operation kind.
type BatchOperationOptions struct {
	// IfMatch performs the operation only if the item's current ETag
	// matches this value.
	IfMatch string
	// IfNoneMatch performs the operation only if the item's current ETag
	// does not match this value. "*" means "only if the item doesn't
	// exist".
	IfNoneMatch string
}

// BatchPatchOperationOptions extends BatchOperationOptions with a
// SQL-like filter predicate that must hold for the patch to apply.
type BatchPatchOperationOptions struct {
	IfMatch         string
	IfNoneMatch     string
	FilterPredicate string
}

// PatchOperation is a single JSON Patch-style mutation within a
// PatchDocument: add, remove, replace, set, incr, or move, depending on
// Op.
type PatchOperation struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

// PatchDocument is the ordered list of patch operations applied to a
// single item by a Patch operation.
type PatchDocument struct {
	Operations []PatchOperation `json:"operations"`
}

// Operation is a single entry in a TransactionalBatch's wire
// representation. The "operationType" discriminator and the
// skip-if-empty fields mirror the transactional batch REST contract
// exactly; field names are fixed by that contract, not chosen for Go
// convention.
type Operation struct {
	OperationType   string          `json:"operationType"`
	ID              string          `json:"id,omitempty"`
	ResourceBody    json.RawMessage `json:"resourceBody,omitempty"`
	IfMatch         string          `json:"ifMatch,omitempty"`
	IfNoneMatch     string          `json:"ifNoneMatch,omitempty"`
	FilterPredicate string          `json:"filterPredicate,omitempty"`
}

// TransactionalBatch accumulates operations that all target the same
// partition key, to be submitted together as one atomic request.
// CorrelationID is generated per batch so the operations can be
// correlated across logs and telemetry spans even though the wire
// response carries no request id of its own.
type TransactionalBatch struct {
	partitionKey  []partitionkey.Value
	operations    []Operation
	CorrelationID string
}

// New creates an empty batch for partitionKey.
func New(partitionKey ...partitionkey.Value) *TransactionalBatch {
	return &TransactionalBatch{
		partitionKey:  partitionKey,
		CorrelationID: uuid.New().String(),
	}
}

// PartitionKey returns the partition key every operation in this batch
// targets.
func (b *TransactionalBatch) PartitionKey() []partitionkey.Value {
	return b.partitionKey
}

// Operations returns the operations accumulated so far, in the order
// they will execute.
func (b *TransactionalBatch) Operations() []Operation {
	return b.operations
}

// CorrelationHeader returns the header name/value pair the caller should
// attach to the batch request so the response can be correlated with
// this batch in logs and traces.
func (b *TransactionalBatch) CorrelationHeader() (string, string) {
	return "x-ms-cosmos-correlation-id", b.CorrelationID
}

// CreateItem adds a create operation for item.
func (b *TransactionalBatch) CreateItem(item interface{}, opts *BatchOperationOptions) (*TransactionalBatch, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return nil, core.WrapError("batch.CreateItem", core.KindDataConversion, err)
	}
	op := Operation{OperationType: "Create", ResourceBody: body}
	applyOptions(&op, opts)
	b.operations = append(b.operations, op)
	return b, nil
}

// UpsertItem adds an upsert (create-or-replace) operation for item.
func (b *TransactionalBatch) UpsertItem(item interface{}, opts *BatchOperationOptions) (*TransactionalBatch, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return nil, core.WrapError("batch.UpsertItem", core.KindDataConversion, err)
	}
	op := Operation{OperationType: "Upsert", ResourceBody: body}
	applyOptions(&op, opts)
	b.operations = append(b.operations, op)
	return b, nil
}

// ReplaceItem adds a replace operation for the item with the given id.
func (b *TransactionalBatch) ReplaceItem(itemID string, item interface{}, opts *BatchOperationOptions) (*TransactionalBatch, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return nil, core.WrapError("batch.ReplaceItem", core.KindDataConversion, err)
	}
	op := Operation{OperationType: "Replace", ID: itemID, ResourceBody: body}
	applyOptions(&op, opts)
	b.operations = append(b.operations, op)
	return b, nil
}

// ReadItem adds a read operation for the item with the given id.
func (b *TransactionalBatch) ReadItem(itemID string, opts *BatchOperationOptions) *TransactionalBatch {
	op := Operation{OperationType: "Read", ID: itemID}
	applyOptions(&op, opts)
	b.operations = append(b.operations, op)
	return b
}

// DeleteItem adds a delete operation for the item with the given id.
func (b *TransactionalBatch) DeleteItem(itemID string, opts *BatchOperationOptions) *TransactionalBatch {
	op := Operation{OperationType: "Delete", ID: itemID}
	applyOptions(&op, opts)
	b.operations = append(b.operations, op)
	return b
}

// PatchItem adds a patch operation for the item with the given id.
func (b *TransactionalBatch) PatchItem(itemID string, patch PatchDocument, opts *BatchPatchOperationOptions) (*TransactionalBatch, error) {
	body, err := json.Marshal(patch)
	if err != nil {
		return nil, core.WrapError("batch.PatchItem", core.KindDataConversion, err)
	}
	op := Operation{OperationType: "Patch", ID: itemID, ResourceBody: body}
	if opts != nil {
		op.IfMatch = opts.IfMatch
		op.IfNoneMatch = opts.IfNoneMatch
		op.FilterPredicate = opts.FilterPredicate
	}
	b.operations = append(b.operations, op)
	return b, nil
}

func applyOptions(op *Operation, opts *BatchOperationOptions) {
	if opts == nil {
		return
	}
	op.IfMatch = opts.IfMatch
	op.IfNoneMatch = opts.IfNoneMatch
}
