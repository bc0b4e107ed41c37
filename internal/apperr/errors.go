// Package apperr defines the sentinel errors that abort a migration run.
//
// Every error here marks a schema or data-integrity violation in the snapshot
// export: the pipeline must stop rather than guess, because the violation
// means the exporter's contract has drifted in a way we cannot safely
// interpret. Expected data-quality issues (empty titles, missing bodies) are
// not errors at all; they are recoverable skips recorded with a reason code
// in the run context.
package apperr

import "errors"

var (
	// ErrEnvelope marks a snapshot line whose top-level envelope does not
	// contain exactly one item.
	ErrEnvelope = errors.New("malformed item envelope")

	// ErrUnknownTypeTag marks a tagged value with a type discriminator
	// outside the DynamoDB export set.
	ErrUnknownTypeTag = errors.New("unknown attribute type tag")

	// ErrUnknownField marks a field key outside the record's allow-list.
	ErrUnknownField = errors.New("unknown field key")

	// ErrUnknownKind marks a record type outside the closed kind enum.
	ErrUnknownKind = errors.New("unknown record kind")

	// ErrAuthorShape marks an author payload failing the shape check
	// (empty display name, or more than one field beyond it).
	ErrAuthorShape = errors.New("malformed author")

	// ErrFutureDeletion marks a deletedAt timestamp in the future.
	ErrFutureDeletion = errors.New("future-dated deletion")

	// ErrDuplicateUUID marks two records in one route group sharing a uuid.
	ErrDuplicateUUID = errors.New("duplicate uuid in route group")

	// ErrDateTie marks two records in one route group sharing a date, an
	// unresolvable latest-wins tie.
	ErrDateTie = errors.New("date tie in route group")
)
