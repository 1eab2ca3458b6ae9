package importers

import (
	"errors"

	"github.com/mrlokans/refbase/internal/formats"
)

// Fatal import errors. Record-scoped problems travel as formats.Warning
// values instead and never abort the batch.
var (
	// ErrUnrecognizedFormat means no parser matched; no transaction was
	// opened.
	ErrUnrecognizedFormat = formats.ErrUnrecognizedFormat

	// ErrTransactionFailure means the write transaction rolled back; no
	// entities are visible and no notification was emitted.
	ErrTransactionFailure = errors.New("import transaction failed")
)
