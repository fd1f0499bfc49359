package esquery

import (
	"github.com/kailas-cloud/esquery/internal/db"
	"github.com/kailas-cloud/esquery/internal/db/driver"
)

// Sentinel errors re-exported from the storage and driver layers.
// Use errors.Is() to check.
var (
	ErrIndexNotFound = db.ErrIndexNotFound
	ErrNoHosts       = db.ErrNoHosts
	ErrNoBackend     = db.ErrNoBackend
	// ErrUnsupportedDialect is returned by New for a dialect the driver cannot run.
	ErrUnsupportedDialect = driver.ErrUnsupportedDialect
)

// ResponseError is returned, wrapped, when the engine answers with a non-2xx status.
type ResponseError = db.ResponseError
