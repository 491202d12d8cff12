package types

import "errors"

// Sentinel errors for reportrun operations. The engine throws only for
// structural/configuration problems; malformed per-row data degrades to safe
// defaults instead of erroring.
var (
	// ErrNoDatasets indicates a report has zero permitted datasets.
	// A permission/config failure, not a data failure.
	ErrNoDatasets = errors.New("no permitted datasets for report")

	// ErrViewNotFound indicates a report definition declares no views, so
	// there is nothing to fall back to.
	ErrViewNotFound = errors.New("report has no views")

	// ErrReportNotFound indicates a report id could not be resolved.
	ErrReportNotFound = errors.New("report not found")

	// ErrDatasetNotFound indicates a dataset id could not be resolved.
	ErrDatasetNotFound = errors.New("dataset not found")
)
