package types

import (
	"time"

	"github.com/google/uuid"
)

// ReportID identifies a saved report definition.
type ReportID string

// DatasetID identifies a dataset registered in the store.
type DatasetID string

// RunID identifies a single engine run. Minted IDs are UUIDv7, so the
// creation time can be recovered with RunIDTime.
type RunID string

// NewReportID mints a UUIDv7 report identifier.
func NewReportID() ReportID {
	return ReportID(uuid.Must(uuid.NewV7()).String())
}

// NewDatasetID mints a UUIDv7 dataset identifier.
func NewDatasetID() DatasetID {
	return DatasetID(uuid.Must(uuid.NewV7()).String())
}

// NewRunID mints a UUIDv7 run identifier.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()).String())
}

// RunIDTime extracts the timestamp embedded in a UUIDv7 run ID. Returns the
// zero time for IDs that are not valid UUIDs.
func RunIDTime(id RunID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
