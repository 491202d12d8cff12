// Package store persists datasets, materialized rows, grants, and report
// definitions, and serves as the engine's row loader.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tessera-labs/reportrun/internal/types"
)

/*
 * Storage layout:
 *
 *   datasets       - registry metadata incl. fiscal_year_start_month
 *   dataset_rows   - one JSON document per materialized row, ordered by seq
 *   dataset_grants - (dataset_id, principal) row-level access grants
 *   reports        - report definitions serialized as one JSON document
 *
 * Rows and definitions travel as JSON documents rather than a relational
 * decomposition: the engine consumes whole records, report schemas vary per
 * dataset, and the store never queries inside a document.
 *
 * Permission model: LoadRows silently skips ungranted datasets (a principal
 * sees only what it is granted) as long as at least one requested dataset is
 * granted. Zero granted datasets fails the load with ErrNoDatasets, and a
 * dataset id that does not exist at all is a configuration error and fails
 * the load with ErrDatasetNotFound.
 */

// Queries is the named-query surface the store needs, implemented by
// *db.Queries.
type Queries interface {
	Get(name string, dest interface{}, args ...interface{}) error
	Select(name string, dest interface{}, args ...interface{}) error
	Exec(name string, args ...interface{}) (sql.Result, error)
}

// Store persists report definitions and dataset rows.
type Store struct {
	q   Queries
	now func() time.Time
}

// New creates a store over the given query set.
func New(q Queries) *Store {
	return &Store{q: q, now: time.Now}
}

// Dataset is the registry record for one materialized dataset.
type Dataset struct {
	ID                   types.DatasetID `db:"dataset_id"`
	Name                 string          `db:"name"`
	FiscalYearStartMonth int             `db:"fiscal_year_start_month"`
}

// LoadRows returns the concatenated rows of every granted dataset, in
// dataset order then insertion order. A principal granted none of the
// requested datasets has no permitted data at all, which is a permission
// failure, not an empty result: the load fails with ErrNoDatasets.
// Satisfies engine.RowLoader.
func (s *Store) LoadRows(ctx context.Context, principal string, datasetIDs []types.DatasetID, fiscalStartMonth int) ([]types.Record, error) {
	_ = fiscalStartMonth // carried on the definition; the loader does not interpret it

	rows := make([]types.Record, 0)
	granted := 0
	for _, id := range datasetIDs {
		var ds Dataset
		if err := s.q.Get("get-dataset", &ds, string(id)); err != nil {
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("dataset %s: %w", id, types.ErrDatasetNotFound)
			}
			return nil, fmt.Errorf("get dataset %s: %w", id, err)
		}

		ok, err := s.hasGrant(id, principal)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		granted++

		var docs []string
		if err := s.q.Select("list-dataset-rows", &docs, string(id)); err != nil {
			return nil, fmt.Errorf("list rows for dataset %s: %w", id, err)
		}
		for _, doc := range docs {
			var rec types.Record
			if err := json.Unmarshal([]byte(doc), &rec); err != nil {
				// Malformed stored documents degrade to a skip, not a failed run.
				continue
			}
			rows = append(rows, rec)
		}
	}
	if len(datasetIDs) > 0 && granted == 0 {
		return nil, fmt.Errorf("principal %s has no grant on any requested dataset: %w", principal, types.ErrNoDatasets)
	}
	return rows, nil
}

func (s *Store) hasGrant(id types.DatasetID, principal string) (bool, error) {
	var result struct {
		N int `db:"n"`
	}
	if err := s.q.Get("count-grant", &result, string(id), principal); err != nil {
		return false, fmt.Errorf("check grant for dataset %s: %w", id, err)
	}
	return result.N > 0, nil
}

// CreateDataset registers a dataset and grants the creating principal.
// An empty ID gets a freshly minted one, which is returned either way.
func (s *Store) CreateDataset(ds Dataset, principal string) (types.DatasetID, error) {
	if ds.ID == "" {
		ds.ID = types.NewDatasetID()
	}
	if ds.FiscalYearStartMonth < 1 || ds.FiscalYearStartMonth > 12 {
		ds.FiscalYearStartMonth = 1
	}
	if _, err := s.q.Exec("insert-dataset", string(ds.ID), ds.Name, ds.FiscalYearStartMonth, s.timestamp()); err != nil {
		return "", fmt.Errorf("insert dataset %s: %w", ds.ID, err)
	}
	return ds.ID, s.Grant(ds.ID, principal)
}

// AppendRows stores records as JSON documents after the dataset's current
// high sequence.
func (s *Store) AppendRows(id types.DatasetID, startSeq int, records []types.Record) error {
	for i, rec := range records {
		doc, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal row %d for dataset %s: %w", startSeq+i, id, err)
		}
		if _, err := s.q.Exec("insert-dataset-row", string(id), startSeq+i, string(doc)); err != nil {
			return fmt.Errorf("insert row %d for dataset %s: %w", startSeq+i, id, err)
		}
	}
	return nil
}

// Grant allows a principal to read a dataset's rows.
func (s *Store) Grant(id types.DatasetID, principal string) error {
	if _, err := s.q.Exec("insert-grant", string(id), principal); err != nil {
		return fmt.Errorf("grant dataset %s to %s: %w", id, principal, err)
	}
	return nil
}

// Revoke removes a principal's dataset grant.
func (s *Store) Revoke(id types.DatasetID, principal string) error {
	if _, err := s.q.Exec("delete-grant", string(id), principal); err != nil {
		return fmt.Errorf("revoke dataset %s from %s: %w", id, principal, err)
	}
	return nil
}

type reportRow struct {
	ReportID       string `db:"report_id"`
	Name           string `db:"name"`
	OwnerPrincipal string `db:"owner_principal"`
	Definition     string `db:"definition"`
}

// SaveReport inserts or updates a report definition document. An empty ID
// gets a freshly minted one, which is returned either way.
func (s *Store) SaveReport(def types.ReportDefinition) (types.ReportID, error) {
	if def.ID == "" {
		def.ID = types.NewReportID()
	}
	doc, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("marshal report %s: %w", def.ID, err)
	}

	var existing reportRow
	err = s.q.Get("get-report", &existing, string(def.ID))
	switch {
	case err == sql.ErrNoRows:
		ts := s.timestamp()
		if _, err := s.q.Exec("insert-report", string(def.ID), def.Name, def.OwnerPrincipal, string(doc), ts, ts); err != nil {
			return "", fmt.Errorf("insert report %s: %w", def.ID, err)
		}
	case err != nil:
		return "", fmt.Errorf("get report %s: %w", def.ID, err)
	default:
		if _, err := s.q.Exec("update-report", def.Name, string(doc), s.timestamp(), string(def.ID)); err != nil {
			return "", fmt.Errorf("update report %s: %w", def.ID, err)
		}
	}
	return def.ID, nil
}

// GetReport loads a report definition. Principal must own the report.
func (s *Store) GetReport(id types.ReportID, principal string) (types.ReportDefinition, error) {
	var row reportRow
	if err := s.q.Get("get-report", &row, string(id)); err != nil {
		if err == sql.ErrNoRows {
			return types.ReportDefinition{}, fmt.Errorf("report %s: %w", id, types.ErrReportNotFound)
		}
		return types.ReportDefinition{}, fmt.Errorf("get report %s: %w", id, err)
	}
	if row.OwnerPrincipal != principal {
		return types.ReportDefinition{}, fmt.Errorf("report %s: %w", id, types.ErrReportNotFound)
	}

	var def types.ReportDefinition
	if err := json.Unmarshal([]byte(row.Definition), &def); err != nil {
		return types.ReportDefinition{}, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return def, nil
}

// ListReports returns the principal's report definitions.
func (s *Store) ListReports(principal string) ([]types.ReportDefinition, error) {
	var rows []reportRow
	if err := s.q.Select("list-reports-for-principal", &rows, principal); err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", principal, err)
	}

	defs := make([]types.ReportDefinition, 0, len(rows))
	for _, row := range rows {
		var def types.ReportDefinition
		if err := json.Unmarshal([]byte(row.Definition), &def); err != nil {
			continue
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// DeleteReport removes a report definition.
func (s *Store) DeleteReport(id types.ReportID) error {
	if _, err := s.q.Exec("delete-report", string(id)); err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	return nil
}

// timestamp renders portable RFC3339 UTC; SQLite columns are text.
func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
