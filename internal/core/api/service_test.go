package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tessera-labs/reportrun/internal/core/config"
	"github.com/tessera-labs/reportrun/internal/core/db"
	"github.com/tessera-labs/reportrun/internal/core/store"
	"github.com/tessera-labs/reportrun/internal/engine"
	"github.com/tessera-labs/reportrun/internal/types"
)

func newTestService(t *testing.T) (*ReportService, *store.Store) {
	t.Helper()
	conn, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.MigrateUp(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	queries, err := db.LoadQueries(conn)
	if err != nil {
		t.Fatalf("load queries: %v", err)
	}

	st := store.New(queries)
	eng := engine.New(st)
	svc, err := NewReportService(st, eng, config.DefaultServerConfig())
	if err != nil {
		t.Fatalf("NewReportService: %v", err)
	}
	return svc, st
}

func seedReport(t *testing.T, st *store.Store, principal string) types.ReportDefinition {
	t.Helper()
	if _, err := st.CreateDataset(store.Dataset{ID: "ds-sales", Name: "Sales", FiscalYearStartMonth: 1}, principal); err != nil {
		t.Fatalf("CreateDataset: %v", err)
	}
	if err := st.AppendRows("ds-sales", 0, []types.Record{
		{"region": "East", "sales": float64(100)},
		{"region": "West", "sales": float64(300)},
	}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}

	def := types.ReportDefinition{
		ID:             types.ReportID("rep-1"),
		Name:           "Regional sales",
		OwnerPrincipal: principal,
		DatasetIDs:     []types.DatasetID{"ds-sales"},
		Views: []types.View{{
			ID:        "main",
			RowFields: []string{"region"},
			Values:    []types.ValueSpec{{Field: "sales", Label: "Sales", Aggregation: types.AggSum}},
		}},
	}
	if _, err := st.SaveReport(def); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	return def
}

func request(t *testing.T, svc *ReportService, handler echo.HandlerFunc, method, target, body, principal string, pathParam ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != "" {
		c.Set("principal", principal)
	}
	if len(pathParam) == 2 {
		c.SetParamNames(pathParam[0])
		c.SetParamValues(pathParam[1])
	}

	err := handler(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHealthz(t *testing.T) {
	svc, _ := newTestService(t)
	rec := request(t, svc, svc.Healthz, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestListReports(t *testing.T) {
	svc, st := newTestService(t)
	seedReport(t, st, "alice")

	rec := request(t, svc, svc.ListReports, http.MethodGet, "/api/reports", "", "alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var summaries []reportSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "Regional sales" || summaries[0].Views != 1 {
		t.Errorf("summaries = %+v", summaries)
	}

	// Other principals see nothing.
	rec = request(t, svc, svc.ListReports, http.MethodGet, "/api/reports", "", "bob")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("bob got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRunReport(t *testing.T) {
	svc, st := newTestService(t)
	def := seedReport(t, st, "alice")

	rec := request(t, svc, svc.RunReport, http.MethodPost, "/api/reports/rep-1/run",
		`{"viewId":"main"}`, "alice", "id", string(def.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result types.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if result.Table.TotalRows != 2 {
		t.Errorf("TotalRows = %d, want 2", result.Table.TotalRows)
	}
	if result.Table.Totals["Sales"] != 400 {
		t.Errorf("Totals[Sales] = %v, want 400", result.Table.Totals["Sales"])
	}
}

func TestRunReport_UnknownReport(t *testing.T) {
	svc, _ := newTestService(t)

	rec := request(t, svc, svc.RunReport, http.MethodPost, "/api/reports/missing/run",
		`{}`, "alice", "id", "missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRunReport_NotOwner(t *testing.T) {
	svc, st := newTestService(t)
	def := seedReport(t, st, "alice")

	rec := request(t, svc, svc.RunReport, http.MethodPost, "/api/reports/rep-1/run",
		`{}`, "bob", "id", string(def.ID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for non-owner", rec.Code)
	}
}

func TestRunReport_NoDatasets(t *testing.T) {
	svc, st := newTestService(t)
	def := seedReport(t, st, "alice")
	def.DatasetIDs = nil
	if _, err := st.SaveReport(def); err != nil {
		t.Fatal(err)
	}

	rec := request(t, svc, svc.RunReport, http.MethodPost, "/api/reports/rep-1/run",
		`{}`, "alice", "id", string(def.ID))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

// An owner granted none of the report's datasets must see a permission
// failure, not a successful run with an empty-data quality bullet.
func TestRunReport_NoGrantedDatasets(t *testing.T) {
	svc, st := newTestService(t)
	seedReport(t, st, "alice")

	def := types.ReportDefinition{
		ID:             types.ReportID("rep-bob"),
		Name:           "Borrowed data",
		OwnerPrincipal: "bob",
		DatasetIDs:     []types.DatasetID{"ds-sales"},
		Views: []types.View{{
			ID:        "main",
			RowFields: []string{"region"},
			Values:    []types.ValueSpec{{Field: "sales", Label: "Sales", Aggregation: types.AggSum}},
		}},
	}
	if _, err := st.SaveReport(def); err != nil {
		t.Fatal(err)
	}

	rec := request(t, svc, svc.RunReport, http.MethodPost, "/api/reports/rep-bob/run",
		`{}`, "bob", "id", string(def.ID))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422; body %s", rec.Code, rec.Body.String())
	}
}
