package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vireo-pm/vireo/internal/audit"
	"github.com/vireo-pm/vireo/internal/models"
	"github.com/vireo-pm/vireo/internal/repo"
)

func newPhaseHandler(db *sql.DB) *PhaseHandler {
	return &PhaseHandler{
		Repo:     repo.NewPhaseRepo(db),
		Projects: repo.NewProjectRepo(db),
		Recorder: audit.NewRecorder(repo.NewAuditRepo(db)),
	}
}

func phaseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "project_id", "name", "start_date", "end_date", "created_at"})
}

func TestPhaseHandler_CreatePhase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, name, code, description, created_by, created_at, updated_at FROM projects WHERE id = \$1`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "description", "created_by", "created_at", "updated_at"}).
			AddRow(3, "Website", "PRJ-1", "", 1, now, now))
	mock.ExpectQuery(`INSERT INTO phases`).
		WithArgs(3, "Design", nil, nil).
		WillReturnRows(phaseRows().AddRow(12, 3, "Design", nil, nil, now))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs(4, "CREATE", "PHASE", 12, `Phase "Design" created`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	h := newPhaseHandler(db)
	body, _ := json.Marshal(map[string]string{"name": "Design"})
	req := asIdentity(requestWithChiURLParams("POST", "/projects/3/phases", body, map[string]string{"id": "3"}),
		models.Identity{UserID: 4, Role: models.RoleManager})
	rr := httptest.NewRecorder()
	h.CreatePhase(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("CreatePhase status: got %d, want 201, body %s", rr.Code, rr.Body.String())
	}
	var phase struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&phase); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if phase.ID != 12 || phase.Name != "Design" {
		t.Errorf("unexpected phase: %+v", phase)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPhaseHandler_CreatePhase_EndBeforeStart(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := newPhaseHandler(db)
	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(-24 * time.Hour)
	body, _ := json.Marshal(map[string]interface{}{"name": "Design", "start_date": start, "end_date": end})
	req := asIdentity(requestWithChiURLParams("POST", "/projects/3/phases", body, map[string]string{"id": "3"}),
		models.Identity{UserID: 4, Role: models.RoleManager})
	rr := httptest.NewRecorder()
	h.CreatePhase(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("CreatePhase status: got %d, want 400", rr.Code)
	}
	var out struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Fields["end_date"] != "must not be before start_date" {
		t.Errorf("unexpected fields: %v", out.Fields)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPhaseHandler_DeletePhase_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, project_id, name, start_date, end_date, created_at FROM phases WHERE id = \$1`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	h := newPhaseHandler(db)
	req := asIdentity(requestWithChiURLParams("DELETE", "/phases/99", nil, map[string]string{"id": "99"}),
		models.Identity{UserID: 1, Role: models.RoleAdmin})
	rr := httptest.NewRecorder()
	h.DeletePhase(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("DeletePhase status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
