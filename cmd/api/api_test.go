package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"github.com/vireo-pm/vireo/internal/config"
)

// TestAPI_LoginThenListBugs is an integration test: it builds the full router
// with a sqlmock-backed DB, logs in to get a JWT, then calls GET /bugs with
// the token.
func TestAPI_LoginThenListBugs(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	// Login: GetByUsername("integration")
	mock.ExpectQuery(`SELECT id, username, password_hash, role FROM users WHERE username = \$1`).
		WithArgs("integration").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).
			AddRow(1, "integration", string(hash), "member"))

	// GET /bugs: List with default limit/offset
	now := time.Now()
	mock.ExpectQuery(`SELECT id, code, summary, description, status, priority, type, project_id, reporter_id, created_at, updated_at FROM bugs ORDER BY id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "code", "summary", "description", "status", "priority", "type",
			"project_id", "reporter_id", "created_at", "updated_at",
		}).AddRow(1, "BUGS-1", "login broken", "", "OPEN", "HIGH", "BUG", nil, 1, now, now))

	cfg := config.Config{JWTSecret: "test-secret-for-integration", JWTExpireHours: 1}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	// 1) Login
	loginBody, _ := json.Marshal(map[string]string{"username": "integration", "password": "pw"})
	loginResp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login status: got %d, want 200", loginResp.StatusCode)
	}
	var loginOut struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&loginOut); err != nil || loginOut.Token == "" {
		t.Fatalf("login response: %v", err)
	}

	// 2) GET /bugs with Bearer token
	req, _ := http.NewRequest("GET", srv.URL+"/bugs", nil)
	req.Header.Set("Authorization", "Bearer "+loginOut.Token)
	bugsResp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("bugs request: %v", err)
	}
	defer bugsResp.Body.Close()
	if bugsResp.StatusCode != http.StatusOK {
		t.Fatalf("GET /bugs status: got %d, want 200", bugsResp.StatusCode)
	}
	var bugs []struct {
		ID      int    `json:"id"`
		Code    string `json:"code"`
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(bugsResp.Body).Decode(&bugs); err != nil {
		t.Fatalf("decode bugs: %v", err)
	}
	if len(bugs) != 1 || bugs[0].Code != "BUGS-1" {
		t.Errorf("unexpected bugs: %+v", bugs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_BugsRequiresAuth checks that the bug endpoints reject missing tokens.
func TestAPI_BugsRequiresAuth(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x"}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/bugs")
	if err != nil {
		t.Fatalf("bugs request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("GET /bugs without token: got %d, want 401", resp.StatusCode)
	}
}

// TestAPI_UsersRequiresAdmin checks the role gate on the user admin endpoints.
func TestAPI_UsersRequiresAdmin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	mock.ExpectQuery(`SELECT id, username, password_hash, role FROM users WHERE username = \$1`).
		WithArgs("plainmember").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "role"}).
			AddRow(2, "plainmember", string(hash), "member"))

	cfg := config.Config{JWTSecret: "test-secret-for-integration", JWTExpireHours: 1}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	loginBody, _ := json.Marshal(map[string]string{"username": "plainmember", "password": "pw"})
	loginResp, err := http.Post(srv.URL+"/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer loginResp.Body.Close()
	var loginOut struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&loginOut); err != nil || loginOut.Token == "" {
		t.Fatalf("login response: %v", err)
	}

	req, _ := http.NewRequest("GET", srv.URL+"/users", nil)
	req.Header.Set("Authorization", "Bearer "+loginOut.Token)
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("users request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("GET /users as member: got %d, want 403", resp.StatusCode)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x"}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_Ready checks that /ready pings the DB and returns 200 when DB is reachable.
func TestAPI_Ready(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x"}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ready")
	if err != nil {
		t.Fatalf("ready request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready status: got %d, want 200", resp.StatusCode)
	}
}
