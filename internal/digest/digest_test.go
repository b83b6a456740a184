package digest

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/vireo-pm/vireo/internal/repo"
)

func newJob(t *testing.T) (*Job, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	j := &Job{
		Projects: repo.NewProjectRepo(db),
		Bugs:     repo.NewBugRepo(db),
		Messages: repo.NewMessageRepo(db),
	}
	return j, mock, func() { db.Close() }
}

func TestJob_Run_SendsDigestToOwner(t *testing.T) {
	j, mock, closeDB := newJob(t)
	defer closeDB()

	now := time.Now()
	mock.ExpectQuery(`SELECT created_by, id FROM projects ORDER BY created_by, id`).
		WillReturnRows(sqlmock.NewRows([]string{"created_by", "id"}).
			AddRow(4, 1).
			AddRow(4, 2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bugs WHERE project_id = \$1 AND status = \$2`).
		WithArgs(1, "OPEN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT id, name, code, description, created_by, created_at, updated_at FROM projects WHERE id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code", "description", "created_by", "created_at", "updated_at"}).
			AddRow(1, "Website", "PRJ-1", "", 4, now, now))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bugs WHERE project_id = \$1 AND status = \$2`).
		WithArgs(2, "OPEN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO messages`).
		WithArgs(nil, 4, "Open bug digest: 3 open across your projects", "Website (PRJ-1): 3 open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "recipient_id", "subject", "body", "read", "created_at"}).
			AddRow(1, nil, 4, "Open bug digest: 3 open across your projects", "Website (PRJ-1): 3 open", false, now))

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestJob_Run_NoOpenBugsNoMessage(t *testing.T) {
	j, mock, closeDB := newJob(t)
	defer closeDB()

	mock.ExpectQuery(`SELECT created_by, id FROM projects ORDER BY created_by, id`).
		WillReturnRows(sqlmock.NewRows([]string{"created_by", "id"}).AddRow(4, 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bugs WHERE project_id = \$1 AND status = \$2`).
		WithArgs(1, "OPEN").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	if err := j.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestJob_Start_InvalidCron(t *testing.T) {
	j, _, closeDB := newJob(t)
	defer closeDB()

	if _, err := j.Start("not a cron expr"); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
