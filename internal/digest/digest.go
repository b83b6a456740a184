// Package digest runs the recurring project digest: each project creator gets
// a system inbox message summarizing the open bug count of their projects.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/vireo-pm/vireo/internal/metrics"
	"github.com/vireo-pm/vireo/internal/repo"
)

// Job builds and delivers digests.
type Job struct {
	Projects *repo.ProjectRepo
	Bugs     *repo.BugRepo
	Messages *repo.MessageRepo
}

// Start schedules the job at cronExpr and returns the running cron handle so
// the caller can Stop it on shutdown. Returns an error for an invalid expression.
func (j *Job) Start(cronExpr string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(cronExpr, func() {
		if err := j.Run(context.Background()); err != nil {
			slog.Error("digest run failed", "error", err)
			metrics.IncDigestRun("error")
			return
		}
		metrics.IncDigestRun("completed")
	})
	if err != nil {
		return nil, fmt.Errorf("digest schedule %q: %w", cronExpr, err)
	}
	c.Start()
	slog.Info("digest scheduled", "cron", cronExpr)
	return c, nil
}

// Run sends one digest message per project owner. Owners whose projects have
// no open bugs are skipped.
func (j *Job) Run(ctx context.Context) error {
	owners, err := j.Projects.OwnerIDs(ctx)
	if err != nil {
		return fmt.Errorf("list project owners: %w", err)
	}

	for owner, projectIDs := range owners {
		var lines []string
		total := 0
		for _, pid := range projectIDs {
			n, err := j.Bugs.CountOpenByProject(ctx, pid)
			if err != nil {
				return fmt.Errorf("count open bugs for project %d: %w", pid, err)
			}
			if n == 0 {
				continue
			}
			project, err := j.Projects.GetByID(ctx, pid)
			if err != nil {
				return fmt.Errorf("load project %d: %w", pid, err)
			}
			lines = append(lines, fmt.Sprintf("%s (%s): %d open", project.Name, project.Code, n))
			total += n
		}
		if total == 0 {
			continue
		}

		subject := fmt.Sprintf("Open bug digest: %d open across your projects", total)
		body := strings.Join(lines, "\n")
		// nil sender marks the message as system-originated
		if _, err := j.Messages.Send(ctx, nil, owner, subject, body); err != nil {
			return fmt.Errorf("send digest to user %d: %w", owner, err)
		}
	}
	return nil
}
