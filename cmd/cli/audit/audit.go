package audit

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vireo-pm/vireo/cmd/cli/auth"
	"github.com/vireo-pm/vireo/cmd/cli/output"
	"github.com/vireo-pm/vireo/cmd/cli/root"
	"github.com/vireo-pm/vireo/internal/models"
)

var listLimit int

func init() {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail visible to you",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List visible audit entries, newest first",
		RunE:  runList,
	}
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum entries to fetch")

	auditCmd.AddCommand(listCmd)
	root.GetRoot().AddCommand(auditCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	data, err := auth.Get(fmt.Sprintf("/audit?limit=%d", listLimit))
	if err != nil {
		return err
	}

	var entries []models.AuditEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		user := "system"
		if e.UserID != nil {
			user = fmt.Sprintf("%d", *e.UserID)
		}
		rows = append(rows, []interface{}{
			e.ID, user, e.Action, e.EntityType, e.EntityID, e.Details,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	output.RenderTable([]string{"ID", "User", "Action", "Entity", "EntityID", "Details", "At"}, rows)
	return nil
}
