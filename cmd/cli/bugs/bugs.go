package bugs

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vireo-pm/vireo/cmd/cli/auth"
	"github.com/vireo-pm/vireo/cmd/cli/output"
	"github.com/vireo-pm/vireo/cmd/cli/root"
	"github.com/vireo-pm/vireo/internal/models"
)

var (
	listStatus    string
	listProjectID int

	createSummary     string
	createDescription string
	createPriority    string
	createType        string
	createProjectID   int
)

func init() {
	bugsCmd := &cobra.Command{
		Use:   "bugs",
		Short: "List and create bugs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List bugs",
		RunE:  runList,
	}
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status (OPEN, IN_PROGRESS, RESOLVED, CLOSED)")
	listCmd.Flags().IntVar(&listProjectID, "project", 0, "filter by project id")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bug",
		RunE:  runCreate,
	}
	createCmd.Flags().StringVar(&createSummary, "summary", "", "bug summary (required)")
	createCmd.Flags().StringVar(&createDescription, "description", "", "bug description")
	createCmd.Flags().StringVar(&createPriority, "priority", "", "priority (LOW, MEDIUM, HIGH, CRITICAL)")
	createCmd.Flags().StringVar(&createType, "type", "", "type (BUG, FEATURE, TASK)")
	createCmd.Flags().IntVar(&createProjectID, "project", 0, "project id (controls the code prefix)")
	createCmd.MarkFlagRequired("summary")

	bugsCmd.AddCommand(listCmd, createCmd)
	root.GetRoot().AddCommand(bugsCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	path := "/bugs"
	sep := "?"
	if listStatus != "" {
		path += sep + "status=" + listStatus
		sep = "&"
	}
	if listProjectID > 0 {
		path += fmt.Sprintf("%sproject_id=%d", sep, listProjectID)
	}

	data, err := auth.Get(path)
	if err != nil {
		return err
	}

	var bugs []models.Bug
	if err := json.Unmarshal(data, &bugs); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(bugs))
	for _, b := range bugs {
		project := "-"
		if b.ProjectID != nil {
			project = fmt.Sprintf("%d", *b.ProjectID)
		}
		rows = append(rows, []interface{}{b.ID, b.Code, b.Summary, b.Status, b.Priority, b.Type, project})
	}
	output.RenderTable([]string{"ID", "Code", "Summary", "Status", "Priority", "Type", "Project"}, rows)
	return nil
}

func runCreate(cmd *cobra.Command, args []string) error {
	payload := map[string]interface{}{"summary": createSummary}
	if createDescription != "" {
		payload["description"] = createDescription
	}
	if createPriority != "" {
		payload["priority"] = createPriority
	}
	if createType != "" {
		payload["type"] = createType
	}
	if createProjectID > 0 {
		payload["project_id"] = createProjectID
	}

	data, err := auth.Post("/bugs", payload)
	if err != nil {
		return err
	}

	var bug models.Bug
	if err := json.Unmarshal(data, &bug); err != nil {
		return err
	}
	fmt.Printf("Created bug %s (id %d)\n", bug.Code, bug.ID)
	return nil
}
