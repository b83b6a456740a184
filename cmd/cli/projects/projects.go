package projects

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/vireo-pm/vireo/cmd/cli/auth"
	"github.com/vireo-pm/vireo/cmd/cli/output"
	"github.com/vireo-pm/vireo/cmd/cli/root"
	"github.com/vireo-pm/vireo/internal/models"
)

func init() {
	projectsCmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE:  runList,
	}

	projectsCmd.AddCommand(listCmd)
	root.GetRoot().AddCommand(projectsCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	data, err := auth.Get("/projects")
	if err != nil {
		return err
	}

	var projects []models.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return err
	}

	rows := make([][]interface{}, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []interface{}{p.ID, p.Code, p.Name, p.CreatedBy, p.CreatedAt.Format("2006-01-02")})
	}
	output.RenderTable([]string{"ID", "Code", "Name", "Owner", "Created"}, rows)
	return nil
}
