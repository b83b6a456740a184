package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "vireo",
	Short: "Vireo project tracker CLI",
	Long:  "Command line interface for interacting with the Vireo project-management API",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the RootCmd for subcommand registration.
func GetRoot() *cobra.Command {
	return RootCmd
}

// APIBase returns the API base URL (VIREO_API_URL, default http://localhost:8080).
func APIBase() string {
	if v := os.Getenv("VIREO_API_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}
