package main

import (
	"fmt"
	"os"

	_ "github.com/vireo-pm/vireo/cmd/cli/audit"
	_ "github.com/vireo-pm/vireo/cmd/cli/auth"
	_ "github.com/vireo-pm/vireo/cmd/cli/bugs"
	_ "github.com/vireo-pm/vireo/cmd/cli/projects"
	"github.com/vireo-pm/vireo/cmd/cli/root"
)

func main() {
	if err := root.GetRoot().Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
