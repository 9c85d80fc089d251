package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hangarhq/aeromesh"
	"github.com/hangarhq/aeromesh/logging"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the registered agents and their routing keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Listing needs no persistence; keep the task store off disk.
		cfg.Storage.Driver = "memory"

		mesh, err := aeromesh.New(func(o *aeromesh.Options) {
			o.Config = *cfg
			o.Logger = logging.NoOpLogger{}
		})
		if err != nil {
			return err
		}
		defer mesh.Close()

		name := color.New(color.FgCyan, color.Bold)
		for _, entry := range mesh.Agents() {
			fmt.Printf("%s  %s\n", name.Sprint(entry.AgentType), entry.Name)
			fmt.Printf("  %s\n", entry.Description)
			if len(entry.Keywords) > 0 {
				fmt.Printf("  keywords: %s\n", strings.Join(entry.Keywords, ", "))
			}
			fmt.Println()
		}
		return nil
	},
}
