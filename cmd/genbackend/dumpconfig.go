package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var dumpConfigCmd = cobra.Command{
	Use:   "dump-config",
	Short: "Show the effective configuration as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	},
}
