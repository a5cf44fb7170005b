package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"AliceBridge/internal/config"

	"github.com/spf13/cobra"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the supported upstream variants",
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFAMILY\tMODEL\tKEY\tHISTORY\tWINDOW")
		for _, name := range config.VariantNames() {
			v, _ := config.Lookup(name)
			key := v.KeyEnv
			if v.KeyOptional {
				key += " (optional)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n", v.Name, v.Family, v.Model, key, v.HistoryCap, v.ContextWindow)
		}
		return w.Flush()
	},
}

var checkKeyCmd = &cobra.Command{
	Use:   "check-key",
	Short: "Validate the API key for the selected variant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := config.ResolveAPIKey(&cfg, os.Getenv); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: key %s ok\n", cfg.Variant, config.MaskKey(cfg.APIKey))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(variantsCmd, checkKeyCmd)
}
