package cli

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bidstack/takeoff/internal/style"
)

var (
	varsMeasurements string
	varsMappings     string
)

var varsCmd = &cobra.Command{
	Use:   "vars",
	Short: "Show the variable table extracted from measurement data",
	Long: `Vars runs the measurement extraction step on its own and prints the
resulting variable table, so mapping authors can see exactly which values
their lookup paths, computations, and derived formulas produce.`,
	RunE: runVars,
}

func init() {
	varsCmd.Flags().StringVarP(&varsMeasurements, "measurements", "m", "", "measurement data file (JSON)")
	varsCmd.Flags().StringVar(&varsMappings, "mappings", "", "field mapping file (YAML)")
	_ = varsCmd.MarkFlagRequired("measurements")
	_ = varsCmd.MarkFlagRequired("mappings")

	rootCmd.AddCommand(varsCmd)
}

func runVars(cmd *cobra.Command, args []string) error {
	vars, warnings, err := buildVarTable(varsMeasurements, varsMappings)
	if err != nil {
		return err
	}

	switch viper.GetString("output") {
	case "json":
		return printJSON(cmd.OutOrStdout(), vars)
	case "yaml":
		return printYAML(cmd.OutOrStdout(), vars)
	default:
		rows := make([][]string, 0, len(vars))
		for _, name := range sortedVarNames(vars) {
			rows = append(rows, []string{name, strconv.FormatFloat(vars[name], 'f', -1, 64)})
		}
		printTable(cmd.OutOrStdout(), []string{"VARIABLE", "VALUE"}, rows)

		for _, warning := range warnings {
			style.Warningf(cmd.ErrOrStderr(), "%s", warning)
		}
		return nil
	}
}
