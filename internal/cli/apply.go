package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bidstack/takeoff/internal/catalog"
	"github.com/bidstack/takeoff/internal/diag"
	"github.com/bidstack/takeoff/internal/expr"
	"github.com/bidstack/takeoff/internal/measure"
	"github.com/bidstack/takeoff/internal/style"
	"github.com/bidstack/takeoff/internal/takeoff"
	"github.com/bidstack/takeoff/internal/trades"
)

var (
	applyMeasurements string
	applyTemplate     string
	applyMappings     string
	applyWaste        float64
	applyMargin       float64
	applyVariant      string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Resolve a bid template against measurement data",
	Long: `Apply extracts a variable table from raw measurement data using the
configured field mappings, then resolves every template item's quantity in
dependency order. Broken formulas and dependency cycles are reported as
warnings; they never abort the run.

Without --mappings the measurements file must already be a flat
{"variable": number} object.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyMeasurements, "measurements", "m", "", "measurement data file (JSON)")
	applyCmd.Flags().StringVarP(&applyTemplate, "template", "t", "", "bid template file (YAML)")
	applyCmd.Flags().StringVar(&applyMappings, "mappings", "", "field mapping file (YAML)")
	applyCmd.Flags().Float64Var(&applyWaste, "waste", 10, "waste percent applied to material quantities")
	applyCmd.Flags().Float64Var(&applyMargin, "margin", 0, "margin percent exposed to formulas")
	applyCmd.Flags().StringVar(&applyVariant, "variant", "", "active material variant for {self:...} formulas")
	_ = applyCmd.MarkFlagRequired("measurements")
	_ = applyCmd.MarkFlagRequired("template")

	rootCmd.AddCommand(applyCmd)
}

// applyResult is the structured output of one apply run.
type applyResult struct {
	RunID    string                     `json:"run_id" yaml:"run_id"`
	Template string                     `json:"template" yaml:"template"`
	Items    []takeoff.ResolvedLineItem `json:"items" yaml:"items"`
	Warnings diag.Warnings              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func runApply(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()

	tmpl, err := catalog.LoadTemplate(applyTemplate)
	if err != nil {
		return err
	}

	vars, warnings, err := buildVarTable(applyMeasurements, applyMappings)
	if err != nil {
		return err
	}
	logger.Info().Int("variables", len(vars)).Str("template", tmpl.Name).Msg("variable table extracted")

	applicator := takeoff.NewApplicator()
	items, applyWarnings := applicator.Apply(tmpl.Items, vars, takeoff.Options{
		WastePercent:    applyWaste,
		MarginPercent:   applyMargin,
		MaterialVariant: applyVariant,
	})
	warnings = append(warnings, applyWarnings...)
	logger.Info().Int("items", len(items)).Int("warnings", len(warnings)).Msg("template applied")

	result := &applyResult{
		RunID:    runID,
		Template: tmpl.Name,
		Items:    items,
		Warnings: warnings,
	}

	switch viper.GetString("output") {
	case "json":
		return printJSON(cmd.OutOrStdout(), result)
	case "yaml":
		return printYAML(cmd.OutOrStdout(), result)
	default:
		renderApplyText(cmd, result)
		return nil
	}
}

// buildVarTable extracts variables through the mapping file, or decodes the
// measurements file as an already-flat table when no mappings are given.
func buildVarTable(measurementsPath, mappingsPath string) (expr.VarTable, diag.Warnings, error) {
	data, err := os.ReadFile(measurementsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading measurements: %w", err)
	}

	if mappingsPath == "" {
		var flat map[string]float64
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, nil, fmt.Errorf("measurements are not a flat variable table (use --mappings for nested data): %w", err)
		}
		vars := make(expr.VarTable, len(flat))
		for name, value := range flat {
			vars[measure.VarName(name)] = value
		}
		return vars, nil, nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decoding measurements: %w", err)
	}

	set, err := catalog.LoadMappings(mappingsPath)
	if err != nil {
		return nil, nil, err
	}

	extractor := measure.NewExtractor(trades.Computations())
	vars, warnings := extractor.Extract(raw, set.Mappings)
	return vars, warnings, nil
}

func renderApplyText(cmd *cobra.Command, result *applyResult) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(result.Items))
	for _, item := range result.Items {
		rows = append(rows, []string{
			string(item.Section),
			item.Description,
			strconv.FormatFloat(item.Quantity, 'f', -1, 64),
			item.Unit,
			string(item.Source),
			item.Formula,
		})
	}
	printTable(out, []string{"SECTION", "DESCRIPTION", "QTY", "UNIT", "SOURCE", "FORMULA"}, rows)

	if viper.GetBool("quiet") {
		return
	}
	for _, warning := range result.Warnings {
		style.Warningf(cmd.ErrOrStderr(), "%s", warning)
	}
}

// sortedVarNames returns table names in stable display order.
func sortedVarNames(vars expr.VarTable) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
