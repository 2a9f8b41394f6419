package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bidstack/takeoff/internal/catalog"
	"github.com/bidstack/takeoff/internal/style"
)

var validateKind string

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a template or mapping file before save",
	Long: `Validate checks a bid template or field mapping file the strict way:
formula syntax in either authoring dialect, dependency references, mapping
kind consistency, and derived-formula cycles. Unlike apply, validation
reports failures instead of silently defaulting, so authoring tools can flag
problems before anything depends on the file.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateKind, "kind", "template", "what the file contains (template, mappings)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	var result *catalog.Result
	switch validateKind {
	case "template":
		tmpl, err := catalog.LoadTemplate(path)
		if err != nil {
			return err
		}
		result = catalog.ValidateTemplate(tmpl)
	case "mappings":
		set, err := catalog.LoadMappings(path)
		if err != nil {
			return err
		}
		result = catalog.ValidateMappings(set)
	default:
		return fmt.Errorf("unknown kind %q (want template or mappings)", validateKind)
	}

	switch viper.GetString("output") {
	case "json":
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	case "yaml":
		if err := printYAML(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	default:
		if result.Valid {
			style.Successf(cmd.OutOrStdout(), "%s is valid", path)
		} else {
			style.Errorf(cmd.OutOrStdout(), "%s has %d issue(s)", path, len(result.Issues))
			for _, issue := range result.Issues {
				style.Warningf(cmd.OutOrStdout(), "%s", issue.Error())
			}
		}
	}

	if !result.Valid {
		return fmt.Errorf("validation failed")
	}
	return nil
}
