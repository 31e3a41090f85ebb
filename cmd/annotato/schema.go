package annotato

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soundprediction/annotato/pkg/schema"
)

var (
	schemaTask     string
	schemaExamples string

	schemaCmd = &cobra.Command{
		Use:   "schema",
		Short: "Compile and print the extraction schema",
		Long: `Schema compiles the extraction schema from a task and examples file and
prints the JSON Schema that model responses are validated against. Useful for
checking what classes and attributes the examples actually teach before
spending model calls.`,
		RunE: runSchema,
	}
)

func init() {
	schemaCmd.Flags().StringVarP(&schemaTask, "task", "t", "", "task description (required)")
	schemaCmd.Flags().StringVarP(&schemaExamples, "examples", "e", "", "YAML file of worked examples (required)")
	schemaCmd.MarkFlagRequired("task")
	schemaCmd.MarkFlagRequired("examples")

	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	examples, err := loadExamples(schemaExamples)
	if err != nil {
		return err
	}

	s, err := schema.Compile(schemaTask, examples)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "classes: %s\n", strings.Join(s.Classes, ", "))
	for _, class := range s.Classes {
		if attrs := s.Attributes[class]; len(attrs) > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", class, strings.Join(attrs, ", "))
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(s.ResponseJSONSchema()))
	return nil
}
