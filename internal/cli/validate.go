package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/micromata/projectforge-sub013/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                     `json:"valid"`
	Types    []string                 `json:"types,omitempty"`
	Errors   []schema.ValidationError `json:"errors,omitempty"`
	Warnings []schema.CycleWarning    `json:"warnings,omitempty"`
}

// RenderText implements textRenderer.
func (r ValidationResult) RenderText(w io.Writer) error {
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "! %s\n", warn.Message)
	}
	if r.Valid {
		_, err := fmt.Fprintf(w, "✓ Schema valid: %d type(s)\n", len(r.Types))
		return err
	}
	fmt.Fprintln(w, "✗ Validation failed")
	fmt.Fprintln(w)
	for _, e := range r.Errors {
		if e.Line > 0 {
			fmt.Fprintf(w, "line %d\n", e.Line)
		}
		fmt.Fprintf(w, "  %s: %s: %s\n\n", e.Code, e.Field, e.Message)
	}
	return nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-dir>",
		Short: "Validate entity type declarations",
		Long: `Validate the CUE entity declarations in a schema directory.

Reports compile and consistency errors with their codes, and warns about
cascading ownership cycles.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result, _, loadErr := loadTypes(dir, schema.LoadModeCollectAll, formatter)
	if loadErr != nil {
		return outputValidateError(formatter, loadErr)
	}

	if !result.Valid {
		if formatter.Format == "json" {
			first := result.Errors[0]
			if err := formatter.encode(CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: first.Code, Message: first.Message},
			}); err != nil {
				return err
			}
		} else if err := result.RenderText(formatter.Writer); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return formatter.Success(result)
}

// loadTypes loads and validates a schema directory. The returned LoadError
// is set only when nothing could be compiled at all.
func loadTypes(dir string, mode schema.LoadMode, formatter *OutputFormatter) (ValidationResult, []schema.TypeSpec, *schema.LoadError) {
	loaded, errs := schema.LoadDir(dir, mode)
	if loaded == nil || (len(loaded.Types) == 0 && len(errs) > 0) {
		return ValidationResult{}, nil, asLoadError(errs)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := ValidationResult{}
	for _, err := range errs {
		var le *schema.LoadError
		if errors.As(err, &le) {
			result.Errors = append(result.Errors, schema.ValidationError{
				Field:   "load",
				Message: le.Message,
				Code:    le.Code,
				Line:    lineOf(le),
			})
		}
	}
	for _, t := range loaded.Types {
		formatter.VerboseLog("Validating entity: %s", t.Name)
		result.Types = append(result.Types, t.Name)
	}
	result.Errors = append(result.Errors, schema.Validate(loaded.Types)...)
	if len(result.Errors) == 0 {
		result.Warnings = schema.AnalyzeOwnershipCycles(loaded.Types)
	}
	result.Valid = len(result.Errors) == 0
	return result, loaded.Types, nil
}

func asLoadError(errs []error) *schema.LoadError {
	if len(errs) == 0 {
		return &schema.LoadError{Code: schema.ErrCodeGeneric, Message: "schema could not be loaded"}
	}
	var le *schema.LoadError
	if errors.As(errs[0], &le) {
		return le
	}
	return &schema.LoadError{Code: schema.ErrCodeGeneric, Message: errs[0].Error()}
}

func lineOf(le *schema.LoadError) int {
	if le.Pos.IsValid() {
		return le.Pos.Line()
	}
	return 0
}

// outputValidateError reports a schema directory that could not be loaded.
func outputValidateError(formatter *OutputFormatter, le *schema.LoadError) error {
	_ = formatter.Error(le.Code, le.Message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", le.Code, le.Message))
}
