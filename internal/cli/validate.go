package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/layersync/internal/compiler"
)

// ManifestSummary describes one valid manifest.
type ManifestSummary struct {
	Name   string `json:"name"`
	Layers int    `json:"layers"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                       `json:"valid"`
	Manifests []ManifestSummary          `json:"manifests,omitempty"`
	Errors    []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest-dir>",
		Short: "Validate CUE layer manifests",
		Long: `Compile and validate the layer manifests declared in a directory.

Every CUE file in the directory is loaded as one package; each field
under "manifest" is compiled into an ordered layer list and checked for
empty or duplicate layer ids and reserved props.

Exit codes:
  0 - All manifests valid
  1 - One or more manifests invalid
  2 - Command error (missing directory, CUE syntax error, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result, loadErrs := LoadManifests(dir)
	if result == nil {
		var loadErr *LoadError
		if errors.As(loadErrs[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrs[0].Error())
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	var verrs []compiler.ValidationError
	for _, err := range loadErrs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			verrs = append(verrs, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Error(),
				Code:    loadErr.Code,
			})
		}
	}

	summaries := make([]ManifestSummary, 0, len(result.Manifests))
	for i := range result.Manifests {
		m := &result.Manifests[i]
		formatter.VerboseLog("Validating manifest: %s (%d layers)", m.Name, len(m.Layers))
		verrs = append(verrs, compiler.Validate(m)...)
		summaries = append(summaries, ManifestSummary{Name: m.Name, Layers: len(m.Layers)})
	}
	opts.logger().Debug("manifests validated",
		"dir", dir,
		"manifests", len(summaries),
		"errors", len(verrs),
	)

	if len(verrs) > 0 {
		return outputValidationErrors(formatter, verrs)
	}
	return outputValidateSuccess(formatter, summaries)
}

func outputValidateSuccess(formatter *OutputFormatter, summaries []ManifestSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Manifests: summaries})
	}

	for _, s := range summaries {
		fmt.Fprintf(formatter.Writer, "  %s: %d layer(s)\n", s.Name, s.Layers)
	}
	fmt.Fprintln(formatter.Writer, "✓ All manifests valid")
	return nil
}

// outputValidateError reports a command-level failure (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors reports invalid manifests (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		err := formatter.Response(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		})
		if err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
	}
	return failure
}
