package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nuget-resolve/resolver/observability"
	"github.com/nuget-resolve/resolver/scanner"
)

// cliOptions binds every flag the command accepts, grounded on the
// teacher's restore command's Options-struct-plus-RunE convention.
type cliOptions struct {
	project      string
	framework    string
	output       string
	nugetConfig  string
	sources      []string
	withDetails  bool
	withFallback bool
	withNuGetOrg bool
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "gonuget-resolve <PROJECT>",
		Short: "Resolve a project's transitive NuGet dependency tree",
		Long: `gonuget-resolve scans a single .csproj/.vbproj/.fsproj, packages.config, or
project.json and prints its fully resolved transitive dependency tree as
JSON, without writing anything to disk.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.project = args[0]
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.framework, "framework", "", "Target framework moniker (overrides project-file detection)")
	cmd.Flags().StringVar(&opts.output, "output", "", "Write the JSON report here instead of stdout")
	cmd.Flags().StringVar(&opts.nugetConfig, "nuget-config", "", "NuGet.config to read package sources/credentials from")
	cmd.Flags().StringSliceVar(&opts.sources, "source", nil, "Additional package source URL (repeatable)")
	cmd.Flags().BoolVar(&opts.withDetails, "with-details", false, "Enrich every resolved package with registry metadata")
	cmd.Flags().BoolVar(&opts.withFallback, "with-fallback", false, "Fall back to raw XML parsing if MSBuild-style project evaluation fails")
	cmd.Flags().BoolVar(&opts.withNuGetOrg, "with-nuget-org", false, "Always include the public nuget.org feed, even if a NuGet.config supplied sources")

	return cmd
}

func run(cmd *cobra.Command, opts *cliOptions) error {
	result, err := scanner.Scan(cmd.Context(), scanner.InputDescriptor{
		ProjectFile:     opts.project,
		TargetFramework: opts.framework,
		Feeds:           opts.sources,
		NuGetConfigPath: opts.nugetConfig,
		WithDetails:     opts.withDetails,
		WithFallback:    opts.withFallback,
		WithNuGetOrg:    opts.withNuGetOrg,
		Logger:          observability.NewNullLogger(),
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", opts.project, err)
	}

	if writeErr := writeReport(opts.output, result); writeErr != nil {
		return writeErr
	}

	printSummary(cmd.ErrOrStderr(), result)

	if result.Status != scanner.StatusSuccess {
		return fmt.Errorf("scan completed with status %s", result.Status)
	}
	return nil
}

func writeReport(outputPath string, result *scanner.Result) error {
	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file %s: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if result.Report == nil {
		return enc.Encode(map[string]string{"status": result.Status.String()})
	}
	return enc.Encode(result.Report)
}

func printSummary(w io.Writer, result *scanner.Result) {
	if result.Report == nil {
		return
	}
	for _, warning := range result.Report.Warnings {
		fmt.Fprintln(w, warnColor().Sprint("warning: ")+warning)
	}
	for _, errMsg := range result.Report.Errors {
		fmt.Fprintln(w, errorColor().Sprint("error: ")+errMsg)
	}
	if result.Status == scanner.StatusSuccess {
		fmt.Fprintf(w, "%s %d packages resolved\n", successColor().Sprint("ok:"), len(result.Report.Flat))
	}
}

func successColor() *color.Color { return colorOrPlain(color.FgGreen) }
func warnColor() *color.Color    { return colorOrPlain(color.FgYellow) }
func errorColor() *color.Color   { return colorOrPlain(color.FgRed) }

// colorOrPlain mirrors the teacher's console color scheme but gates it on
// golang.org/x/term's terminal check instead of a hand-rolled os.ModeCharDevice
// probe, and on NO_COLOR per convention.
func colorOrPlain(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stderr.Fd())) {
		c.DisableColor()
	}
	return c
}
