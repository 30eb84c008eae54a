// Command silica runs parametric type instantiation scenarios.
//
// A scenario file describes a formal signature with parametric bit widths,
// the concrete argument types at a call or construction site, and optional
// explicit bindings; silica reports the resolved type and the bindings the
// engine inferred, or a positional diagnostic.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/silica-lang/silica/internal/evaluator"
	"github.com/silica-lang/silica/internal/flatten"
	"github.com/silica-lang/silica/internal/instantiate"
	"github.com/silica-lang/silica/internal/scenario"
)

var flagFlatten bool

func main() {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	rootCmd := &cobra.Command{
		Use:           "silica",
		Short:         "Parametric type instantiation for the silica type system",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	instantiateCmd := &cobra.Command{
		Use:   "instantiate <scenario.yaml>",
		Short: "Instantiate a parametric signature against concrete argument types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstantiate(args[0])
		},
	}
	instantiateCmd.Flags().BoolVar(&flagFlatten, "flatten", false, "also print the packed bit layout of the resolved type")
	rootCmd.AddCommand(instantiateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func runInstantiate(path string) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}
	compiled, err := s.Compile()
	if err != nil {
		return err
	}

	result, err := compiled.Run(evaluator.New())
	if err != nil {
		return err
	}

	printResult(result)

	if flagFlatten {
		layout, err := flatten.Compute(result.Type)
		if err != nil {
			return err
		}
		printLayout(layout)
	}
	return nil
}

func printResult(result *instantiate.TypeAndBindings) {
	fmt.Printf("resolved: %s\n", color.GreenString("%s", result.Type))

	names := make([]string, 0, len(result.Bindings))
	for name := range result.Bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("bindings: (none)")
		return
	}
	fmt.Print("bindings: ")
	for i, name := range names {
		if i > 0 {
			fmt.Print(", ")
		}
		fmt.Printf("%s = %s", color.CyanString(name), color.YellowString("%d", result.Bindings[name]))
	}
	fmt.Println()
}

func printLayout(layout *flatten.Layout) {
	fmt.Printf("layout: %d bit(s)\n", layout.TotalBits)
	for _, f := range layout.Fields {
		path := f.Path
		if path == "" {
			path = "."
		}
		fmt.Printf("  %-16s [%d:%d] width %d\n", path, f.Offset+f.Width-1, f.Offset, f.Width)
	}
}
