package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/frontscan/frontscan/pkg/analysis"
	"github.com/frontscan/frontscan/pkg/export"
)

// reportCommand creates the report command for summarizing crawl output.
func (c *CLI) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <results-dir-or-file>...",
		Short: "Summarize crawl results",
		Long: `Read result JSON files produced by crawl and print adoption metrics.

Arguments may be individual JSON files or directories, which are
scanned for results-*.json files.

Examples:
  frontscan report results/
  frontscan report results/results-1a2b3c4d-000.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := loadResults(args)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				return fmt.Errorf("no results found")
			}
			printMetrics(analysis.Aggregate(results))
			return nil
		},
	}
	return cmd
}

func loadResults(args []string) ([]*analysis.Result, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(filepath.Join(arg, "results-*.json"))
		if err == nil && len(matches) > 0 {
			paths = append(paths, matches...)
			continue
		}
		paths = append(paths, arg)
	}
	sort.Strings(paths)

	var all []*analysis.Result
	for _, p := range paths {
		results, err := export.ReadJSONFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, results...)
	}
	return all, nil
}

func printMetrics(m *analysis.Metrics) {
	printNewline()
	fmt.Println(StyleTitle.Render("Adoption report"))
	printNewline()

	printKeyValue("repositories", fmt.Sprint(m.Total))
	printKeyValue("government", fmt.Sprint(m.Government))
	printKeyValue("prototypes", fmt.Sprint(m.Prototypes))
	printKeyValue("direct", fmt.Sprint(m.WithDirect))
	printKeyValue("indirect", fmt.Sprint(m.WithIndirect))
	printKeyValue("unresolved", fmt.Sprint(m.Unresolved))
	printKeyValue("inaccessible", fmt.Sprint(m.CouldntAccess))

	if len(m.Majors) > 0 {
		printNewline()
		printInfo("By major version")
		majors := make([]uint64, 0, len(m.Majors))
		for v := range m.Majors {
			majors = append(majors, v)
		}
		sort.Slice(majors, func(i, j int) bool { return majors[i] < majors[j] })
		for _, v := range majors {
			printDetail("v%d: %d", v, m.Majors[v])
		}
	}

	if len(m.Versions) > 0 {
		printNewline()
		printInfo("By exact version")
		versions := make([]string, 0, len(m.Versions))
		for v := range m.Versions {
			versions = append(versions, v)
		}
		sort.Strings(versions)
		for _, v := range versions {
			printDetail("%s: %d", v, m.Versions[v])
		}
	}
}
