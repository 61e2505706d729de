package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frontscan/frontscan/pkg/analysis"
	"github.com/frontscan/frontscan/pkg/config"
	"github.com/frontscan/frontscan/pkg/export"
	"github.com/frontscan/frontscan/pkg/integrations/github"
)

// repoCommand creates the repo command for analyzing a single repository.
func (c *CLI) repoCommand() *cobra.Command {
	var (
		configPath string
		token      string
		output     string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "repo <owner/repo>",
		Short: "Analyze a single repository",
		Long: `Analyze one repository and print its dependency findings.

Examples:
  frontscan repo alphagov/smart-answers
  frontscan repo alphagov/smart-answers -o result.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			owner, name, err := github.ParseRepoRef(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			gh, err := c.newGitHubClient(cfg, token, noCache)
			if err != nil {
				return err
			}

			opts := cfg.AnalyzerOptions()
			opts.Logger = c.Logger
			analyzer := analysis.New(fetcher{gh}, opts)

			repo := analysis.RepoRef{Owner: owner, Name: name}
			spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Analyzing %s...", repo))
			spinner.Start()
			result, err := analyzer.Analyze(ctx, repo)
			spinner.Stop()
			if err != nil {
				return err
			}
			if result == nil {
				printWarning("%s is on the deny list, skipped", repo)
				return nil
			}

			printResult(result, cfg.Target)

			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				if err := export.WriteJSON([]*analysis.Result{result}, f); err != nil {
					return err
				}
				printNewline()
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVar(&token, "token", "", "GitHub API token (defaults to $GITHUB_TOKEN)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result as JSON to this file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the HTTP response cache")

	return cmd
}

func printResult(r *analysis.Result, target string) {
	printNewline()
	fmt.Println(StyleTitle.Render(r.RepoOwner + "/" + r.RepoName))
	printNewline()

	printKeyValue("created", formatDate(r.CreatedAt))
	printKeyValue("updated", formatDate(r.UpdatedAt))
	printKeyValue("government", fmt.Sprint(r.BuiltByGovernment))
	printKeyValue("prototype", fmt.Sprint(r.IsPrototype))
	printKeyValue("valid", fmt.Sprint(r.IsValid))

	printNewline()
	switch {
	case len(r.DirectDependencies) > 0:
		printInfo("Direct dependencies on %s", StyleHighlight.Render(target))
		for _, d := range r.DirectDependencies {
			printDependency(d)
		}
	case len(r.IndirectDependencies) > 0:
		printInfo("Indirect dependencies on %s", StyleHighlight.Render(target))
		for _, group := range r.IndirectDependencies {
			for _, d := range group {
				printDependency(d)
			}
		}
	default:
		printDetail("no dependency on %s found", target)
	}

	if r.UnknownLockFileType {
		printWarning("no usable lockfile found")
	}
	if r.CouldntAccess {
		printWarning("some repository content could not be accessed")
	}
	for _, e := range r.ErrorsThrown {
		printError("%s", e)
	}
}

func printDependency(d analysis.DependencyRecord) {
	version := d.ActualVersion
	if d.Unresolved {
		version = StyleWarning.Render("unresolved")
	}
	line := fmt.Sprintf("%s %s %s", d.SpecifiedVersion, iconArrow, version)
	if d.Parent != "" {
		line += StyleDim.Render(" via " + d.Parent)
	}
	if d.PackagePath != "" {
		line += StyleDim.Render(" (" + strings.TrimSuffix(d.PackagePath, "/") + ")")
	}
	printDetail("%s", line)
}
