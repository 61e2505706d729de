package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frontscan/frontscan/pkg/analysis"
	"github.com/frontscan/frontscan/pkg/config"
	"github.com/frontscan/frontscan/pkg/export"
	"github.com/frontscan/frontscan/pkg/integrations/github"
	"github.com/frontscan/frontscan/pkg/store"
)

// crawlFlags holds options for the crawl command.
type crawlFlags struct {
	configPath string
	reposPath  string
	token      string
	outputDir  string
	batchSize  int
	noCache    bool
}

// crawlCommand creates the crawl command for batch analysis.
func (c *CLI) crawlCommand() *cobra.Command {
	flags := &crawlFlags{}

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Analyze a list of repositories in batch",
		Long: `Analyze every repository named in a list file, flushing results
to disk (and optionally MongoDB) as the run progresses.

The list file contains one owner/repo reference per line. Blank lines
and lines starting with # are ignored.

Examples:
  frontscan crawl --repos repos.txt
  frontscan crawl --repos repos.txt --config frontscan.toml -o results/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCrawl(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVar(&flags.reposPath, "repos", "", "file listing owner/repo references (required)")
	cmd.Flags().StringVar(&flags.token, "token", "", "GitHub API token (defaults to $GITHUB_TOKEN)")
	cmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "output directory (overrides config)")
	cmd.Flags().IntVar(&flags.batchSize, "batch-size", 0, "results per flush (overrides config)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "bypass the HTTP response cache")
	_ = cmd.MarkFlagRequired("repos")

	return cmd
}

func (c *CLI) runCrawl(cmd *cobra.Command, flags *crawlFlags) error {
	ctx := cmd.Context()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.outputDir != "" {
		cfg.Output.Dir = flags.outputDir
	}
	if flags.batchSize > 0 {
		cfg.Batch.Size = flags.batchSize
	}
	c.Logger.Debug("Loaded configuration", "config", cfg)

	repos, err := readRepoList(flags.reposPath)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		return fmt.Errorf("no repositories listed in %s", flags.reposPath)
	}
	printInfo("Crawling %s repositories for %s", StyleHighlight.Render(fmt.Sprint(len(repos))), StyleHighlight.Render(cfg.Target))

	gh, err := c.newGitHubClient(cfg, flags.token, flags.noCache)
	if err != nil {
		return err
	}

	opts := cfg.AnalyzerOptions()
	opts.Logger = c.Logger
	analyzer := analysis.New(fetcher{gh}, opts)

	sink, err := c.newSink(ctx, cfg)
	if err != nil {
		return err
	}

	driver := analysis.NewDriver(analyzer, sink, cfg.Batch.Size, c.Logger)

	prog := newProgress(c.Logger)
	stats, err := driver.Run(ctx, repos)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Processed %d of %d repositories", stats.Processed, stats.Candidates))

	printNewline()
	printKeyValue("candidates", fmt.Sprint(stats.Candidates))
	printKeyValue("processed", fmt.Sprint(stats.Processed))
	printKeyValue("denied", fmt.Sprint(stats.Denied))
	printKeyValue("failed", fmt.Sprint(stats.Failed))

	if rest := driver.Unprocessed(repos); len(rest) > 0 {
		printNewline()
		printWarning("%d repositories not processed", len(rest))
		for _, r := range rest {
			printDetail("%s", r)
		}
	}

	printNewline()
	printSuccess("Results written to %s", cfg.Output.Dir)
	return nil
}

// newSink builds the output sink chain: always the file sink, plus
// MongoDB when configured.
func (c *CLI) newSink(ctx context.Context, cfg *config.Config) (analysis.Sink, error) {
	fileSink, err := export.NewFileSink(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("Created file sink", "dir", cfg.Output.Dir, "run", fileSink.RunID())

	if cfg.Output.MongoURI == "" {
		return fileSink, nil
	}
	mongoSink, err := store.NewMongoSink(ctx, cfg.Output.MongoURI, cfg.Output.MongoDatabase)
	if err != nil {
		return nil, err
	}
	return export.MultiSink{fileSink, mongoSink}, nil
}

// readRepoList parses a file of owner/repo references.
func readRepoList(path string) ([]analysis.RepoRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var repos []analysis.RepoRef
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		owner, name, err := github.ParseRepoRef(line)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}
		repos = append(repos, analysis.RepoRef{Owner: owner, Name: name})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return repos, nil
}
