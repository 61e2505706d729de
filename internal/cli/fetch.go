package cli

import (
	"context"

	"github.com/frontscan/frontscan/pkg/analysis"
	"github.com/frontscan/frontscan/pkg/integrations/github"
)

// fetcher adapts the GitHub API client to the analysis client interface.
type fetcher struct {
	c *github.Client
}

func (f fetcher) Metadata(ctx context.Context, owner, name string) (*analysis.Metadata, error) {
	meta, err := f.c.Metadata(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return &analysis.Metadata{
		CreatedAt:     meta.CreatedAt,
		UpdatedAt:     meta.UpdatedAt,
		DefaultBranch: meta.DefaultBranch,
	}, nil
}

func (f fetcher) HeadCommit(ctx context.Context, owner, name, ref string) (string, error) {
	return f.c.HeadCommit(ctx, owner, name, ref)
}

func (f fetcher) Tree(ctx context.Context, owner, name, commitSHA string) ([]string, error) {
	return f.c.Tree(ctx, owner, name, commitSHA)
}

func (f fetcher) RawFile(ctx context.Context, owner, name, path string) ([]byte, error) {
	return f.c.RawFile(ctx, owner, name, path)
}
