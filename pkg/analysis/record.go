// Package analysis orchestrates the per-repository dependency audit:
// scanning manifests, classifying prototypes, resolving the target
// library's version through lockfiles, and batching results over a
// candidate repository list.
package analysis

import (
	"context"
	"time"
)

// RepoRef identifies a candidate repository.
type RepoRef struct {
	Owner string `json:"owner" toml:"owner"`
	Name  string `json:"name" toml:"name"`
}

// String returns the owner/name form.
func (r RepoRef) String() string { return r.Owner + "/" + r.Name }

// Metadata is the repository metadata the orchestrator needs from the
// hosting API.
type Metadata struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DefaultBranch string
}

// Client is the hosting-API surface the orchestrator consumes. The
// GitHub implementation lives in pkg/integrations/github; tests supply
// fakes.
type Client interface {
	// Metadata returns repository creation/update timestamps and the
	// default branch name.
	Metadata(ctx context.Context, owner, name string) (*Metadata, error)
	// HeadCommit returns the SHA of the latest commit on ref.
	HeadCommit(ctx context.Context, owner, name, ref string) (string, error)
	// Tree returns the recursive file listing at the given commit.
	Tree(ctx context.Context, owner, name, commitSHA string) ([]string, error)
	// RawFile returns raw file content by tree path.
	RawFile(ctx context.Context, owner, name, path string) ([]byte, error)
}

// DependencyRecord is one declared or resolved occurrence of the target
// package.
//
// Invariant: when SpecifiedVersion carries a range operator (^ ~ *),
// either ActualVersion holds a concrete version or Unresolved is set;
// a range string is never passed off as a resolved version.
type DependencyRecord struct {
	// PackagePath is the manifest or lockfile the occurrence was found via.
	PackagePath string `json:"packagePath"`
	// SpecifiedVersion is the declared version or range, verbatim.
	SpecifiedVersion string `json:"specifiedVersion"`
	// ActualVersion is the concrete version after disambiguation.
	ActualVersion string `json:"actualVersion,omitempty"`
	// Parent names the intermediate package that pulled the target in,
	// for indirect occurrences.
	Parent string `json:"parent,omitempty"`
	// Unresolved marks a range that no lockfile could disambiguate.
	Unresolved bool `json:"unresolved,omitempty"`
}

// Result is the per-repository output record.
//
// It is assembled exclusively by the Analyzer: each stage returns values
// that the Analyzer merges, rather than mutating a shared accumulator.
type Result struct {
	RepoOwner         string    `json:"repoOwner"`
	RepoName          string    `json:"repoName"`
	BuiltByGovernment bool      `json:"builtByGovernment"`
	IsPrototype       bool      `json:"isPrototype"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`

	// DirectDependencies holds declarations found in manifests. When it
	// is non-empty, IndirectDependencies is always empty for the same
	// repository, and vice versa.
	DirectDependencies []DependencyRecord `json:"directDependencies"`
	// IndirectDependencies holds one inner slice per lockfile that
	// contributed transitive findings.
	IndirectDependencies [][]DependencyRecord `json:"indirectDependencies"`

	ErrorsThrown        []string `json:"errorsThrown"`
	UnknownLockFileType bool     `json:"unknownLockFileType"`
	CouldntAccess       bool     `json:"couldntAccess"`
	// IsValid is derived at finalization: true when no errors were
	// recorded. A missing lockfile alone does not invalidate a result.
	IsValid bool `json:"isValid"`
}

// OwnerInfo describes a known service owner from the static registry.
type OwnerInfo struct {
	Government   bool   `toml:"government" json:"government"`
	Organisation string `toml:"organisation" json:"organisation,omitempty"`
}
