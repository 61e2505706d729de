package analysis

import (
	"context"
	"path"

	"github.com/charmbracelet/log"

	apperrors "github.com/frontscan/frontscan/pkg/errors"
	"github.com/frontscan/frontscan/pkg/lockfile"
	"github.com/frontscan/frontscan/pkg/manifest"
)

// lockfileNames lists colocated lockfile candidates in priority order:
// package-lock.json is preferred over yarn.lock when both exist.
var lockfileNames = []string{"package-lock.json", "yarn.lock"}

// Options configures an Analyzer. Deny list and owner registry are
// explicit inputs rather than module-level tables so the core stays
// testable without filesystem side effects.
type Options struct {
	// Target is the package whose adoption is being tracked.
	Target string
	// PrototypeMarker is the tree path identifying legacy prototype
	// instances. Defaults to DefaultPrototypeMarker.
	PrototypeMarker string
	// PrototypePackage is the prototype tooling package name.
	// Defaults to DefaultPrototypePackage.
	PrototypePackage string
	// DenyList holds repositories to exclude outright.
	DenyList []RepoRef
	// Owners maps repository owner to service-owner registry info.
	Owners map[string]OwnerInfo
	// Logger receives progress and warning output; nil means the
	// default logger.
	Logger *log.Logger
}

// Analyzer runs the per-repository analysis state machine.
type Analyzer struct {
	client Client
	opts   Options
	denied map[RepoRef]struct{}
	logger *log.Logger
}

// New creates an Analyzer over the given hosting-API client.
func New(client Client, opts Options) *Analyzer {
	if opts.PrototypeMarker == "" {
		opts.PrototypeMarker = DefaultPrototypeMarker
	}
	if opts.PrototypePackage == "" {
		opts.PrototypePackage = DefaultPrototypePackage
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	denied := make(map[RepoRef]struct{}, len(opts.DenyList))
	for _, r := range opts.DenyList {
		denied[r] = struct{}{}
	}
	return &Analyzer{client: client, opts: opts, denied: denied, logger: logger}
}

// Denied reports whether repo is on the deny list.
func (a *Analyzer) Denied(repo RepoRef) bool {
	_, ok := a.denied[repo]
	return ok
}

// repoState carries the one piece of memoized data within a single
// repository analysis: the root lockfile's resolved target version,
// which disambiguation falls back to repeatedly.
type repoState struct {
	rootDone    bool
	rootVersion string
	rootOK      bool
}

// Analyze runs the full analysis for one repository and returns its
// Result. Deny-listed repositories return (nil, nil) without any network
// call. Every recoverable failure is folded into the Result; a non-nil
// error indicates a programmer error and aborts the run.
func (a *Analyzer) Analyze(ctx context.Context, repo RepoRef) (*Result, error) {
	if a.Denied(repo) {
		a.logger.Debug("skipping deny-listed repository", "repo", repo.String())
		return nil, nil
	}

	res := &Result{
		RepoOwner:            repo.Owner,
		RepoName:             repo.Name,
		BuiltByGovernment:    a.opts.Owners[repo.Owner].Government,
		DirectDependencies:   []DependencyRecord{},
		IndirectDependencies: [][]DependencyRecord{},
		ErrorsThrown:         []string{},
	}

	md, err := a.client.Metadata(ctx, repo.Owner, repo.Name)
	if err != nil {
		return a.inaccessible(res, apperrors.Wrap(apperrors.ErrCodeMetadataUnavailable, err, "%s", repo)), nil
	}
	res.CreatedAt = md.CreatedAt
	res.UpdatedAt = md.UpdatedAt

	sha, err := a.client.HeadCommit(ctx, repo.Owner, repo.Name, md.DefaultBranch)
	if err != nil {
		return a.inaccessible(res, apperrors.Wrap(apperrors.ErrCodeNoCommits, err, "%s@%s", repo, md.DefaultBranch)), nil
	}

	paths, err := a.client.Tree(ctx, repo.Owner, repo.Name, sha)
	if err != nil || len(paths) == 0 {
		return a.inaccessible(res, apperrors.Wrap(apperrors.ErrCodeTreeUnavailable, err, "%s@%s", repo, sha)), nil
	}
	tree := newTreeIndex(paths)

	manifests := a.scanManifests(ctx, repo, paths, res)
	res.IsPrototype = isPrototype(tree, manifests, a.opts.PrototypeMarker, a.opts.PrototypePackage)

	state := &repoState{}
	decls := manifest.FindDirect(manifests, a.opts.Target)
	if len(decls) > 0 {
		for _, decl := range decls {
			res.DirectDependencies = append(res.DirectDependencies,
				a.resolveDeclaration(ctx, repo, tree, state, decl, res))
		}
	} else {
		a.findIndirect(ctx, repo, tree, manifests, res)
	}

	res.IsValid = len(res.ErrorsThrown) == 0
	return res, nil
}

// inaccessible finalizes a result after a fatal-to-this-repository
// access failure.
func (a *Analyzer) inaccessible(res *Result, err *apperrors.Error) *Result {
	a.logger.Warn("repository inaccessible", "repo", res.RepoOwner+"/"+res.RepoName, "err", err)
	res.ErrorsThrown = append(res.ErrorsThrown, err.Error())
	res.CouldntAccess = true
	res.IsValid = false
	return res
}

// scanManifests fetches and parses every package.json in the tree.
// Unparseable manifests are logged and skipped; fetch failures are
// recorded on the result but do not abort sibling processing.
func (a *Analyzer) scanManifests(ctx context.Context, repo RepoRef, paths []string, res *Result) []*manifest.Object {
	var objects []*manifest.Object
	for _, p := range paths {
		if !manifest.IsManifestPath(p) {
			continue
		}
		raw, err := a.client.RawFile(ctx, repo.Owner, repo.Name, p)
		if err != nil {
			werr := apperrors.Wrap(apperrors.ErrCodeContentUnavailable, err, "%s:%s", repo, p)
			res.ErrorsThrown = append(res.ErrorsThrown, werr.Error())
			res.CouldntAccess = true
			continue
		}
		obj, err := manifest.Parse(p, raw)
		if err != nil {
			a.logger.Warn("skipping unparseable manifest", "repo", repo.String(), "path", p, "err", err)
			continue
		}
		objects = append(objects, obj)
	}
	return objects
}

// resolveDeclaration turns one direct declaration into a DependencyRecord,
// disambiguating range operators via a colocated lockfile with a single
// root-lockfile fallback. A range no lockfile can disambiguate yields an
// unset ActualVersion and an explicit Unresolved marker, never the raw
// range masquerading as a resolved version.
func (a *Analyzer) resolveDeclaration(ctx context.Context, repo RepoRef, tree treeIndex, state *repoState, decl manifest.Declaration, res *Result) DependencyRecord {
	rec := DependencyRecord{PackagePath: decl.Path, SpecifiedVersion: decl.Range}

	if !manifest.HasRangeOperator(decl.Range) {
		rec.ActualVersion = decl.Range
		return rec
	}

	dir := manifestDir(decl.Path)
	if dir != "" {
		if v, ok := a.lockfileVersion(ctx, repo, tree, dir, res); ok {
			rec.ActualVersion = v
			return rec
		}
	}
	// Root fallback, computed once per repository. Exactly one level:
	// intermediate parent directories are never searched.
	if v, ok := a.rootVersion(ctx, repo, tree, state, res); ok {
		rec.ActualVersion = v
		return rec
	}

	rec.Unresolved = true
	return rec
}

// rootVersion resolves the target's version from the repository-root
// lockfile, memoizing the answer for reuse across declarations.
func (a *Analyzer) rootVersion(ctx context.Context, repo RepoRef, tree treeIndex, state *repoState, res *Result) (string, bool) {
	if !state.rootDone {
		state.rootDone = true
		state.rootVersion, state.rootOK = a.lockfileVersion(ctx, repo, tree, "", res)
	}
	return state.rootVersion, state.rootOK
}

// lockfileVersion resolves the target's version from the lockfile in
// dir, trying package-lock.json before yarn.lock. Parse failures mark
// the result's UnknownLockFileType and are otherwise non-fatal.
func (a *Analyzer) lockfileVersion(ctx context.Context, repo RepoRef, tree treeIndex, dir string, res *Result) (string, bool) {
	for _, name := range lockfileNames {
		p := joinTreePath(dir, name)
		if !tree.has(p) {
			continue
		}
		model, ok := a.fetchLockfile(ctx, repo, p, res)
		if !ok {
			continue
		}
		if v, ok := model.ResolveDirect(a.opts.Target); ok {
			return v, true
		}
	}
	return "", false
}

// fetchLockfile retrieves and parses the lockfile at path p.
func (a *Analyzer) fetchLockfile(ctx context.Context, repo RepoRef, p string, res *Result) (*lockfile.Model, bool) {
	kind, ok := lockfile.DetectKind(path.Base(p))
	if !ok {
		res.UnknownLockFileType = true
		return nil, false
	}
	raw, err := a.client.RawFile(ctx, repo.Owner, repo.Name, p)
	if err != nil {
		werr := apperrors.Wrap(apperrors.ErrCodeContentUnavailable, err, "%s:%s", repo, p)
		res.ErrorsThrown = append(res.ErrorsThrown, werr.Error())
		res.CouldntAccess = true
		return nil, false
	}
	model, err := lockfile.Parse(raw, kind)
	if err != nil {
		a.logger.Warn("unparseable lockfile", "repo", repo.String(), "path", p, "err", err)
		res.UnknownLockFileType = true
		return nil, false
	}
	return model, true
}

// findIndirect searches every manifest-adjacent lockfile for entries
// that pull the target in transitively. One inner record slice is
// appended per lockfile that contributed findings.
func (a *Analyzer) findIndirect(ctx context.Context, repo RepoRef, tree treeIndex, manifests []*manifest.Object, res *Result) {
	seen := make(map[string]struct{})
	located := false

	for _, m := range manifests {
		p, ok := locateLockfile(tree, m.Dir())
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}

		model, ok := a.fetchLockfile(ctx, repo, p, res)
		if !ok {
			continue
		}
		located = true

		refs := model.FindIndirect(a.opts.Target)
		if len(refs) == 0 {
			continue
		}
		records := make([]DependencyRecord, 0, len(refs))
		for _, ref := range refs {
			records = append(records, DependencyRecord{
				PackagePath:      p,
				SpecifiedVersion: ref.Specified,
				ActualVersion:    ref.Resolved,
				Parent:           ref.Parent,
				Unresolved:       ref.Resolved == "" && manifest.HasRangeOperator(ref.Specified),
			})
		}
		res.IndirectDependencies = append(res.IndirectDependencies, records)
	}

	// No usable lockfile anywhere is an expected state for some
	// repositories, recorded rather than raised.
	if !located {
		res.UnknownLockFileType = true
	}
}

// locateLockfile finds the highest-priority lockfile colocated with a
// manifest directory.
func locateLockfile(tree treeIndex, dir string) (string, bool) {
	for _, name := range lockfileNames {
		p := joinTreePath(dir, name)
		if tree.has(p) {
			return p, true
		}
	}
	return "", false
}

// manifestDir returns the manifest's directory, "" for the root.
func manifestDir(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// joinTreePath joins a tree directory ("" for root) with a filename.
func joinTreePath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
