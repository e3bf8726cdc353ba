package bootstrap

import (
	"context"
	"math/rand"
	"path/filepath"

	"librarian/internal/hashutil"
	"librarian/internal/store"
	"librarian/internal/workspace"
)

// DriftReport is the result of isBootstrapRequired (spec §4.3).
type DriftReport struct {
	Required          bool
	Reason            string
	IsSelfReferential bool
}

// spotCheckSample bounds how many files IsBootstrapRequired re-hashes on
// disk per call; re-hashing every file on every query would defeat the
// point of a cached store.
const spotCheckSample = 25

// IsBootstrapRequired implements the drift check (spec §4.3): fails closed,
// requiring re-bootstrap when the store is absent, schema-incompatible,
// behind HEAD, checksum-stale, or functionless over a non-empty workspace.
func IsBootstrapRequired(ctx context.Context, workspace string, st *store.Store, cfg ScannerConfig, vcs VersionControlProbe) (DriftReport, error) {
	selfRef := isSelfReferentialSafe(workspace)

	if st == nil {
		return DriftReport{
			Required:          true,
			Reason:            "no knowledge store present; run `librarian bootstrap` to build one",
			IsSelfReferential: selfRef,
		}, nil
	}

	// store.Open already rejects a schema-incompatible store before handing
	// back a usable *Store, so a GetVersion failure here means the metadata
	// row itself is missing or corrupt — treat it the same as "absent".
	version, err := st.GetVersion()
	if err != nil {
		return DriftReport{
			Required:          true,
			Reason:            "store version fingerprint is unreadable; run `librarian bootstrap --force` to rebuild",
			IsSelfReferential: selfRef,
		}, nil
	}

	if vcs == nil {
		vcs = NoopProbe{}
	}
	if vcs.IsRepo(ctx, workspace) {
		head, herr := vcs.HeadCommit(ctx, workspace)
		if herr == nil && head != "" && version.HeadCommit != "" && head != version.HeadCommit {
			return DriftReport{
				Required: true,
				Reason: "recorded git HEAD (" + version.HeadCommit + ") differs from current git HEAD (" + head +
					"); the index reflects a different commit. Run `librarian bootstrap --force` to re-index.",
				IsSelfReferential: selfRef,
			}, nil
		}
	}

	stats, err := st.GetStats()
	if err != nil {
		return DriftReport{}, err
	}

	rels, err := Discover(workspace, cfg)
	if err != nil {
		return DriftReport{}, err
	}
	if len(rels) > 0 && stats.TotalFunctions == 0 {
		return DriftReport{
			Required:          true,
			Reason:            "source files exist but no functions are indexed; run `librarian bootstrap --force` to rebuild",
			IsSelfReferential: selfRef,
		}, nil
	}

	if stale, path := spotCheckChecksums(workspace, rels, st); stale {
		return DriftReport{
			Required:          true,
			Reason:            "on-disk content for " + path + " no longer matches the indexed checksum; run `librarian bootstrap --force` to re-index",
			IsSelfReferential: selfRef,
		}, nil
	}

	return DriftReport{Required: false, IsSelfReferential: selfRef}, nil
}

func spotCheckChecksums(workspace string, rels []string, st *store.Store) (bool, string) {
	if len(rels) == 0 {
		return false, ""
	}
	sample := rels
	if len(rels) > spotCheckSample {
		sample = pickSample(rels, spotCheckSample)
	}
	for _, rel := range sample {
		f, err := st.GetFileByPath(rel)
		if err != nil || f == nil {
			continue
		}
		abs := filepath.Join(workspace, rel)
		actual, err := hashutil.ChecksumFile(abs)
		if err != nil {
			continue
		}
		if actual != f.Checksum {
			return true, rel
		}
	}
	return false, ""
}

func pickSample(rels []string, n int) []string {
	idx := rand.Perm(len(rels))[:n]
	out := make([]string, 0, n)
	for _, i := range idx {
		out = append(out, rels[i])
	}
	return out
}

func isSelfReferentialSafe(root string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return workspace.IsSelfReferential(root)
}
