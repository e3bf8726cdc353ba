package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"librarian/internal/errs"
)

var (
	flagExtReposRoot string
	flagExtVerify    bool
)

var externalReposCmd = &cobra.Command{
	Use:   "external-repos",
	Short: "Manage the pack of external repos used by the self-index gates",
}

var externalReposSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Clone or verify repos from <workspace>/external-repos.json",
	Long: `Reads a manifest of {name, remote, commit} entries from
<workspace>/external-repos.json, clones any repo missing from
--repos-root, and confirms each one's HEAD with git rev-parse. With
--verify, a HEAD that doesn't match the manifest commit is an error
instead of a silent pass-through (spec §4.6 "real, small repos per
supported language").`,
	RunE: runExternalReposSync,
}

func init() {
	externalReposSyncCmd.Flags().StringVar(&flagExtReposRoot, "repos-root", "", "directory to clone repos into (default: <workspace>/.librarian/external-repos)")
	externalReposSyncCmd.Flags().BoolVar(&flagExtVerify, "verify", false, "fail if a repo's HEAD doesn't match its manifest commit")
}

type repoManifest struct {
	Repos []repoEntry `json:"repos"`
}

type repoEntry struct {
	Name   string `json:"name"`
	Remote string `json:"remote"`
	Commit string `json:"commit"`
}

type repoSyncResult struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Cloned   bool   `json:"cloned"`
	Head     string `json:"head"`
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

func runExternalReposSync(cmd *cobra.Command, args []string) error {
	if err := checkOutRequiresJSON(); err != nil {
		return err
	}
	e, err := resolveEnv()
	if err != nil {
		return err
	}

	root := flagExtReposRoot
	if root == "" {
		root = filepath.Join(e.librarianDir, "external-repos")
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}

	manifest, err := loadRepoManifest(filepath.Join(e.workspace, "external-repos.json"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx(cmd), 10*time.Minute)
	defer cancel()

	results := make([]repoSyncResult, 0, len(manifest.Repos))
	var firstErr error
	for _, repo := range manifest.Repos {
		res := syncRepo(ctx, root, repo)
		if res.Error != "" && firstErr == nil {
			firstErr = errs.New(errs.InvalidArgument, res.Error)
		}
		results = append(results, res)
	}

	if flagJSON {
		if jerr := writeJSON(results); jerr != nil {
			return jerr
		}
	} else {
		for _, res := range results {
			status := "ok"
			if res.Error != "" {
				status = "FAIL: " + sanitizeOut(res.Error)
			}
			fmt.Printf("%-20s %s  head=%s  %s\n", res.Name, res.Path, res.Head, status)
		}
	}

	if flagExtVerify {
		return firstErr
	}
	return nil
}

func loadRepoManifest(path string) (repoManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return repoManifest{}, errs.Wrap(errs.InvalidArgument, err, "failed to read external-repos manifest")
	}
	var manifest repoManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return repoManifest{}, errs.Wrap(errs.InvalidArgument, err, "failed to parse external-repos manifest")
	}
	return manifest, nil
}

func syncRepo(ctx context.Context, root string, repo repoEntry) repoSyncResult {
	dest := filepath.Join(root, repo.Name)
	res := repoSyncResult{Name: repo.Name, Path: dest}

	if _, err := os.Stat(dest); os.IsNotExist(err) {
		if err := os.MkdirAll(root, 0o755); err != nil {
			res.Error = err.Error()
			return res
		}
		if err := gitCloneRepo(ctx, repo.Remote, dest); err != nil {
			res.Error = err.Error()
			return res
		}
		res.Cloned = true
	}

	head, err := gitRevParseHead(ctx, dest)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Head = head
	res.Verified = repo.Commit == "" || head == repo.Commit
	if !res.Verified {
		res.Error = fmt.Sprintf("HEAD %s does not match manifest commit %s", head, repo.Commit)
	}
	return res
}

func gitCloneRepo(ctx context.Context, remote, dest string) error {
	out, err := exec.CommandContext(ctx, "git", "clone", remote, dest).CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone %s: %w: %s", remote, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func gitRevParseHead(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD in %s: %w", dir, err)
	}
	return strings.TrimSpace(string(out)), nil
}
