// Package gitsource keeps a local checkout of a catalog repository.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
)

// Sync clones url into dir if dir does not exist, or pulls the latest
// changes if it does.
func Sync(ctx context.Context, url, dir string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}

	_, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.InfoContext(ctx, "cloning catalog repository", "url", url, "dir", dir)
		if _, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url}); err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("error checking path %s: %w", dir, err)
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open existing repo at %s: %w", dir, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree for repo at %s: %w", dir, err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		log.DebugContext(ctx, "catalog repository already up to date", "dir", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to pull changes for repo at %s: %w", dir, err)
	}
	log.InfoContext(ctx, "catalog repository updated", "dir", dir)
	return nil
}
