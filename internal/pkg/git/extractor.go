package git

import (
	"context"
	"fmt"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
)

// Extractor turns a commit reference or the staged index into a validated
// ChangeContext. Query errors from the Client are returned unchanged.
type Extractor struct {
	client Client
}

// NewExtractor creates an Extractor backed by client.
func NewExtractor(client Client) *Extractor {
	return &Extractor{client: client}
}

// FromCommit builds a Commit context for sha.
//
// The reference is validated before anything else is queried: if it does not
// resolve to a commit object the result is an InvalidCommit error. A commit
// whose diff against its parent is empty yields an EmptyDiff error.
func (e *Extractor) FromCommit(ctx context.Context, sha string) (*Commit, error) {
	objectType, err := e.client.ObjectType(ctx, sha)
	if err != nil {
		return nil, err
	}
	if objectType != "commit" {
		return nil, apperrors.NewInvalidCommitError(sha).WithContext("object_type", objectType)
	}

	fullHash, err := e.client.FullHash(ctx, sha)
	if err != nil {
		return nil, err
	}

	diff, err := e.client.CommitDiff(ctx, sha)
	if err != nil {
		return nil, err
	}
	if diff == "" {
		return nil, e.emptyCommitDiff(ctx, sha)
	}

	message, err := e.client.CommitMessage(ctx, sha)
	if err != nil {
		return nil, err
	}

	authorName, err := e.client.AuthorName(ctx, sha)
	if err != nil {
		return nil, err
	}

	authorEmail, err := e.client.AuthorEmail(ctx, sha)
	if err != nil {
		return nil, err
	}

	date, err := e.client.CommitDate(ctx, sha)
	if err != nil {
		return nil, err
	}

	return &Commit{
		FullHash:    fullHash,
		Message:     message,
		Diff:        diff,
		AuthorName:  authorName,
		AuthorEmail: authorEmail,
		Date:        date,
	}, nil
}

// emptyCommitDiff builds the EmptyDiff error for sha. git diff-tree prints no
// patch for merge commits, so merges get a hint on how to see their changes.
func (e *Extractor) emptyCommitDiff(ctx context.Context, sha string) error {
	emptyErr := apperrors.NewEmptyDiffError(sha)

	parents, err := e.client.ParentCount(ctx, sha)
	if err != nil || parents < 2 {
		return emptyErr
	}
	return emptyErr.
		WithContext("parents", parents).
		WithSuggestion(fmt.Sprintf("%s is a merge commit, which has no diff of its own. Explain the merged commits instead, e.g. 'lumen explain %s^2'", sha, sha))
}

// FromStaged builds a StagedChanges context from the index. An empty staged
// diff yields an EmptyDiff error.
func (e *Extractor) FromStaged(ctx context.Context) (*StagedChanges, error) {
	diff, err := e.client.StagedDiff(ctx)
	if err != nil {
		return nil, err
	}
	if diff == "" {
		return nil, apperrors.NewEmptyDiffError("")
	}
	return &StagedChanges{Diff: diff}, nil
}
