// Package git provides Git operations for lumen.
package git

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/lumen-cli/lumen/internal/pkg/errors"
)

// CommitDateFormat is the git date format used for commit dates (YYYY-MM-DD HH:MM:SS).
const CommitDateFormat = "format:%Y-%m-%d %H:%M:%S"

// Client is the version-control query interface. Every method is a single
// git invocation returning its raw output.
type Client interface {
	// ObjectType returns the object type ref resolves to ("commit", "tree",
	// "blob", "tag"), or "" when ref names no object.
	ObjectType(ctx context.Context, ref string) (string, error)
	FullHash(ctx context.Context, ref string) (string, error)
	CommitDiff(ctx context.Context, ref string) (string, error)
	StagedDiff(ctx context.Context) (string, error)
	CommitMessage(ctx context.Context, ref string) (string, error)
	AuthorName(ctx context.Context, ref string) (string, error)
	AuthorEmail(ctx context.Context, ref string) (string, error)
	CommitDate(ctx context.Context, ref string) (string, error)
	ParentCount(ctx context.Context, ref string) (int, error)
}

// DefaultClient implements the Client interface using exec.CommandContext.
type DefaultClient struct {
	// workDir is the working directory for git commands.
	// If empty, uses the current directory.
	workDir string
}

// NewClient creates a new DefaultClient.
func NewClient() *DefaultClient {
	return &DefaultClient{}
}

// NewClientWithWorkDir creates a new DefaultClient with a specific working directory.
func NewClientWithWorkDir(workDir string) *DefaultClient {
	return &DefaultClient{workDir: workDir}
}

// ObjectType asks git for the type of the object ref resolves to.
// It uses cat-file --batch-check so that a missing object is reported on
// stdout instead of as a failed invocation.
func (c *DefaultClient) ObjectType(ctx context.Context, ref string) (string, error) {
	if ref == "" || strings.ContainsAny(ref, "\r\n") {
		return "", nil
	}

	out, err := c.run(ctx, strings.NewReader(ref+"\n"), "cat-file", "--batch-check=%(objecttype)")
	if err != nil {
		return "", err
	}

	line := trimLineTerminator(out)
	// Unresolvable names are echoed back as "<ref> missing" or "<ref> ambiguous".
	if strings.HasSuffix(line, " missing") || strings.HasSuffix(line, " ambiguous") {
		return "", nil
	}
	return line, nil
}

// FullHash resolves ref to its unabbreviated object name.
func (c *DefaultClient) FullHash(ctx context.Context, ref string) (string, error) {
	out, err := c.run(ctx, nil, "rev-parse", "--verify", ref)
	if err != nil {
		return "", err
	}
	return trimLineTerminator(out), nil
}

// CommitDiff returns the patch of ref against its parent, with binary
// markers, no color and a compact summary.
func (c *DefaultClient) CommitDiff(ctx context.Context, ref string) (string, error) {
	return c.run(ctx, nil, "diff-tree", "-p", "--binary", "--no-color", "--compact-summary", "--root", ref)
}

// StagedDiff returns the diff between the index and HEAD.
func (c *DefaultClient) StagedDiff(ctx context.Context) (string, error) {
	return c.run(ctx, nil, "diff", "--staged", "--no-color")
}

// CommitMessage returns the full message of ref with one trailing line
// terminator removed.
func (c *DefaultClient) CommitMessage(ctx context.Context, ref string) (string, error) {
	return c.logField(ctx, ref, "--format=%B")
}

// AuthorName returns the author name of ref.
func (c *DefaultClient) AuthorName(ctx context.Context, ref string) (string, error) {
	return c.logField(ctx, ref, "--format=%an")
}

// AuthorEmail returns the author email of ref.
func (c *DefaultClient) AuthorEmail(ctx context.Context, ref string) (string, error) {
	return c.logField(ctx, ref, "--format=%ae")
}

// CommitDate returns the commit date of ref as YYYY-MM-DD HH:MM:SS.
func (c *DefaultClient) CommitDate(ctx context.Context, ref string) (string, error) {
	return c.logField(ctx, ref, "--format=%cd", "--date="+CommitDateFormat)
}

// ParentCount returns the number of parents of ref; a merge has more than one.
func (c *DefaultClient) ParentCount(ctx context.Context, ref string) (int, error) {
	out, err := c.run(ctx, nil, "rev-list", "--parents", "-n", "1", ref)
	if err != nil {
		return 0, err
	}
	// "<hash> <parent>..."
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, nil
	}
	return len(fields) - 1, nil
}

// logField reads a single formatted field of ref from git log.
func (c *DefaultClient) logField(ctx context.Context, ref string, format ...string) (string, error) {
	args := append([]string{"log"}, format...)
	args = append(args, "-n", "1", ref)

	out, err := c.run(ctx, nil, args...)
	if err != nil {
		return "", err
	}
	return trimLineTerminator(out), nil
}

// run executes git with args and returns its stdout. No deadline is added
// here; callers that want one set it on ctx. A non-zero exit, a cancelled
// ctx or output that is not valid UTF-8 is reported as a git command error
// carrying the captured stderr.
func (c *DefaultClient) run(ctx context.Context, stdin io.Reader, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if c.workDir != "" {
		cmd.Dir = c.workDir
	}
	if stdin != nil {
		cmd.Stdin = stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	apperrors.LogGitCommand(args, stdout.Len(), time.Since(start), err)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", apperrors.NewGitError(fmt.Errorf("git %s interrupted: %w", args[0], ctxErr), stderr.String())
		}
		return "", apperrors.NewGitError(err, stderr.String()).WithContext("command", "git "+strings.Join(args, " "))
	}

	if !utf8.Valid(stdout.Bytes()) {
		return "", apperrors.NewGitError(fmt.Errorf("git %s produced output that is not valid UTF-8", args[0]), "")
	}

	return stdout.String(), nil
}

// trimLineTerminator removes exactly one trailing "\n" or "\r\n".
func trimLineTerminator(s string) string {
	if strings.HasSuffix(s, "\r\n") {
		return s[:len(s)-2]
	}
	return strings.TrimSuffix(s, "\n")
}
