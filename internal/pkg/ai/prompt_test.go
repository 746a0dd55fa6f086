package ai

import (
	"strings"
	"testing"

	"github.com/lumen-cli/lumen/internal/pkg/git"
)

func fixtureCommit() *git.Commit {
	return &git.Commit{
		FullHash:    "3f2a9c1d4e5b6a7f8091a2b3c4d5e6f708192a3b",
		Message:     "fix(parser): handle empty input\n\nReturn early instead of panicking.",
		Diff:        "diff --git a/parser.go b/parser.go\n--- a/parser.go\n+++ b/parser.go\n@@ -1,3 +1,6 @@\n+if len(in) == 0 {\n+\treturn nil\n+}\n",
		AuthorName:  "Jane Doe",
		AuthorEmail: "jane@example.com",
		Date:        "2024-03-05 14:07:09",
	}
}

func TestRenderUserPrompt_Commit(t *testing.T) {
	commit := fixtureCommit()

	prompt, err := BuildUserPrompt(commit)
	if err != nil {
		t.Fatalf("BuildUserPrompt() error = %v", err)
	}

	expected := "Please analyze this git commit and provide a summary.\n\nCommit Message:\n" +
		commit.Message + "\n\nDiff Content:\n" + commit.Diff
	if prompt != expected {
		t.Errorf("BuildUserPrompt() =\n%q\nwant\n%q", prompt, expected)
	}
}

func TestRenderUserPrompt_MessageBeforeDiff(t *testing.T) {
	commit := fixtureCommit()

	prompt, err := BuildUserPrompt(commit)
	if err != nil {
		t.Fatalf("BuildUserPrompt() error = %v", err)
	}

	msgIdx := strings.Index(prompt, commit.Message)
	diffIdx := strings.Index(prompt, commit.Diff)
	if msgIdx < 0 || diffIdx < 0 {
		t.Fatalf("prompt is missing message or diff:\n%s", prompt)
	}
	if msgIdx > diffIdx {
		t.Error("commit message should precede the diff")
	}
}

func TestRenderUserPrompt_Staged(t *testing.T) {
	staged := &git.StagedChanges{Diff: "+new line\n"}

	prompt, err := BuildUserPrompt(staged)
	if err != nil {
		t.Fatalf("BuildUserPrompt() error = %v", err)
	}

	if !strings.HasPrefix(prompt, "Please analyze the following staged changes and provide a short, concise title and a detailed summary.") {
		t.Errorf("unexpected staged framing: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Diff Content:\n+new line\n") {
		t.Errorf("staged prompt should end with the diff: %q", prompt)
	}
	if strings.Contains(prompt, "Commit Message") {
		t.Error("staged prompt must not carry a commit message section")
	}
}

func TestRenderUserPrompt_Fallback(t *testing.T) {
	tests := []struct {
		name   string
		change git.ChangeContext
	}{
		{"empty staged diff", &git.StagedChanges{}},
		{"nil staged", (*git.StagedChanges)(nil)},
		{"nil commit", (*git.Commit)(nil)},
		{"nil context", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt, err := BuildUserPrompt(tt.change)
			if err != nil {
				t.Fatalf("BuildUserPrompt() error = %v", err)
			}
			if prompt != EmptyChangePrompt {
				t.Errorf("BuildUserPrompt() = %q, want %q", prompt, EmptyChangePrompt)
			}
		})
	}
}

func TestRenderUserPrompt_NoEscaping(t *testing.T) {
	commit := &git.Commit{
		Message: `use <T> & "quotes" {{.Diff}}`,
		Diff:    "+if a < b && c > d {}\n",
	}

	prompt, err := BuildUserPrompt(commit)
	if err != nil {
		t.Fatalf("BuildUserPrompt() error = %v", err)
	}

	if !strings.Contains(prompt, commit.Message) {
		t.Errorf("message was altered: %q", prompt)
	}
	if !strings.Contains(prompt, commit.Diff) {
		t.Errorf("diff was altered: %q", prompt)
	}
}

func TestGetSystemPrompt(t *testing.T) {
	pt := NewPromptTemplate()
	system := pt.GetSystemPrompt()

	for _, want := range []string{"analyzes git commits", "concise summary", "impact and purpose", "filler"} {
		if !strings.Contains(system, want) {
			t.Errorf("system prompt should mention %q", want)
		}
	}
}
