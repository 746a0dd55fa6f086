package git

// ChangeContext is the normalized input handed to an AI provider. It is
// either a *Commit or a *StagedChanges; the set is closed.
type ChangeContext interface {
	changeContext()
}

// Commit is a ChangeContext describing a single existing commit.
type Commit struct {
	FullHash    string
	Message     string
	Diff        string
	AuthorName  string
	AuthorEmail string
	// Date is formatted as YYYY-MM-DD HH:MM:SS.
	Date string
}

// StagedChanges is a ChangeContext describing the staged index. Staged
// changes carry no commit metadata yet.
type StagedChanges struct {
	Diff string
}

func (*Commit) changeContext()        {}
func (*StagedChanges) changeContext() {}

// ShortHash returns the first 7 characters of the full hash.
func (c *Commit) ShortHash() string {
	if len(c.FullHash) <= 7 {
		return c.FullHash
	}
	return c.FullHash[:7]
}

// DiffOf returns the diff carried by any ChangeContext, or "" for nil.
func DiffOf(change ChangeContext) string {
	switch c := change.(type) {
	case *Commit:
		if c == nil {
			return ""
		}
		return c.Diff
	case *StagedChanges:
		if c == nil {
			return ""
		}
		return c.Diff
	default:
		return ""
	}
}
