package writer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sant0-9/memomate/internal/session"
)

// Notes is a session rendered for revision outside the app.
type Notes struct {
	Title   string
	Records []session.Record
	Topics  []string
	Created time.Time
}

// FromLedger snapshots a ledger. Records keep the ledger's newest-first order.
func FromLedger(title string, ledger *session.Ledger) *Notes {
	return &Notes{
		Title:   title,
		Records: ledger.Queries(),
		Topics:  ledger.Topics(),
		Created: time.Now(),
	}
}

// Markdown renders the notes: topics first, then every exchange. Failed
// exchanges are kept and marked.
func (n *Notes) Markdown() string {
	var b strings.Builder

	title := n.Title
	if title == "" {
		title = "MemoMate revision notes"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "_Exported %s_\n\n", n.Created.Format("2006-01-02 15:04"))

	b.WriteString("## Topics revised\n\n")
	if len(n.Topics) == 0 {
		b.WriteString("None yet.\n")
	}
	for _, t := range n.Topics {
		fmt.Fprintf(&b, "- %s\n", t)
	}

	for _, r := range n.Records {
		fmt.Fprintf(&b, "\n---\n\n### %s\n\n", r.Query)
		if r.Failed {
			b.WriteString("> **Request failed:** ")
			b.WriteString(r.Response)
			b.WriteString("\n")
			continue
		}
		b.WriteString(r.Response)
		b.WriteString("\n")
	}

	return b.String()
}

// DefaultFileName names an export after its creation time.
func DefaultFileName(t time.Time) string {
	return "memomate-notes-" + t.Format("20060102-150405") + ".md"
}

// Save writes the notes as Markdown to path, creating parent directories.
func (n *Notes) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return goerr.Wrap(err, "failed to create export directory", goerr.V("dir", dir))
		}
	}
	if err := os.WriteFile(path, []byte(n.Markdown()), 0644); err != nil {
		return goerr.Wrap(err, "failed to write notes", goerr.V("path", path))
	}
	return nil
}
