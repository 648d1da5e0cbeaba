package repowatch

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// renderStatusPage builds a Markdown summary of msg and renders it to HTML
// with goldmark — the teacher's own library for turning generated text into
// the live page's body, here repurposed to render a status digest instead
// of a repository's README.
func renderStatusPage(msg *StatusMessage) ([]byte, error) {
	var md bytes.Buffer

	fmt.Fprintf(&md, "# Repository status\n\n")
	if msg.Current != "" {
		fmt.Fprintf(&md, "Current branch: **%s**\n\n", msg.Current)
	} else {
		fmt.Fprintf(&md, "HEAD is detached\n\n")
	}

	writeBucket(&md, "Untracked", msg.Status.Untracked)
	writeBucket(&md, "Modified", msg.Status.Modified)
	writeBucket(&md, "Deleted", msg.Status.Deleted)
	writeBucket(&md, "Added (staged)", msg.Status.Added)
	writeBucket(&md, "Staged", msg.Status.Staged)
	writeBucket(&md, "Staged for deletion", msg.Status.StagedDelete)

	fmt.Fprintf(&md, "## Branches\n\n")
	for _, b := range msg.Branches {
		if b == msg.Current {
			fmt.Fprintf(&md, "- **%s**\n", b)
		} else {
			fmt.Fprintf(&md, "- %s\n", b)
		}
	}

	if len(msg.Tags) > 0 {
		fmt.Fprintf(&md, "\n## Tags\n\n")
		for _, t := range msg.Tags {
			fmt.Fprintf(&md, "- %s\n", t)
		}
	}

	var html bytes.Buffer
	html.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>nag status</title>" +
		"<script>const ws = new WebSocket(`ws://${location.host}/ws`); ws.onmessage = () => location.reload();</script>" +
		"</head><body>\n")
	if err := goldmark.Convert(md.Bytes(), &html); err != nil {
		return nil, fmt.Errorf("renderStatusPage: %w", err)
	}
	html.WriteString("\n</body></html>")

	return html.Bytes(), nil
}

func writeBucket(md *bytes.Buffer, title string, paths []string) {
	if len(paths) == 0 {
		return
	}
	fmt.Fprintf(md, "## %s\n\n", title)
	for _, p := range paths {
		fmt.Fprintf(md, "- `%s`\n", p)
	}
	md.WriteByte('\n')
}
