package format

import (
	"fmt"
	"strings"

	"github.com/leowzz/docsmith/internal/models"
)

const separator = "----------------------------------------"

// Normalize collapses runs of whitespace within lines to single spaces and
// runs of blank lines to at most one. It is idempotent: normalizing already
// normalized text returns it unchanged.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	pendingBlank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			pendingBlank = true
			continue
		}
		if pendingBlank && len(out) > 0 {
			out = append(out, "")
		}
		pendingBlank = false
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Output post-processes extracted text for presentation. The text is
// normalized, then matched against the ordered document-type table; the
// first type whose signal phrase appears wins. Unrecognized documents get
// the default filename-header template.
func Output(text, filename string, kind models.ItemKind) string {
	clean := Normalize(text)

	if dt := detect(strings.ToLower(clean)); dt != nil {
		return dt.render(clean)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "File: %s [%s]\n", filename, kind)
	b.WriteString(separator)
	b.WriteString("\n")
	b.WriteString(clean)
	b.WriteString("\n")
	b.WriteString(separator)
	return b.String()
}

func (dt docType) render(clean string) string {
	var b strings.Builder
	b.WriteString(separator)
	b.WriteString("\n")
	b.WriteString(dt.title)
	b.WriteString("\n")
	b.WriteString(separator)
	b.WriteString("\n")

	// Only fields whose pattern matched are emitted; absent fields are
	// silently omitted.
	for _, f := range dt.fields {
		m := f.pattern.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		fmt.Fprintf(&b, "%-14s: %s\n", f.label, strings.TrimSpace(m[1]))
	}

	b.WriteString("\n--- Full Text ---\n")
	b.WriteString(clean)
	return b.String()
}
