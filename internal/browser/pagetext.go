// internal/browser/pagetext.go
package browser

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"golang.org/x/net/html"

	"github.com/wayfind-agent/wayfind/internal/llmutil"
)

// InteractiveElement is one actionable element the annotation script found
// and stamped with a data-wfid attribute.
type InteractiveElement struct {
	WFID        int    `json:"wfid"`
	Tag         string `json:"tag"`
	Role        string `json:"role,omitempty"`
	Text        string `json:"text,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Href        string `json:"href,omitempty"`
	InputType   string `json:"input_type,omitempty"`
}

// annotateScript stamps every interactive element with a sequential
// data-wfid attribute and returns a summary of each. Re-running it reassigns
// ids, so harvested ids are only valid until the next harvest.
const annotateScript = `(() => {
	const selector = 'a, button, input, select, textarea, [onclick], [role="button"], [role="link"], [role="tab"], [role="checkbox"], [role="menuitem"], [contenteditable="true"]';
	const interactive = [];
	let id = 0;
	for (const el of document.querySelectorAll(selector)) {
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 && rect.height === 0) {
			el.removeAttribute('data-wfid');
			continue;
		}
		id += 1;
		el.setAttribute('data-wfid', String(id));
		interactive.push({
			wfid: id,
			tag: el.tagName.toLowerCase(),
			role: el.getAttribute('role') || '',
			text: (el.innerText || el.value || '').trim().slice(0, 120),
			placeholder: el.getAttribute('placeholder') || '',
			href: el.getAttribute('href') || '',
			input_type: el.tagName === 'INPUT' ? (el.getAttribute('type') || 'text') : '',
		});
	}
	return interactive;
})()`

// mdConverter is shared and safe for concurrent use.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// RenderPageText turns annotated page HTML into the text representation the
// models consume: the page content as markdown followed by a listing of the
// interactive elements with their wfids.
func RenderPageText(rawHTML string, elements []InteractiveElement, maxLen int) (string, error) {
	cleaned, err := stripNonContent(rawHTML)
	if err != nil {
		return "", fmt.Errorf("cleaning page HTML: %w", err)
	}

	markdown, err := mdConverter.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("converting page to markdown: %w", err)
	}

	var b strings.Builder
	b.WriteString("## Page content\n\n")
	b.WriteString(strings.TrimSpace(markdown))
	b.WriteString("\n\n## Interactive elements\n\n")
	if len(elements) == 0 {
		b.WriteString("(none found)\n")
	}
	for _, el := range elements {
		b.WriteString(formatElement(el))
		b.WriteByte('\n')
	}

	text := b.String()
	if maxLen > 0 {
		text = llmutil.Truncate(text, maxLen)
	}
	return text, nil
}

func formatElement(el InteractiveElement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] <%s", el.WFID, el.Tag)
	if el.InputType != "" {
		fmt.Fprintf(&b, " type=%s", el.InputType)
	}
	if el.Role != "" {
		fmt.Fprintf(&b, " role=%s", el.Role)
	}
	b.WriteByte('>')
	if el.Text != "" {
		fmt.Fprintf(&b, " %q", el.Text)
	}
	if el.Placeholder != "" {
		fmt.Fprintf(&b, " placeholder=%q", el.Placeholder)
	}
	if el.Href != "" {
		fmt.Fprintf(&b, " href=%q", llmutil.Truncate(el.Href, 120))
	}
	return b.String()
}

// stripNonContent drops script, style and other non-content subtrees so the
// markdown conversion only sees what a user sees.
func stripNonContent(rawHTML string) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}
	removeNodes(doc, map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"iframe":   true,
		"svg":      true,
		"template": true,
	})

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return "", err
	}
	return b.String(), nil
}

func removeNodes(n *html.Node, drop map[string]bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && drop[c.Data] {
			n.RemoveChild(c)
		} else {
			removeNodes(c, drop)
		}
		c = next
	}
}
