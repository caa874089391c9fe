// Package templates renders the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/lanes/internal/core"
)

// ErrorAlert is the fragment swapped in when a request fails.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<span class="alert-code">Code: %s</span>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportSummary shows the counts of a preview or commit and lists every
// warning, blocking ones first.
func ImportSummary(title string, s core.ImportOutcome) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<section class="import-summary">`)
		fmt.Fprintf(&b, `<h3>%s</h3>`, templ.EscapeString(title))
		b.WriteString(`<dl>`)
		fmt.Fprintf(&b, `<dt>Updated</dt><dd>%d</dd>`, s.Updated)
		fmt.Fprintf(&b, `<dt>Skipped</dt><dd>%d</dd>`, s.Skipped)
		fmt.Fprintf(&b, `<dt>Matched</dt><dd>%d</dd>`, s.MatchedCount)
		fmt.Fprintf(&b, `<dt>Unmatched</dt><dd>%d</dd>`, s.UnmatchedCount)
		b.WriteString(`</dl>`)

		if len(s.Warnings) > 0 {
			b.WriteString(`<ul class="warnings">`)
			for _, wv := range orderWarnings(s.Warnings) {
				class := "warning"
				if wv.Blocking {
					class = "warning blocking"
				}
				fmt.Fprintf(&b, `<li class="%s" data-type="%s">%s</li>`,
					class, templ.EscapeString(string(wv.Type)), templ.EscapeString(wv.Message))
			}
			b.WriteString(`</ul>`)
		}
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func orderWarnings(ws []core.WarningView) []core.WarningView {
	out := make([]core.WarningView, 0, len(ws))
	for _, w := range ws {
		if w.Blocking {
			out = append(out, w)
		}
	}
	for _, w := range ws {
		if !w.Blocking {
			out = append(out, w)
		}
	}
	return out
}
