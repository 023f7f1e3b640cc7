// Package ui holds the HTML writer and shared fragments the page components
// are built from.
package ui

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/codr1/Lodgeicious/internal/pricing"
)

// Safe marks markup that must not be escaped again.
type Safe string

// Writer accumulates the first write error so components can emit markup
// without checking every call.
type Writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func NewWriter(ctx context.Context, w io.Writer) *Writer {
	return &Writer{ctx: ctx, w: w}
}

func (b *Writer) Raw(s string) {
	if b.err != nil {
		return
	}
	_, b.err = io.WriteString(b.w, s)
}

func (b *Writer) Text(s string) {
	b.Raw(templ.EscapeString(s))
}

// Printf formats markup. String arguments are escaped, Safe ones are not.
func (b *Writer) Printf(format string, args ...any) {
	escaped := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case Safe:
			escaped[i] = string(v)
		case string:
			escaped[i] = templ.EscapeString(v)
		case fmt.Stringer:
			escaped[i] = templ.EscapeString(v.String())
		default:
			escaped[i] = arg
		}
	}
	b.Raw(fmt.Sprintf(format, escaped...))
}

func (b *Writer) Render(c templ.Component) {
	if b.err != nil || c == nil {
		return
	}
	b.err = c.Render(b.ctx, b.w)
}

func (b *Writer) Err() error {
	return b.err
}

// Component adapts a body function into a templ.Component.
func Component(fn func(b *Writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		b := NewWriter(ctx, w)
		fn(b)
		return b.Err()
	})
}

func Money(cents int64, currency string) string {
	return pricing.FormatCents(cents, currency)
}

func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Mon, Jan 2 2006")
}

func DateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Mon, Jan 2 2006 3:04 PM")
}

func Itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Pager is the paging state a table or grid footer needs.
type Pager struct {
	Page       int64
	TotalPages int64
	Total      int64
	BaseURL    string
	Query      url.Values
	Target     string
}

func (p Pager) link(page int64) string {
	values := url.Values{}
	for key, vals := range p.Query {
		values[key] = append([]string(nil), vals...)
	}
	values.Set("page", strconv.FormatInt(page, 10))
	return p.BaseURL + "?" + values.Encode()
}

// Pagination renders previous/next links. With a Target the links swap that
// element through htmx and push the URL.
func Pagination(p Pager) templ.Component {
	return Component(func(b *Writer) {
		if p.TotalPages <= 1 {
			return
		}
		swap := ""
		if p.Target != "" {
			swap = fmt.Sprintf(` hx-target="%s" hx-select="%s" hx-swap="outerHTML" hx-push-url="true"`, templ.EscapeString(p.Target), templ.EscapeString(p.Target))
		}
		b.Raw(`<nav class="pagination">`)
		if p.Page > 1 {
			b.Printf(`<a href="%s" hx-get="%s"%s>Previous</a>`, p.link(p.Page-1), p.link(p.Page-1), Safe(swap))
		}
		b.Printf(`<span>Page %d of %d (%d total)</span>`, p.Page, p.TotalPages, p.Total)
		if p.Page < p.TotalPages {
			b.Printf(`<a href="%s" hx-get="%s"%s>Next</a>`, p.link(p.Page+1), p.link(p.Page+1), Safe(swap))
		}
		b.Raw(`</nav>`)
	})
}

// Alert renders a message box; empty messages render nothing.
func Alert(kind, message string) templ.Component {
	return Component(func(b *Writer) {
		if message == "" {
			return
		}
		b.Printf(`<div class="alert alert-%s" role="alert">%s</div>`, kind, message)
	})
}

// FieldErrors renders per-field validation messages above a form.
func FieldErrors(errs map[string]string) templ.Component {
	return Component(func(b *Writer) {
		if len(errs) == 0 {
			return
		}
		b.Raw(`<ul class="field-errors">`)
		for field, reason := range errs {
			b.Printf(`<li data-field="%s">%s %s</li>`, field, field, reason)
		}
		b.Raw(`</ul>`)
	})
}

// Input renders a labelled input.
func Input(label, inputType, name, value string, required bool) templ.Component {
	return Component(func(b *Writer) {
		req := ""
		if required {
			req = " required"
		}
		b.Printf(`<label>%s <input type="%s" name="%s" value="%s"%s></label>`, label, inputType, name, value, Safe(req))
	})
}

// Select renders a labelled select with the current value chosen.
func Select(label, name, current string, options [][2]string) templ.Component {
	return Component(func(b *Writer) {
		b.Printf(`<label>%s <select name="%s">`, label, name)
		for _, opt := range options {
			selected := ""
			if opt[0] == current {
				selected = " selected"
			}
			b.Printf(`<option value="%s"%s>%s</option>`, opt[0], Safe(selected), opt[1])
		}
		b.Raw(`</select></label>`)
	})
}
