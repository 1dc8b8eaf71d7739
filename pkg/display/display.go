// Package display renders widgets as plain text. The printers stand in for
// the table and label views of a real interface and expose methods that
// simulate user input.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/matst80/slask-instant/pkg/types"
)

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Synchronized serializes writes to w. Printers sharing one writer render
// from different goroutines.
func Synchronized(w io.Writer) io.Writer {
	if _, ok := w.(*syncWriter); ok {
		return w
	}
	return &syncWriter{w: w}
}

// Titled prefixes every rendering with a header line.
type Titled struct {
	Title string
}

func (t Titled) header(w io.Writer) {
	if t.Title != "" {
		fmt.Fprintf(w, "== %s ==\n", t.Title)
	}
}

type printer struct {
	mu sync.Mutex
	w  io.Writer
	Titled
}

// flush writes one rendering in a single call so renderings of printers
// sharing a writer never interleave.
func (p *printer) flush(b *strings.Builder) {
	io.WriteString(p.w, b.String())
}

// ListPrinter renders facet values as "[x] red (12)".
type ListPrinter struct {
	printer
	items    []types.FacetValue
	onSelect func(value string)
}

func NewListPrinter(w io.Writer, title string) *ListPrinter {
	return &ListPrinter{printer: printer{w: w, Titled: Titled{Title: title}}}
}

func FormatFacetValue(v types.FacetValue) string {
	mark := " "
	if v.IsSelected {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s (%d)", mark, v.Value, v.Count)
}

func (l *ListPrinter) Render(items []types.FacetValue) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = items
	var b strings.Builder
	l.header(&b)
	if len(items) == 0 {
		b.WriteString("(no values)\n")
	}
	for _, item := range items {
		b.WriteString(FormatFacetValue(item))
		b.WriteByte('\n')
	}
	l.flush(&b)
}

func (l *ListPrinter) OnSelect(fn func(value string)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onSelect = fn
}

// Select simulates a tap on value.
func (l *ListPrinter) Select(value string) {
	l.mu.Lock()
	fn := l.onSelect
	l.mu.Unlock()
	if fn != nil {
		fn(value)
	}
}

// SelectRow simulates a tap on the row at position i of the last rendering.
func (l *ListPrinter) SelectRow(i int) bool {
	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return false
	}
	value := l.items[i].Value
	l.mu.Unlock()
	l.Select(value)
	return true
}

func (l *ListPrinter) Items() []types.FacetValue {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]types.FacetValue(nil), l.items...)
}

type TextPrinter struct {
	printer
	last string
}

func NewTextPrinter(w io.Writer, title string) *TextPrinter {
	return &TextPrinter{printer: printer{w: w, Titled: Titled{Title: title}}}
}

func (t *TextPrinter) RenderText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = text
	var b strings.Builder
	t.header(&b)
	b.WriteString(text)
	b.WriteByte('\n')
	t.flush(&b)
}

func (t *TextPrinter) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// HitsPrinter prints one numbered line per hit using Attribute, falling back
// to the objectID.
type HitsPrinter struct {
	printer
	Attribute string
	count     int
}

func NewHitsPrinter(w io.Writer, title, attribute string) *HitsPrinter {
	return &HitsPrinter{printer: printer{w: w, Titled: Titled{Title: title}}, Attribute: attribute}
}

func (h *HitsPrinter) RenderHits(hits []types.Hit) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count = len(hits)
	var b strings.Builder
	h.header(&b)
	if len(hits) == 0 {
		b.WriteString("(no hits)\n")
	}
	for i, hit := range hits {
		label := hit.String(h.Attribute)
		if label == "" {
			label = hit.ObjectID()
		}
		fmt.Fprintf(&b, "%2d. %s\n", i+1, label)
	}
	h.flush(&b)
}

func (h *HitsPrinter) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// SearchBox is a text input. Type reports every change, Submit only the
// final text.
type SearchBox struct {
	mu        sync.Mutex
	text      string
	onChanged func(string)
	onSubmit  func(string)
}

func (s *SearchBox) SetQuery(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
}

func (s *SearchBox) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

func (s *SearchBox) OnTextChanged(fn func(text string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChanged = fn
}

func (s *SearchBox) OnSubmit(fn func(text string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSubmit = fn
}

// Type simulates typing text one character at a time.
func (s *SearchBox) Type(text string) {
	var b strings.Builder
	b.WriteString(s.Text())
	for _, r := range text {
		b.WriteRune(r)
		s.change(b.String())
	}
}

func (s *SearchBox) change(text string) {
	s.mu.Lock()
	s.text = text
	fn := s.onChanged
	s.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

func (s *SearchBox) Submit() {
	s.mu.Lock()
	text := s.text
	fn := s.onSubmit
	s.mu.Unlock()
	if fn != nil {
		fn(text)
	}
}

// ClearButton triggers the clear filters action when pressed.
type ClearButton struct {
	mu       sync.Mutex
	handlers []func()
}

func (c *ClearButton) OnClear(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

func (c *ClearButton) Press() {
	c.mu.Lock()
	handlers := append([]func(){}, c.handlers...)
	c.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}

var (
	_ types.FacetListController  = (*ListPrinter)(nil)
	_ types.TextController       = (*TextPrinter)(nil)
	_ types.HitsController       = (*HitsPrinter)(nil)
	_ types.QueryInputController = (*SearchBox)(nil)
	_ types.ClearController      = (*ClearButton)(nil)
)
