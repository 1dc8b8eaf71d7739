package display

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/matst80/slask-instant/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestListPrinter(t *testing.T) {
	var buf bytes.Buffer
	l := NewListPrinter(&buf, "Multiple choice")
	l.Render([]types.FacetValue{
		{Value: "red", Count: 12, IsSelected: true},
		{Value: "blue", Count: 3},
	})
	assert.Equal(t, "== Multiple choice ==\n[x] red (12)\n[ ] blue (3)\n", buf.String())

	selected := []string{}
	l.OnSelect(func(v string) { selected = append(selected, v) })
	l.Select("green")
	assert.True(t, l.SelectRow(1))
	assert.False(t, l.SelectRow(2))
	assert.Equal(t, []string{"green", "blue"}, selected)

	buf.Reset()
	l.Render(nil)
	assert.Equal(t, "== Multiple choice ==\n(no values)\n", buf.String())
}

func TestTextAndHitsPrinters(t *testing.T) {
	var buf bytes.Buffer
	text := NewTextPrinter(&buf, "")
	text.RenderText("7 hits in 4ms")
	assert.Equal(t, "7 hits in 4ms\n", buf.String())
	assert.Equal(t, "7 hits in 4ms", text.Text())

	buf.Reset()
	hits := NewHitsPrinter(&buf, "Hits", "name")
	hits.RenderHits([]types.Hit{{"objectID": "1", "name": "Red phone"}, {"objectID": "2"}})
	assert.Equal(t, "== Hits ==\n 1. Red phone\n 2. 2\n", buf.String())
	assert.Equal(t, 2, hits.Count())
}

func TestSearchBox(t *testing.T) {
	box := &SearchBox{}
	changes := []string{}
	submitted := ""
	box.OnTextChanged(func(s string) { changes = append(changes, s) })
	box.OnSubmit(func(s string) { submitted = s })

	box.Type("tv")
	assert.Equal(t, []string{"t", "tv"}, changes)
	box.Submit()
	assert.Equal(t, "tv", submitted)

	box.SetQuery("")
	box.Type("a")
	assert.Equal(t, "a", changes[len(changes)-1])
}

func TestClearButton(t *testing.T) {
	b := &ClearButton{}
	pressed := 0
	b.OnClear(func() { pressed++ })
	b.OnClear(func() { pressed++ })
	b.Press()
	assert.Equal(t, 2, pressed)
}

func TestSynchronizedRenderingsDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	w := Synchronized(&buf)
	assert.Same(t, w, Synchronized(w))

	a := NewTextPrinter(w, "A")
	b := NewTextPrinter(w, "B")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); a.RenderText("alpha") }()
		go func() { defer wg.Done(); b.RenderText("beta") }()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 200)
	for i := 0; i < len(lines); i += 2 {
		switch lines[i] {
		case "== A ==":
			assert.Equal(t, "alpha", lines[i+1])
		case "== B ==":
			assert.Equal(t, "beta", lines[i+1])
		default:
			t.Fatalf("unexpected line %q", lines[i])
		}
	}
}
