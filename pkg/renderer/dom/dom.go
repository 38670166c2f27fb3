// Package dom binds the widget to the browser: element geometry, the
// parent frame, animation frames and the page's JavaScript collaborators.
// Outside js/wasm builds only the option parsing is available.
package dom

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/naei/bubblechart/pkg/layout"
	"github.com/naei/bubblechart/pkg/widget"
)

// ErrUnavailable is returned by Mount outside the browser.
var ErrUnavailable = errors.New("dom: only available in js/wasm builds")

// Global names the page may define before the widget starts.
const (
	GlobalSettings      = "__bubbleLayoutSettings"
	GlobalDebug         = "__bubbleComparisonDebug"
	GlobalAPI           = "bubbleChart"
	GlobalRenderer      = "ChartRenderer"
	GlobalData          = "BubbleData"
	GlobalColors        = "Colors"
	GlobalTutorial      = "BubbleTutorial"
	DebugQueryParameter = "bubbleDebug"
)

// Options configures Mount.
type Options struct {
	Settings layout.Settings
	Verbose  bool
}

type settingsJSON struct {
	layout.Settings
	SuppressWindowMs float64 `json:"suppressWindowMs"`
}

// ParseSettings decodes the JSON layout overrides a page may publish on
// window.__bubbleLayoutSettings. Missing fields keep their defaults.
func ParseSettings(raw string) (layout.Settings, error) {
	if raw == "" {
		return layout.DefaultSettings(), nil
	}
	var s settingsJSON
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return layout.DefaultSettings(), fmt.Errorf("parse layout settings: %w", err)
	}
	if s.SuppressWindowMs > 0 {
		s.Settings.SuppressWindow = time.Duration(s.SuppressWindowMs * float64(time.Millisecond))
	}
	return s.Settings.WithDefaults(), nil
}

// VerboseFromQuery reports whether the page query asks for debug logging.
func VerboseFromQuery(search string) bool {
	q, err := url.ParseQuery(trimQuestion(search))
	if err != nil {
		return false
	}
	switch q.Get(DebugQueryParameter) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// selectionJSON is the shape pages pass to bubbleChart.setSelection.
type selectionJSON struct {
	Year        int `json:"year"`
	PollutantID int `json:"pollutantId"`
	Categories  []struct {
		ID      int    `json:"id"`
		Name    string `json:"name"`
		Compare bool   `json:"compare"`
	} `json:"categories"`
}

// ParseSelection decodes a selection published by the page selectors.
func ParseSelection(raw []byte) (widget.Selection, error) {
	var in selectionJSON
	if err := json.Unmarshal(raw, &in); err != nil {
		return widget.Selection{}, fmt.Errorf("parse selection: %w", err)
	}
	sel := widget.Selection{Year: in.Year, PollutantID: in.PollutantID}
	for _, c := range in.Categories {
		sel.Categories = append(sel.Categories, widget.SelectedCategory{ID: c.ID, Name: c.Name, Compare: c.Compare})
	}
	return sel, nil
}

// SelectionFromQuery restores a selection from the widget's own query
// string. ok is false when no category is named.
func SelectionFromQuery(search string) (sel widget.Selection, ok bool) {
	q, err := url.ParseQuery(trimQuestion(search))
	if err != nil {
		return widget.Selection{}, false
	}
	sel.Year, _ = strconv.Atoi(q.Get("year"))
	sel.PollutantID, _ = strconv.Atoi(q.Get("pollutant_id"))
	sel.Categories = widget.ParseCategoryIDs(q.Get("category_ids"))
	return sel, len(sel.Categories) > 0
}

func trimQuestion(s string) string {
	if len(s) > 0 && s[0] == '?' {
		return s[1:]
	}
	return s
}
