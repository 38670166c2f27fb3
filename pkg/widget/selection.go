package widget

import (
	"strconv"
	"strings"
)

// SelectedCategory is one row of the category selector.
type SelectedCategory struct {
	ID      int
	Name    string
	Compare bool
}

// Selection is the user's current chart configuration.
type Selection struct {
	Year        int
	PollutantID int
	Categories  []SelectedCategory
}

// IDs returns the category ids in selection order.
func (s Selection) IDs() []int {
	ids := make([]int, 0, len(s.Categories))
	for _, c := range s.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// Compared returns the comparison-checked categories, at most two.
func (s Selection) Compared() []SelectedCategory {
	var out []SelectedCategory
	for _, c := range s.Categories {
		if c.Compare {
			out = append(out, c)
			if len(out) == 2 {
				break
			}
		}
	}
	return out
}

// URLParams renders the selection as the query parameters shared with the
// host page. Compared categories carry a "c" suffix.
func (s Selection) URLParams() []string {
	ids := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		id := strconv.Itoa(c.ID)
		if c.Compare {
			id += "c"
		}
		ids = append(ids, id)
	}
	return []string{
		"pollutant_id=" + strconv.Itoa(s.PollutantID),
		"category_ids=" + strings.Join(ids, ","),
		"year=" + strconv.Itoa(s.Year),
	}
}

// ParseCategoryIDs reads a category_ids parameter back into selector rows.
// Unparseable entries are skipped.
func ParseCategoryIDs(v string) []SelectedCategory {
	var out []SelectedCategory
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		compare := strings.HasSuffix(part, "c")
		id, err := strconv.Atoi(strings.TrimSuffix(part, "c"))
		if err != nil || id <= 0 {
			continue
		}
		out = append(out, SelectedCategory{ID: id, Compare: compare})
	}
	return out
}
