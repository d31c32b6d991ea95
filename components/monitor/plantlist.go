package monitor

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

// DefaultPageSize is the number of plants shown per list page.
const DefaultPageSize = 8

// FilterPlants returns plants whose name contains term, ignoring case.
// The term is matched verbatim, surrounding spaces included. An empty term
// returns every plant. The result never aliases the input.
func FilterPlants(plants []Plant, term string) []Plant {
	out := make([]Plant, 0, len(plants))
	if term == "" {
		return append(out, plants...)
	}
	fold := cases.Fold()
	needle := fold.String(term)
	for _, plant := range plants {
		if strings.Contains(fold.String(plant.Name), needle) {
			out = append(out, plant)
		}
	}
	return out
}

// FilterByType keeps plants of the given type; an empty type keeps all.
func FilterByType(plants []Plant, kind PlantType) []Plant {
	out := make([]Plant, 0, len(plants))
	for _, plant := range plants {
		if kind == "" || plant.Type == kind {
			out = append(out, plant)
		}
	}
	return out
}

// TotalPages is ceil(n/size).
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// ClampPage keeps page within [1, max(1, totalPages)].
func ClampPage(page, totalPages int) int {
	upper := max(1, totalPages)
	return min(max(page, 1), upper)
}

// PlantPage is one rendered page of the plant list.
type PlantPage struct {
	Items      []Plant `json:"items"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	TotalItems int     `json:"total_items"`
	PageSize   int     `json:"page_size"`
	HasPrev    bool    `json:"has_prev"`
	HasNext    bool    `json:"has_next"`
}

// Paginate slices plants into the clamped page.
func Paginate(plants []Plant, page, size int) PlantPage {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := TotalPages(len(plants), size)
	page = ClampPage(page, total)
	start := (page - 1) * size
	end := min(start+size, len(plants))
	items := []Plant{}
	if start < len(plants) {
		items = append(items, plants[start:end]...)
	}
	return PlantPage{
		Items:      items,
		Page:       page,
		TotalPages: total,
		TotalItems: len(plants),
		PageSize:   size,
		HasPrev:    page > 1,
		HasNext:    page < total,
	}
}

// PlantSummary holds the counters above the plant list.
type PlantSummary struct {
	Total       int `json:"total"`
	Solar       int `json:"solar"`
	Wind        int `json:"wind"`
	Normal      int `json:"normal"`
	Maintenance int `json:"maintenance"`
}

// Summarize counts plants by type and status.
func Summarize(plants []Plant) PlantSummary {
	summary := PlantSummary{Total: len(plants)}
	for _, plant := range plants {
		switch plant.Type {
		case PlantTypeSolar:
			summary.Solar++
		case PlantTypeWind:
			summary.Wind++
		}
		switch plant.Status {
		case PlantStatusNormal:
			summary.Normal++
		case PlantStatusMaintenance:
			summary.Maintenance++
		}
	}
	return summary
}

// SelectHandler receives the id of a plant picked from the list.
type SelectHandler func(plantID int)

// PlantListView keeps search and page state for one list instance.
type PlantListView struct {
	mu       sync.Mutex
	all      []Plant
	filtered []Plant
	term     string
	kind     PlantType
	page     int
	size     int
	onSelect SelectHandler
}

// NewPlantListView builds a list over plants. A size <= 0 uses DefaultPageSize.
func NewPlantListView(plants []Plant, size int, onSelect SelectHandler) *PlantListView {
	if size <= 0 {
		size = DefaultPageSize
	}
	v := &PlantListView{
		all:      append([]Plant(nil), plants...),
		page:     1,
		size:     size,
		onSelect: onSelect,
	}
	v.refilter()
	return v
}

// Search applies a new term and returns to the first page.
func (v *PlantListView) Search(term string) PlantPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.term = term
	v.page = 1
	v.refilter()
	return v.current()
}

// FilterType restricts the list to one plant type and returns to the first page.
func (v *PlantListView) FilterType(kind PlantType) PlantPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.kind = kind
	v.page = 1
	v.refilter()
	return v.current()
}

// Next advances one page; it is a no-op on the last page.
func (v *PlantListView) Next() PlantPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = ClampPage(v.page+1, TotalPages(len(v.filtered), v.size))
	return v.current()
}

// Prev goes back one page; it is a no-op on the first page.
func (v *PlantListView) Prev() PlantPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = ClampPage(v.page-1, TotalPages(len(v.filtered), v.size))
	return v.current()
}

// GoTo jumps to page n, clamped to the valid range.
func (v *PlantListView) GoTo(n int) PlantPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.page = ClampPage(n, TotalPages(len(v.filtered), v.size))
	return v.current()
}

// Page returns the current page.
func (v *PlantListView) Page() PlantPage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current()
}

// Summary counts over the unfiltered catalog.
func (v *PlantListView) Summary() PlantSummary {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Summarize(v.all)
}

// Select emits the plant id upward. It performs no fetch.
func (v *PlantListView) Select(plantID int) bool {
	v.mu.Lock()
	found := false
	for _, plant := range v.all {
		if plant.ID == plantID {
			found = true
			break
		}
	}
	handler := v.onSelect
	v.mu.Unlock()
	if found && handler != nil {
		handler(plantID)
	}
	return found
}

func (v *PlantListView) refilter() {
	v.filtered = FilterPlants(FilterByType(v.all, v.kind), v.term)
}

func (v *PlantListView) current() PlantPage {
	return Paginate(v.filtered, v.page, v.size)
}
