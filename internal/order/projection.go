package order

import (
	"sort"
	"time"
)

// PlaceholderName is shown for lines whose product snapshot is missing
// (for example a row written before snapshots existed, or a purged one).
const PlaceholderName = "(unavailable)"

const displayDate = "02 Jan 2006"

// ProjectedLine is one display-ready order line.
type ProjectedLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// Projected is the read-side shape shared by the buyer and vendor order
// views.
type Projected struct {
	ID       string          `json:"id"`
	Date     string          `json:"date"`
	PlacedAt time.Time       `json:"placed_at"`
	Status   string          `json:"status"`
	Lines    []ProjectedLine `json:"lines"`
	Discount string          `json:"discount"`
	Total    string          `json:"total"`
}

// Project maps raw orders plus their items into display form, newest
// first. Equal timestamps fall back to id order so the result is
// deterministic. A missing snapshot becomes a placeholder line, never a
// failure of the whole projection.
func Project(orders []Order, itemsByOrder map[string][]Item) []Projected {
	out := make([]Projected, 0, len(orders))
	for _, o := range orders {
		p := Projected{
			ID:       o.ID,
			Date:     o.CreatedAt.Format(displayDate),
			PlacedAt: o.CreatedAt,
			Status:   o.Status,
			Discount: o.Discount,
			Total:    o.Total,
		}
		for _, it := range itemsByOrder[o.ID] {
			ln := ProjectedLine{
				ProductID: it.ProductID,
				Name:      it.Name,
				ImageURL:  it.ImageURL,
				Quantity:  it.Quantity,
				Price:     it.Price,
			}
			if ln.Name == "" {
				ln.Name = PlaceholderName
				ln.ImageURL = ""
			}
			p.Lines = append(p.Lines, ln)
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PlacedAt.Equal(out[j].PlacedAt) {
			return out[i].PlacedAt.After(out[j].PlacedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
