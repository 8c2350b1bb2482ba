package chart

import (
	"fmt"

	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"
	"github.com/tonylquintanilla/palomas-orrery-sub004/internal/climate"
)

// Point is one chart sample: decimal year on the x axis, measured value on
// the y axis.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Annotation marks a notable sample, e.g. the latest reading.
type Annotation struct {
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ChartData is the chart-ready view of one cached dataset. It is built
// purely from a cache document; chart builders never write caches.
type ChartData struct {
	Dataset     string          `json:"dataset"`
	Title       string          `json:"title"`
	XLabel      string          `json:"xLabel"`
	YLabel      string          `json:"yLabel"`
	Points      []Point         `json:"points"`
	Annotations []Annotation    `json:"annotations,omitempty"`
	Summary     climate.Summary `json:"summary"`
}

// Build converts a cached dataset document into chart-ready series data.
func Build(d climate.Dataset, doc *cache.Document) (*ChartData, error) {
	if doc == nil || len(doc.Records) == 0 {
		return nil, fmt.Errorf("no records for dataset %s", d)
	}

	field := d.ValueField()
	points := make([]Point, 0, len(doc.Records))
	for _, r := range doc.Records {
		x, ok := climate.RecordTime(r)
		if !ok {
			continue
		}
		y, ok := climate.NumericField(r, field)
		if !ok {
			continue
		}
		points = append(points, Point{X: x, Y: y})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no plottable records for dataset %s", d)
	}

	summary := climate.Summarize(doc.Records, field)

	data := &ChartData{
		Dataset: string(d),
		Title:   d.Title(),
		XLabel:  "Year",
		YLabel:  yLabel(d, doc.Metadata),
		Points:  points,
		Summary: summary,
	}

	last := points[len(points)-1]
	data.Annotations = append(data.Annotations, Annotation{
		Label: fmt.Sprintf("Latest: %.2f", last.Y),
		X:     last.X,
		Y:     last.Y,
	})

	return data, nil
}

// yLabel prefers the units recorded in the document's metadata; the dataset
// title is only a fallback for documents saved before units were recorded.
func yLabel(d climate.Dataset, meta cache.Metadata) string {
	if meta != nil {
		if units, ok := meta["units"].(string); ok && units != "" {
			return units
		}
	}
	return d.Title()
}
