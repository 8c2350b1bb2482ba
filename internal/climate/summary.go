package climate

import "github.com/tonylquintanilla/palomas-orrery-sub004/internal/cache"

// Summary condenses a record sequence into headline numbers for one measured
// field. Chart annotations and the dataset listing are built from it.
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	First  float64 `json:"first"`
	Latest float64 `json:"latest"`

	// Time-axis positions (decimal years) of the first and latest readings.
	FirstTime  float64 `json:"firstTime"`
	LatestTime float64 `json:"latestTime"`
}

// Summarize scans records in order and accumulates statistics for the named
// field. Records missing the field are skipped rather than treated as zero.
func Summarize(records []cache.Record, field string) Summary {
	var s Summary
	var sum float64

	for _, r := range records {
		v, ok := NumericField(r, field)
		if !ok {
			continue
		}

		t, _ := RecordTime(r)

		if s.Count == 0 {
			s.Min = v
			s.Max = v
			s.First = v
			s.FirstTime = t
		}
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}

		s.Latest = v
		s.LatestTime = t
		sum += v
		s.Count++
	}

	if s.Count > 0 {
		s.Mean = sum / float64(s.Count)
	}
	return s
}
