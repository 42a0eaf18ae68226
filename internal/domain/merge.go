package domain

import (
	"sort"
	"time"
)

// MergeStats reports how duplicate raw keys were resolved.
type MergeStats struct {
	Duplicates int // raw records that re-used an already-seen key
	Conflicts  []*AlignmentError
}

// Merge outer-joins the weather and pollution series on (city, timestamp).
// Keys present in only one source yield records with the missing side absent.
// Duplicate keys within a source resolve last-write-wins; duplicates with
// differing values are reported as alignment conflicts.
//
// The result is sorted by city, then timestamp, the order every later stage
// relies on.
func Merge(weather []RawWeatherRecord, pollution []RawPollutionRecord) ([]MergedRecord, MergeStats) {
	var stats MergeStats
	merged := make(map[key]*MergedRecord, len(weather)+len(pollution))

	get := func(city string, ts time.Time) *MergedRecord {
		k := keyOf(city, ts)
		rec, ok := merged[k]
		if !ok {
			rec = &MergedRecord{City: city, Timestamp: ts}
			merged[k] = rec
		}
		return rec
	}

	for _, w := range weather {
		rec := get(w.City, w.Timestamp)
		if rec.TemperatureC != nil {
			stats.Duplicates++
			if *rec.TemperatureC != w.TemperatureC || *rec.WindSpeedKmh != w.WindSpeedKmh || *rec.PrecipitationMm != w.PrecipitationMm {
				stats.Conflicts = append(stats.Conflicts, &AlignmentError{City: w.City, Timestamp: w.Timestamp, Field: "weather"})
			}
		}
		rec.TemperatureC = ptr(w.TemperatureC)
		rec.WindSpeedKmh = ptr(w.WindSpeedKmh)
		rec.PrecipitationMm = ptr(w.PrecipitationMm)
	}

	for _, p := range pollution {
		rec := get(p.City, p.Timestamp)
		if rec.PM10 != nil {
			stats.Duplicates++
			if *rec.PM10 != p.PM10 {
				stats.Conflicts = append(stats.Conflicts, &AlignmentError{City: p.City, Timestamp: p.Timestamp, Field: "pm10"})
			}
		}
		rec.PM10 = ptr(p.PM10)
	}

	out := make([]MergedRecord, 0, len(merged))
	for _, rec := range merged {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out, stats
}

func ptr(v float64) *float64 { return &v }
