package domain

import "time"

// GapFillConfig tunes the imputation policy.
type GapFillConfig struct {
	// Step is the spacing of the time series (24h for daily data, 1h for hourly).
	Step time.Duration
	// MaxGapSteps is the longest run of missing steps still eligible for
	// linear interpolation. Longer runs fall back to prior-day carry-forward.
	MaxGapSteps int
}

// DefaultGapFillConfig matches the daily dataset the dashboard is built on.
func DefaultGapFillConfig() GapFillConfig {
	return GapFillConfig{Step: 24 * time.Hour, MaxGapSteps: 3}
}

// GapFillResult carries the filled series plus per-policy counts. Dropped
// records are reported, never silently discarded.
type GapFillResult struct {
	Records        []MergedRecord
	Interpolated   int // field values filled by linear interpolation
	CarriedForward int // field values filled from the prior day's same hour
	Dropped        []*GapUnfillableError
}

// mergedField gives the filler uniform access to each numeric field.
type mergedField struct {
	name string
	get  func(*MergedRecord) **float64
}

var mergedFields = []mergedField{
	{"temperature", func(r *MergedRecord) **float64 { return &r.TemperatureC }},
	{"wind_speed", func(r *MergedRecord) **float64 { return &r.WindSpeedKmh }},
	{"precipitation", func(r *MergedRecord) **float64 { return &r.PrecipitationMm }},
	{"pm10", func(r *MergedRecord) **float64 { return &r.PM10 }},
}

// FillGaps resolves every absent field in the merged series, per field and
// per city. Runs of at most MaxGapSteps missing steps between two valid
// neighbors are linearly interpolated; longer runs and edge runs take the
// prior day's same-hour value. Records left with an absent field are dropped.
//
// Gap length is measured in time steps between the neighbors, so timestamps
// absent from both sources count toward the run even though no merged row
// exists for them. A fully complete input comes back unchanged.
func FillGaps(records []MergedRecord, cfg GapFillConfig) GapFillResult {
	res := GapFillResult{Records: make([]MergedRecord, len(records))}
	copy(res.Records, records)

	drop := make(map[int]bool)
	for start := 0; start < len(res.Records); {
		end := start
		for end < len(res.Records) && res.Records[end].City == res.Records[start].City {
			end++
		}
		fillCity(res.Records[start:end], cfg, &res, drop, start)
		start = end
	}

	if len(drop) > 0 {
		kept := res.Records[:0]
		for i, rec := range res.Records {
			if !drop[i] {
				kept = append(kept, rec)
			}
		}
		res.Records = kept
	}
	return res
}

// fillCity fills one city's slice of the series, which is sorted by timestamp.
// offset translates slice indices back to positions in the full series for
// drop bookkeeping.
func fillCity(city []MergedRecord, cfg GapFillConfig, res *GapFillResult, drop map[int]bool, offset int) {
	for _, f := range mergedFields {
		// Values already present or filled earlier in the pass, looked up by
		// timestamp for prior-day carry-forward.
		filled := make(map[int64]float64, len(city))
		for i := range city {
			if v := *f.get(&city[i]); v != nil {
				filled[city[i].Timestamp.Unix()] = *v
			}
		}

		i := 0
		for i < len(city) {
			if *f.get(&city[i]) != nil {
				i++
				continue
			}

			// Extend the run of records with this field absent.
			j := i
			for j < len(city) && *f.get(&city[j]) == nil {
				j++
			}

			prev := i - 1 // last valid record before the run, -1 if none
			next := j     // first valid record after the run, len(city) if none

			if prev >= 0 && next < len(city) {
				gapSteps := int(city[next].Timestamp.Sub(city[prev].Timestamp)/cfg.Step) - 1
				if gapSteps <= cfg.MaxGapSteps {
					interpolateRun(city[i:j], f, city[prev], city[next], filled)
					res.Interpolated += j - i
					i = j
					continue
				}
			}

			// Long or edge run: prior day, same hour.
			for k := i; k < j; k++ {
				rec := &city[k]
				if v, ok := filled[rec.Timestamp.Add(-24*time.Hour).Unix()]; ok {
					val := v
					*f.get(rec) = &val
					filled[rec.Timestamp.Unix()] = val
					res.CarriedForward++
					continue
				}
				if !drop[offset+k] {
					drop[offset+k] = true
					res.Dropped = append(res.Dropped, &GapUnfillableError{
						City:      rec.City,
						Timestamp: rec.Timestamp,
						Field:     f.name,
					})
				}
			}
			i = j
		}
	}
}

// interpolateRun fills each record in run by linear interpolation between the
// surrounding valid neighbors, weighted by time distance.
func interpolateRun(run []MergedRecord, f mergedField, prev, next MergedRecord, filled map[int64]float64) {
	p := **f.get(&prev)
	n := **f.get(&next)
	span := next.Timestamp.Sub(prev.Timestamp).Seconds()

	for i := range run {
		frac := run[i].Timestamp.Sub(prev.Timestamp).Seconds() / span
		val := p + frac*(n-p)
		*f.get(&run[i]) = &val
		filled[run[i].Timestamp.Unix()] = val
	}
}
