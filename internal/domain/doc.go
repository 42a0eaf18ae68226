// Package domain models historical weather and air-quality observations for
// Polish cities and the pure transformations applied to them.
//
// # Data Source
//
// Raw records originate from the Open-Meteo historical APIs: the archive API
// supplies daily weather metrics (mean 2m temperature in °C, max 10m wind
// speed in km/h, precipitation sum in mm) and the air-quality API supplies
// hourly PM10 concentrations in µg/m³, resampled to the pipeline step. Feeds
// may also arrive as local CSV or JSON dumps of the same shapes.
//
// # Merge semantics
//
// Weather and pollution series are outer-joined on (city, timestamp). A key
// present in only one source yields a merged record whose missing side is
// absent (nil), never zero. Duplicate raw keys resolve last-write-wins;
// duplicates whose values differ are additionally counted as alignment
// conflicts.
//
// # Gap filling
//
// Absent fields are filled per field. A run of missing values spanning at
// most MaxGapSteps time steps between two valid neighbors is filled by linear
// interpolation; longer runs and edge runs fall back to the prior day's
// same-hour value. A record that still has an absent field after both
// policies is dropped and reported via [GapUnfillableError].
//
// # Derived features
//
//	temperature_band:  "<0" | "0-10" | ">10" (middle band includes both endpoints)
//	wind_category:     "low" below the threshold, "high" at or above it
//	is_weekend:        Saturday or Sunday
//	is_new_years_eve:  timestamp is exactly January 1st 00:00 (fireworks spike)
//	heating_season:    the city's daily mean temperature is below the threshold
//	scenario:          cold_calm | cold_windy | summer | other, used to compare
//	                   the smog impact of wind versus temperature
//
// heating_season needs a same-day aggregate, so enrichment runs a daily-mean
// pre-pass over each city's records before tagging.
package domain
