// Package openmeteo pulls historical weather and air-quality series from the
// Open-Meteo public APIs, the upstream the dashboard's dataset is built from.
package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
)

// Client calls the Open-Meteo archive (daily weather) and air-quality
// (hourly PM10) APIs with retry and a circuit breaker. The APIs are keyless
// but rate-limited, hence the backoff on 429s.
type Client struct {
	httpClient    *http.Client
	archiveURL    string
	airQualityURL string
	breaker       *gobreaker.CircuitBreaker
	logger        *slog.Logger

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewClient creates an Open-Meteo client. The timeout covers a single HTTP
// request; multi-year archive responses are large, so keep it generous.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		archiveURL:    "https://archive-api.open-meteo.com/v1/archive",
		airQualityURL: "https://air-quality-api.open-meteo.com/v1/air-quality",
		breaker:       cb,
		logger:        logger,

		maxRetries:     3,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     10 * time.Second,
	}
}

// FetchWeather returns the daily weather series for one city. Days the API
// reports as null are skipped and counted.
func (c *Client) FetchWeather(ctx context.Context, city City, rng domain.DateRange) ([]domain.RawWeatherRecord, int, error) {
	params := c.baseParams(city, rng)
	params.Set("daily", "temperature_2m_mean,wind_speed_10m_max,precipitation_sum")

	body, err := c.get(ctx, c.archiveURL, params)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch weather for %s: %w", city.Name, err)
	}

	var payload struct {
		Daily struct {
			Time          []string   `json:"time"`
			Temperature   []*float64 `json:"temperature_2m_mean"`
			WindSpeed     []*float64 `json:"wind_speed_10m_max"`
			Precipitation []*float64 `json:"precipitation_sum"`
		} `json:"daily"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode weather for %s: %w", city.Name, err)
	}

	d := payload.Daily
	records := make([]domain.RawWeatherRecord, 0, len(d.Time))
	skipped := 0
	for i, ts := range d.Time {
		t, err := time.Parse("2006-01-02", ts)
		if err != nil {
			skipped++
			continue
		}
		if i >= len(d.Temperature) || i >= len(d.WindSpeed) || i >= len(d.Precipitation) ||
			d.Temperature[i] == nil || d.WindSpeed[i] == nil || d.Precipitation[i] == nil {
			skipped++
			continue
		}
		records = append(records, domain.RawWeatherRecord{
			City:            city.Name,
			Timestamp:       t.UTC(),
			TemperatureC:    *d.Temperature[i],
			WindSpeedKmh:    *d.WindSpeed[i],
			PrecipitationMm: *d.Precipitation[i],
		})
	}
	return records, skipped, nil
}

// FetchPM10 returns the hourly PM10 series for one city; nulls are skipped
// and counted. Callers wanting daily resolution pass the result through
// [ResampleDailyMean].
func (c *Client) FetchPM10(ctx context.Context, city City, rng domain.DateRange) ([]domain.RawPollutionRecord, int, error) {
	params := c.baseParams(city, rng)
	params.Set("hourly", "pm10")

	body, err := c.get(ctx, c.airQualityURL, params)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch pm10 for %s: %w", city.Name, err)
	}

	var payload struct {
		Hourly struct {
			Time []string   `json:"time"`
			PM10 []*float64 `json:"pm10"`
		} `json:"hourly"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode pm10 for %s: %w", city.Name, err)
	}

	h := payload.Hourly
	records := make([]domain.RawPollutionRecord, 0, len(h.Time))
	skipped := 0
	for i, ts := range h.Time {
		t, err := time.Parse("2006-01-02T15:04", ts)
		if err != nil {
			skipped++
			continue
		}
		if i >= len(h.PM10) || h.PM10[i] == nil {
			skipped++
			continue
		}
		records = append(records, domain.RawPollutionRecord{
			City:      city.Name,
			Timestamp: t.UTC(),
			PM10:      *h.PM10[i],
		})
	}
	return records, skipped, nil
}

func (c *Client) baseParams(city City, rng domain.DateRange) url.Values {
	params := url.Values{}
	params.Set("latitude", fmt.Sprintf("%.2f", city.Lat))
	params.Set("longitude", fmt.Sprintf("%.2f", city.Lon))
	params.Set("start_date", rng.Start.Format("2006-01-02"))
	params.Set("end_date", rng.End.Format("2006-01-02"))
	params.Set("timezone", "UTC")
	return params
}

// get performs the request with retry on transient failures (network errors,
// 429, 5xx), each attempt guarded by the circuit breaker.
func (c *Client) get(ctx context.Context, baseURL string, params url.Values) ([]byte, error) {
	fullURL := baseURL + "?" + params.Encode()
	backoff := c.initialBackoff

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if !sleepWithContext(ctx, backoff) {
				return nil, ctx.Err()
			}
			backoff = min(backoff*2, c.maxBackoff)
		}

		result, err := c.breaker.Execute(func() (any, error) {
			return c.doRequest(ctx, fullURL)
		})
		if err == nil {
			return result.([]byte), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !retryable(err) {
			return nil, err
		}
		c.logger.Warn("openmeteo request failed, retrying",
			"attempt", attempt+1, "max", c.maxRetries+1, "error", err)
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}
	return io.ReadAll(resp.Body)
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openmeteo API status %d: %s", e.code, e.body)
}

// retryable reports whether another attempt could help: network-level errors,
// rate limits, and server errors. Breaker-open errors are not retried here;
// the breaker's own timeout governs recovery.
func retryable(err error) bool {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return false
	}
	if se, ok := err.(*statusError); ok {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return true
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// ResampleDailyMean averages an hourly PM10 series to one record per
// city-day, stamped at midnight, the resolution the daily pipeline joins on.
func ResampleDailyMean(records []domain.RawPollutionRecord) []domain.RawPollutionRecord {
	type acc struct {
		sum float64
		n   int
	}
	type cityDay struct {
		city string
		day  time.Time
	}

	sums := make(map[cityDay]acc)
	var order []cityDay
	for _, r := range records {
		day := time.Date(r.Timestamp.Year(), r.Timestamp.Month(), r.Timestamp.Day(), 0, 0, 0, 0, r.Timestamp.Location())
		k := cityDay{city: r.City, day: day}
		a, seen := sums[k]
		if !seen {
			order = append(order, k)
		}
		a.sum += r.PM10
		a.n++
		sums[k] = a
	}

	out := make([]domain.RawPollutionRecord, 0, len(order))
	for _, k := range order {
		a := sums[k]
		out = append(out, domain.RawPollutionRecord{
			City:      k.city,
			Timestamp: k.day,
			PM10:      a.sum / float64(a.n),
		})
	}
	return out
}
