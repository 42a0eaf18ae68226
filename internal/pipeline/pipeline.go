// Package pipeline orchestrates one ETL run: extract both raw series, merge
// them on (city, timestamp), fill the gaps, derive the dashboard features,
// and write the artifact plus the aggregate reports.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/domain"
	"github.com/X13arXy/Poland-Air-Quality-Analysis-2016-2026/internal/observability"
)

// Extractor reads both raw series from a source. Implementations count the
// malformed records they skip in RawSeries.Malformed.
type Extractor interface {
	Extract(ctx context.Context) (domain.RawSeries, error)
}

// ArtifactWriter persists the enriched dataset.
type ArtifactWriter interface {
	Write(records []domain.EnrichedRecord) error
}

// ReportWriter derives and persists the aggregate views.
type ReportWriter interface {
	Write(records []domain.EnrichedRecord) error
}

// Options carries the transform thresholds for one run.
type Options struct {
	GapFill domain.GapFillConfig
	Enrich  domain.EnrichConfig
}

// Summary totals one run end to end. Every raw record is accounted for:
// accepted into the artifact, skipped as malformed, merged away as a
// duplicate, or dropped as unfillable.
type Summary struct {
	WeatherIn      int
	PollutionIn    int
	Malformed      int
	Duplicates     int
	Conflicts      int
	Merged         int
	Interpolated   int
	CarriedForward int
	Dropped        int
	RecordsOut     int

	Started  time.Time
	Finished time.Time
}

// LogAttrs flattens the summary for structured logging.
func (s Summary) LogAttrs() []any {
	return []any{
		"weather_in", s.WeatherIn,
		"pollution_in", s.PollutionIn,
		"malformed_skipped", s.Malformed,
		"duplicates", s.Duplicates,
		"conflicts", s.Conflicts,
		"merged", s.Merged,
		"interpolated", s.Interpolated,
		"carried_forward", s.CarriedForward,
		"dropped", s.Dropped,
		"records_out", s.RecordsOut,
		"duration", s.Finished.Sub(s.Started).String(),
	}
}

// Pipeline wires the stages together with logging and metrics.
type Pipeline struct {
	extractor Extractor
	artifact  ArtifactWriter
	reports   ReportWriter // nil disables report generation
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. reports may be nil.
func New(e Extractor, artifact ArtifactWriter, reports ReportWriter, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor: e,
		artifact:  artifact,
		reports:   reports,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one complete batch run. Per-record problems (malformed input,
// alignment conflicts, unfillable gaps) are logged and counted; only extract
// and write failures abort the run. The summary is returned even on error so
// callers can report partial progress.
func (p *Pipeline) Run(ctx context.Context) (summary Summary, err error) {
	summary.Started = time.Now()
	defer func() {
		summary.Finished = time.Now()
		p.metrics.RunDuration.Observe(summary.Finished.Sub(summary.Started).Seconds())
	}()

	p.logger.Info("pipeline started")

	series, err := p.extract(ctx)
	if err != nil {
		return summary, err
	}
	summary.WeatherIn = len(series.Weather)
	summary.PollutionIn = len(series.Pollution)
	summary.Malformed = series.Malformed
	p.metrics.WeatherRecordsIn.Add(float64(len(series.Weather)))
	p.metrics.PollutionRecordsIn.Add(float64(len(series.Pollution)))
	p.metrics.MalformedSkipped.Add(float64(series.Malformed))

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	merged := p.merge(series, &summary)
	filled := p.fill(merged, &summary)
	enriched := p.enrich(filled)
	summary.RecordsOut = len(enriched)

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if err := p.write(enriched); err != nil {
		return summary, err
	}
	p.metrics.RecordsOut.Add(float64(len(enriched)))

	if p.reports != nil {
		if err := p.report(enriched); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func (p *Pipeline) extract(ctx context.Context) (domain.RawSeries, error) {
	defer p.timeStage("extract")()
	series, err := p.extractor.Extract(ctx)
	if err != nil {
		p.logger.Error("extract failed", "error", err)
		return domain.RawSeries{}, err
	}
	p.logger.Info("extract complete",
		"weather_records", len(series.Weather),
		"pollution_records", len(series.Pollution),
		"malformed_skipped", series.Malformed)
	return series, nil
}

func (p *Pipeline) merge(series domain.RawSeries, summary *Summary) []domain.MergedRecord {
	defer p.timeStage("merge")()
	merged, stats := domain.Merge(series.Weather, series.Pollution)

	for _, c := range stats.Conflicts {
		p.logger.Warn("alignment conflict, last write wins",
			"city", c.City, "timestamp", c.Timestamp, "field", c.Field)
	}
	summary.Duplicates = stats.Duplicates
	summary.Conflicts = len(stats.Conflicts)
	summary.Merged = len(merged)
	p.metrics.DuplicateKeys.Add(float64(stats.Duplicates))
	p.metrics.AlignmentConflicts.Add(float64(len(stats.Conflicts)))

	p.logger.Info("merge complete", "records", len(merged),
		"duplicates", stats.Duplicates, "conflicts", len(stats.Conflicts))
	return merged
}

func (p *Pipeline) fill(merged []domain.MergedRecord, summary *Summary) []domain.MergedRecord {
	defer p.timeStage("fill")()
	res := domain.FillGaps(merged, p.opts.GapFill)

	for _, d := range res.Dropped {
		p.logger.Warn("record dropped, gap unfillable",
			"city", d.City, "timestamp", d.Timestamp, "field", d.Field)
	}
	summary.Interpolated = res.Interpolated
	summary.CarriedForward = res.CarriedForward
	summary.Dropped = len(res.Dropped)
	p.metrics.GapsInterpolated.Add(float64(res.Interpolated))
	p.metrics.GapsCarriedForward.Add(float64(res.CarriedForward))
	p.metrics.RecordsDropped.Add(float64(len(res.Dropped)))

	p.logger.Info("gap filling complete", "records", len(res.Records),
		"interpolated", res.Interpolated,
		"carried_forward", res.CarriedForward,
		"dropped", len(res.Dropped))
	return res.Records
}

func (p *Pipeline) enrich(records []domain.MergedRecord) []domain.EnrichedRecord {
	defer p.timeStage("enrich")()
	enriched := domain.Enrich(records, p.opts.Enrich)
	p.logger.Info("enrichment complete", "records", len(enriched))
	return enriched
}

func (p *Pipeline) write(records []domain.EnrichedRecord) error {
	defer p.timeStage("write")()
	if err := p.artifact.Write(records); err != nil {
		p.logger.Error("artifact write failed", "error", err)
		return err
	}
	return nil
}

func (p *Pipeline) report(records []domain.EnrichedRecord) error {
	defer p.timeStage("report")()
	if err := p.reports.Write(records); err != nil {
		p.logger.Error("report write failed", "error", err)
		return err
	}
	return nil
}

// timeStage records a stage's duration; call the returned func when done.
func (p *Pipeline) timeStage(stage string) func() {
	start := time.Now()
	return func() {
		p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
