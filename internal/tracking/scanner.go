package tracking

import (
	"context"
	"fmt"
	"time"

	"farewatch/internal/flight"
	"farewatch/pkg/clock"
	"farewatch/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"
)

// Gateway is the pricing provider as the scanner uses it: one token per run,
// many searches with it.
type Gateway interface {
	Authenticate(ctx context.Context) (*oauth2.Token, error)
	SearchOffers(ctx context.Context, tok *oauth2.Token, req flight.SearchRequest) ([]flight.Offer, error)
}

type ScannerConfig struct {
	Concurrency int
	Adults      int
}

// Scanner re-prices every active recurring search.
type Scanner struct {
	searches  SearchStore
	results   ResultStore
	gateway   Gateway
	evaluator *AlertEvaluator
	cfg       ScannerConfig
	clock     clock.Clock
	metrics   *Metrics
	tracer    trace.Tracer
	logger    logger.Client
}

func NewScanner(searches SearchStore, results ResultStore, gateway Gateway, evaluator *AlertEvaluator,
	cfg ScannerConfig, clk clock.Clock, metrics *Metrics, log logger.Client) *Scanner {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Adults < 1 {
		cfg.Adults = 1
	}
	return &Scanner{
		searches:  searches,
		results:   results,
		gateway:   gateway,
		evaluator: evaluator,
		cfg:       cfg,
		clock:     clk,
		metrics:   metrics,
		tracer:    otel.Tracer("farewatch/tracking"),
		logger:    log,
	}
}

// Run processes all active searches once. Only loading the searches and
// authenticating can fail the run; every per-search failure is reported in
// its Outcome instead.
func (s *Scanner) Run(ctx context.Context) (*ScanReport, error) {
	ctx, span := s.tracer.Start(ctx, "scanner.run")
	defer span.End()

	report := &ScanReport{StartedAt: s.clock.Now(), Results: []Outcome{}}
	start := time.Now()
	defer func() {
		s.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	searches, err := s.searches.ListActiveSearches(ctx)
	if err != nil {
		s.metrics.ScanRuns.WithLabelValues("load_failed").Inc()
		span.SetStatus(codes.Error, "load searches")
		return nil, fmt.Errorf("%w: load active searches: %v", flight.ErrPersistence, err)
	}
	span.SetAttributes(attribute.Int("scanner.searches", len(searches)))

	if len(searches) == 0 {
		s.logger.Info("scan_skipped_no_active_searches")
		s.metrics.ScanRuns.WithLabelValues("empty").Inc()
		report.FinishedAt = s.clock.Now()
		return report, nil
	}

	tok, err := s.gateway.Authenticate(ctx)
	if err != nil {
		s.metrics.ScanRuns.WithLabelValues("auth_failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "authenticate")
		s.logger.Error("scan_auth_failed", logger.Err(err))
		return nil, err
	}

	outcomes := make([]Outcome, len(searches))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, search := range searches {
		g.Go(func() error {
			outcomes[i] = s.processOne(ctx, tok, search)
			return nil
		})
	}
	_ = g.Wait()

	report.Results = outcomes
	report.FinishedAt = s.clock.Now()

	failed := 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
		}
	}
	s.metrics.ScanRuns.WithLabelValues("completed").Inc()
	s.logger.Info("scan_completed",
		logger.Field{Key: "searches", Value: len(outcomes)},
		logger.Field{Key: "failed", Value: failed},
		logger.Field{Key: "elapsed", Value: time.Since(start)},
	)
	return report, nil
}

// processOne never returns an error: failures land in the Outcome, and
// last_checked is written whatever happened.
func (s *Scanner) processOne(ctx context.Context, tok *oauth2.Token, search RecurringSearch) Outcome {
	ctx, span := s.tracer.Start(ctx, "scanner.search",
		trace.WithAttributes(
			attribute.Int64("search.id", search.ID),
			attribute.String("search.route", search.Route()),
		))
	defer span.End()

	out := Outcome{SearchID: search.ID}

	found, err := s.scanSearch(ctx, tok, search)
	if err != nil {
		out.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan search")
		s.metrics.SearchesScanned.WithLabelValues("failed").Inc()
		s.logger.Warn("search_scan_failed",
			logger.Field{Key: "search_id", Value: search.ID},
			logger.Err(err),
		)
	} else {
		out.FlightsFound = &found
		s.metrics.SearchesScanned.WithLabelValues("ok").Inc()
	}

	if err := s.searches.TouchLastChecked(ctx, search.ID, s.clock.Now()); err != nil {
		s.logger.Error("touch_last_checked_failed",
			logger.Field{Key: "search_id", Value: search.ID},
			logger.Err(err),
		)
	}
	return out
}

func (s *Scanner) scanSearch(ctx context.Context, tok *oauth2.Token, search RecurringSearch) (int, error) {
	offers, err := s.gateway.SearchOffers(ctx, tok, s.searchRequest(search))
	if err != nil {
		return 0, err
	}

	if len(offers) > 0 {
		if err := s.results.AppendResults(ctx, search, offers, s.clock.Now()); err != nil {
			return 0, fmt.Errorf("%w: append results for search %d: %v", flight.ErrPersistence, search.ID, err)
		}
		s.metrics.OffersPersisted.Add(float64(len(offers)))
	}

	if _, err := s.evaluator.Evaluate(ctx, search, offers); err != nil {
		return 0, err
	}
	return len(offers), nil
}

func (s *Scanner) searchRequest(search RecurringSearch) flight.SearchRequest {
	req := flight.SearchRequest{
		Origin:        search.Origin,
		Destination:   search.Destination,
		DepartureDate: search.DepartureDate,
		Adults:        s.cfg.Adults,
	}
	if search.ReturnDate != nil {
		req.ReturnDate = *search.ReturnDate
	}
	if search.MaxPrice != nil {
		maxPrice := int(search.MaxPrice.Ceil().IntPart())
		req.MaxPrice = &maxPrice
	}
	return req
}
