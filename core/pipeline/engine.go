package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"trade-quote/core/aggregate"
	"trade-quote/core/determinism"
	"trade-quote/core/lookup"
	"trade-quote/core/resolver"
	"trade-quote/core/types"
	"trade-quote/core/validation"
	"trade-quote/internal/errors"
	"trade-quote/internal/logging"
)

// Request is everything one quote calculation consumes
type Request struct {
	Quote    types.QuoteDefaults `json:"quote"`
	Products []types.Product     `json:"products"`
	Admin    types.AdminSettings `json:"admin"`

	// Reporting converts the summary into a second currency. When nil the
	// summary is reported in the quote currency through an identity conversion.
	Reporting *types.CurrencyConversion `json:"reporting,omitempty"`
}

// Result is the complete output of a successful calculation
type Result struct {
	Terms      types.QuoteTerms      `json:"terms"`
	Products   []types.PhaseResult   `json:"products"`
	Aggregates types.QuoteAggregates `json:"aggregates"`
	Summary    types.QuoteSummary    `json:"summary"`
}

// Engine runs the quote pipeline. It holds no per-quote state and is safe
// for concurrent use.
type Engine struct {
	tables    *lookup.Tables
	validator *validation.Validator
	workers   int
	logger    *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithWorkers sets the per-product worker pool size
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an engine over a set of lookup tables
func New(tables *lookup.Tables, opts ...Option) *Engine {
	if tables == nil {
		tables = lookup.Default()
	}
	e := &Engine{
		tables:    tables,
		validator: validation.New(),
		workers:   DefaultWorkers,
		logger:    logging.Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate validates a quote and runs every stage for every product.
// Any failure fails the whole quote; no partial result is returned.
func (e *Engine) Calculate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	terms, inputs, err := resolve(req)
	if err != nil {
		return nil, err
	}
	if err := e.validator.Validate(terms, inputs, req.Admin); err != nil {
		return nil, err
	}

	hash, err := determinism.HashJSON(req)
	if err != nil {
		return nil, errors.Internal("hash quote input", err)
	}
	quoteID := terms.ID
	if quoteID == "" {
		quoteID = hash.String()
	}
	logger := e.logger.With(logging.QuoteID(quoteID))

	r := &run{
		quoteID:   quoteID,
		tables:    e.tables,
		terms:     terms,
		admin:     req.Admin,
		dailyRate: req.Admin.DailyRate(),
		inputs:    inputs,
		results:   make([]types.PhaseResult, len(inputs)),
	}

	exec := NewConcurrentExecutor(e.workers)
	for _, s := range stages {
		if err := e.runStage(ctx, exec, r, s, logger); err != nil {
			logger.Debug("stage failed", logging.Phase(s.name), zap.Error(err))
			return nil, err
		}
		logger.Debug("stage complete", logging.Phase(s.name))
	}

	conversion := types.Identity(terms.Currency, terms.ReferenceDate())
	if req.Reporting != nil {
		conversion = *req.Reporting
	}
	summary, err := aggregate.Summarize(r.results, r.agg, terms, conversion)
	if err != nil {
		return nil, err
	}
	summary.QuoteID = quoteID
	summary.InputHash = hash.Hex()

	stats := exec.GetStats()
	logger.Info("quote calculated",
		zap.Int("products", len(inputs)),
		zap.String("sale_total", summary.Totals.SaleWithVAT.StringFixed(types.MoneyPlaces)),
		zap.String("currency", terms.Currency.String()),
		zap.Int64("tasks", stats.Tasks),
		zap.Int("workers", stats.MaxConcurrency),
		zap.Duration("elapsed", stats.Elapsed),
	)

	return &Result{
		Terms:      terms,
		Products:   r.results,
		Aggregates: r.agg,
		Summary:    summary,
	}, nil
}

func (e *Engine) runStage(ctx context.Context, exec *ConcurrentExecutor, r *run, s stage, logger *zap.Logger) error {
	if s.quote != nil {
		if err := s.quote(r); err != nil {
			return quoteError(err, s.name)
		}
		return nil
	}
	return exec.ExecuteStage(ctx, len(r.inputs), func(_ context.Context, i int) error {
		if err := s.product(r, i); err != nil {
			logger.Debug("product failed",
				logging.Phase(s.name),
				logging.ProductIndex(r.inputs[i].Index),
				zap.String("sku", r.inputs[i].SKU),
				zap.Error(err),
			)
			return productError(err, s.name, r.inputs[i])
		}
		return nil
	})
}

// resolve freezes the typed quote terms and product inputs
func resolve(req Request) (types.QuoteTerms, []types.ProductInputs, error) {
	terms, err := resolver.ResolveQuote(req.Quote)
	if err != nil {
		return types.QuoteTerms{}, nil, err
	}
	inputs := make([]types.ProductInputs, len(req.Products))
	for i, p := range req.Products {
		in, err := resolver.ResolveProduct(i, p, req.Quote)
		if err != nil {
			if e, ok := errors.As(err); ok {
				return types.QuoteTerms{}, nil, e.WithContext("product_index", i)
			}
			return types.QuoteTerms{}, nil, fmt.Errorf("product %d: %w", i, err)
		}
		inputs[i] = in
	}
	return terms, inputs, nil
}
