package lag

import (
	"math"
	"time"

	"github.com/mselser95/polymarket-lag/pkg/types"
	"go.uber.org/zap"
)

// Detector is the decision core: given a reference move and the current quote
// state of a candidate entity, it decides whether the market side has lagged.
// Evaluate is a pure function of its inputs plus the fixed configuration.
type Detector struct {
	config Config
	logger *zap.Logger
}

// Config holds the tunable detection policy. Percent parameters use percent
// units (0.2 means 0.2%).
type Config struct {
	MoveThresholdPct    float64
	MinLag              time.Duration
	TransferCoefficient float64
	QuoteStaleness      time.Duration // 0 disables the staleness bound
	DefaultBias         Bias
	Logger              *zap.Logger
}

// New creates a new lag detector.
func New(cfg Config) *Detector {
	return &Detector{
		config: cfg,
		logger: cfg.Logger,
	}
}

// Evaluate decides whether entity lagged the reference move. quote is the
// state of the chosen outcome token, nil when never observed. The outcome
// token is resolved first: which side lagged determines which quote matters,
// so callers must pass the quote for ChooseOutcome's token.
func (d *Detector) Evaluate(entity *types.Entity, move *types.MoveEvent, quote *types.QuoteState, now time.Time) Verdict {
	start := time.Now()
	defer func() {
		EvaluationDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	outcome := d.ChooseOutcome(entity, move.Direction)

	verdict := Verdict{
		EntityID: entity.ID,
		Symbol:   move.Symbol,
		Outcome:  outcome,
		TokenID:  entity.TokenForOutcome(outcome),
	}

	if quote == nil {
		verdict.Kind = NoData
		d.countVerdict(verdict)
		return verdict
	}

	verdict.QuotePrice = quote.LastPrice
	verdict.TimeSinceQuote = now.Sub(quote.LastUpdatedAt)

	// A quote older than the staleness bound is treated as absent.
	if d.config.QuoteStaleness > 0 && verdict.TimeSinceQuote > d.config.QuoteStaleness {
		verdict.Kind = NoData
		d.countVerdict(verdict)
		return verdict
	}

	// A baseline set within the lag floor only initializes state. An older
	// baseline with no later quote is a market that has not reacted at all,
	// which is exactly what evaluation is for.
	if quote.LastUpdatedAt.Equal(quote.BaselineSetAt) && verdict.TimeSinceQuote <= d.config.MinLag {
		verdict.Kind = Initializing
		d.countVerdict(verdict)
		return verdict
	}

	verdict.PolyChangePct = quote.ChangePct()
	verdict.ExpectedMovePct = math.Abs(move.ChangePct) * d.config.TransferCoefficient

	switch {
	case math.Abs(move.ChangePct) < d.config.MoveThresholdPct:
		verdict.Kind = NoLag
		verdict.Reason = ReasonBelowThreshold
	case math.Abs(verdict.PolyChangePct) >= verdict.ExpectedMovePct:
		// Market already caught up; chasing it would buy the top.
		verdict.Kind = NoLag
		verdict.Reason = ReasonAlreadyReacted
	case verdict.TimeSinceQuote <= d.config.MinLag:
		// A fresh quote at the baseline is "confirmed unchanged", not lagging.
		verdict.Kind = NoLag
		verdict.Reason = ReasonTooRecent
	default:
		verdict.Kind = LagDetected
	}

	d.countVerdict(verdict)

	if verdict.Kind == LagDetected {
		d.logger.Info("lag-detected",
			zap.String("entity-id", entity.ID),
			zap.String("symbol", move.Symbol),
			zap.String("outcome", outcome),
			zap.Float64("move-change-pct", move.ChangePct),
			zap.Float64("poly-change-pct", verdict.PolyChangePct),
			zap.Float64("expected-move-pct", verdict.ExpectedMovePct),
			zap.Duration("time-since-quote", verdict.TimeSinceQuote))
	} else {
		d.logger.Debug("lag-verdict",
			zap.String("entity-id", entity.ID),
			zap.String("kind", string(verdict.Kind)),
			zap.String("reason", string(verdict.Reason)))
	}

	return verdict
}

// ChooseOutcome resolves which outcome token a move points at for an entity.
func (d *Detector) ChooseOutcome(entity *types.Entity, direction types.Direction) string {
	bias := Classify(entity.Title, d.config.DefaultBias)
	return PickOutcome(bias, direction)
}

// MaxEntryPrice applies the price-protection gate for a candidate entry.
func (d *Detector) MaxEntryPrice(currentPrice, moveChangePct, minProfitPct float64) float64 {
	return MaxAcceptableEntry(currentPrice, moveChangePct, minProfitPct, d.config.TransferCoefficient)
}

func (d *Detector) countVerdict(v Verdict) {
	VerdictsTotal.WithLabelValues(string(v.Kind), string(v.Reason)).Inc()
}
