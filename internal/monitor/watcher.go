package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapscope/internal/feed"
	"swapscope/internal/metrics"
	"swapscope/internal/model"
	"swapscope/internal/price"
	"swapscope/internal/sink"
)

// DefaultPlaces is the number of fractional digits prices are rendered with.
const DefaultPlaces int32 = 18

// emitTimeout bounds a single sink delivery.
const emitTimeout = 10 * time.Second

// Pool is a watchable liquidity pool.
type Pool interface {
	Address() common.Address
	Token0(ctx context.Context) (common.Address, error)
	SubscribeSwaps(ctx context.Context) (feed.Subscription, error)
}

// Config is shared by every watcher a Monitor starts.
type Config struct {
	Pair    model.TokenPair
	Sink    sink.Sink
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// Places is the number of fractional digits in emitted prices.
	Places int32
	Now    func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Places <= 0 {
		c.Places = DefaultPlaces
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// WatcherState is the lifecycle position of a Watcher.
type WatcherState int32

const (
	StateInitializing WatcherState = iota
	StateStreaming
	StateClosed
)

func (s WatcherState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Watcher drives one pool's swap stream, converting each swap to a price record.
type Watcher struct {
	pool   Pool
	pair   model.TokenPair
	cfg    Config
	logger *zap.Logger
	label  string
	state  atomic.Int32
}

// NewWatcher builds a watcher for pool. cfg.Pair is copied and never modified.
func NewWatcher(pool Pool, cfg Config) *Watcher {
	cfg = cfg.withDefaults()
	label := pool.Address().Hex()
	return &Watcher{
		pool:   pool,
		pair:   cfg.Pair,
		cfg:    cfg,
		logger: cfg.Logger.With(zap.String("pool", label), zap.String("pair", cfg.Pair.String())),
		label:  label,
	}
}

// State reports the current lifecycle state.
func (w *Watcher) State() WatcherState {
	return WatcherState(w.state.Load())
}

// Watch resolves token0, then streams swaps until the stream ends or ctx is cancelled.
// A nil return means the stream completed normally.
func (w *Watcher) Watch(ctx context.Context) error {
	defer w.state.Store(int32(StateClosed))

	token0, err := w.pool.Token0(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("resolve token0: %w", ctx.Err())
		}
		return fmt.Errorf("%w: token0 of %s: %w", ErrResolution, w.label, err)
	}
	if token0 != w.pair.Base.Address && token0 != w.pair.Quote.Address {
		return fmt.Errorf("%w: token0 %s not in pair %s", ErrResolution, token0.Hex(), w.pair.String())
	}

	sub, err := w.pool.SubscribeSwaps(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("subscribe: %w", ctx.Err())
		}
		return fmt.Errorf("%w: subscribe %s: %w", ErrConnection, w.label, err)
	}
	defer sub.Unsubscribe()

	w.state.Store(int32(StateStreaming))
	w.logger.Info("watching swaps", zap.String("token0", token0.Hex()))

	errc := sub.Err()
	deliveries := sub.Deliveries()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("watch %s: %w", w.label, ctx.Err())
		case err, ok := <-errc:
			if !ok || err == nil {
				errc = nil
				continue
			}
			return fmt.Errorf("%w: stream %s: %w", ErrConnection, w.label, err)
		case d, ok := <-deliveries:
			if !ok {
				return w.finish(ctx, errc)
			}
			w.handle(ctx, token0, d)
		}
	}
}

// finish classifies the end of a stream whose deliveries channel closed.
func (w *Watcher) finish(ctx context.Context, errc <-chan error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("watch %s: %w", w.label, ctx.Err())
	}
	select {
	case err, ok := <-errc:
		if ok && err != nil {
			return fmt.Errorf("%w: stream %s: %w", ErrConnection, w.label, err)
		}
	default:
	}
	return nil
}

func (w *Watcher) handle(ctx context.Context, token0 common.Address, d feed.Delivery) {
	if d.Err != nil {
		w.cfg.Metrics.DeliveryFailed(w.label)
		w.logger.Warn("swap delivery failed", zap.Error(d.Err))
		return
	}

	start := time.Now()
	event := d.Event
	w.cfg.Metrics.SwapObserved(w.label)

	ratio, err := price.Price(w.pair, event.SqrtPriceX96, token0)
	if err != nil {
		w.cfg.Metrics.ConversionFailed(w.label)
		fields := []zap.Field{
			zap.Uint64("block", event.BlockNumber),
			zap.String("tx", event.TxHash.Hex()),
			zap.Error(err),
		}
		if errors.Is(err, price.ErrZeroSqrtPrice) || errors.Is(err, price.ErrInvalidSqrtPrice) {
			w.logger.Warn("skipping swap with unusable sqrt price", fields...)
		} else {
			w.logger.Error("price conversion failed", fields...)
		}
		return
	}

	record := model.NewPriceRecord(w.pair, event, price.Decimal(ratio, w.cfg.Places), w.cfg.Now())
	baseRaw, quoteRaw := event.Amount0, event.Amount1
	if token0 != w.pair.Base.Address {
		baseRaw, quoteRaw = event.Amount1, event.Amount0
	}
	record.BaseAmount = price.FormatAmount(baseRaw, w.pair.Base.Decimals)
	record.QuoteAmount = price.FormatAmount(quoteRaw, w.pair.Quote.Decimals)

	// A converted record is delivered even if shutdown starts meanwhile.
	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()
	if err := w.cfg.Sink.Emit(emitCtx, record); err != nil {
		w.cfg.Metrics.SinkFailed(w.label)
		w.logger.Error("emit price record failed",
			zap.Uint64("block", event.BlockNumber),
			zap.Error(err),
		)
		return
	}
	w.cfg.Metrics.RecordEmitted(w.label, time.Since(start))
}
