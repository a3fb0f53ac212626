package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// LogFilterer reads logs by block range, for transports without push notifications.
type LogFilterer interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// PollConfig holds runtime settings for a polling subscription.
type PollConfig struct {
	Interval     time.Duration
	BatchSize    uint64
	MaxRetries   int
	RetryBackoff time.Duration
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Interval <= 0 {
		c.Interval = 4 * time.Second
	}
	if c.BatchSize == 0 {
		c.BatchSize = 2000
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	return c
}

// BlockRange represents an inclusive block range.
type BlockRange struct {
	From uint64
	To   uint64
}

// SplitRange splits [from, to] into consecutive ranges of at most batchSize blocks.
func SplitRange(from, to, batchSize uint64) ([]BlockRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to block must be >= from block")
	}

	var ranges []BlockRange
	for start := from; ; start += batchSize {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, BlockRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
	}
}

type pollSubscription struct {
	*stream
	cfg    PollConfig
	source LogFilterer
	query  Query
	decode DecodeFunc
	logger *zap.Logger
	next   uint64
}

// Poll follows matching logs by polling eth_getLogs from the block after the current head.
// RPC failures are retried with exponential backoff; exhausting the retries ends the stream fatally.
func Poll(ctx context.Context, source LogFilterer, query Query, decode DecodeFunc, cfg PollConfig, logger *zap.Logger) (Subscription, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	var head uint64
	err := withRetry(ctx, cfg.MaxRetries, cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		head, err = source.LatestBlockNumber(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get latest block: %w", err)
	}

	pollCtx, cancel := context.WithCancel(ctx)
	s := &pollSubscription{
		stream: newStream(cancel),
		cfg:    cfg,
		source: source,
		query:  query,
		decode: decode,
		logger: logger,
		next:   head + 1,
	}
	go s.loop(pollCtx)
	return s, nil
}

func (s *pollSubscription) loop(ctx context.Context) {
	defer close(s.deliveries)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-ticker.C:
		}

		if err := s.pollOnce(ctx); err != nil {
			if ctx.Err() == nil {
				s.fail(err)
			}
			return
		}
	}
}

func (s *pollSubscription) pollOnce(ctx context.Context) error {
	var head uint64
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		head, err = s.source.LatestBlockNumber(ctx)
		if err != nil {
			s.logger.Warn("latest block fetch failed", zap.Error(err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("get latest block: %w", err)
	}
	if head < s.next {
		return nil
	}

	ranges, err := SplitRange(s.next, head, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		logs, err := s.filterLogsWithRetry(ctx, blockRange)
		if err != nil {
			return fmt.Errorf("filter logs: %w", err)
		}

		s.logger.Debug("poll batch", zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To), zap.Int("logs", len(logs)))

		seen := make(map[string]struct{}, len(logs))
		for _, log := range logs {
			if log.BlockNumber < blockRange.From || isDuplicate(seen, log) {
				continue
			}
			if !s.deliver(decodeDelivery(log, s.decode)) {
				return ctx.Err()
			}
		}
		s.next = blockRange.To + 1
	}
	return nil
}

func (s *pollSubscription) filterLogsWithRetry(ctx context.Context, blockRange BlockRange) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = s.source.FilterLogs(ctx, blockRange.From, blockRange.To, s.query.Addresses, s.query.Topic0)
		if err != nil {
			s.logger.Warn("filter logs failed", zap.Error(err), zap.Uint64("from", blockRange.From), zap.Uint64("to", blockRange.To))
		}
		return err
	})
	return logs, err
}

// isDuplicate drops logs some providers repeat within one eth_getLogs response.
func isDuplicate(seen map[string]struct{}, log types.Log) bool {
	id := fmt.Sprintf("%d:%s:%d", log.BlockNumber, log.TxHash.Hex(), log.Index)
	if _, ok := seen[id]; ok {
		return true
	}
	seen[id] = struct{}{}
	return false
}
