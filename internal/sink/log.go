package sink

import (
	"context"

	"go.uber.org/zap"

	"swapscope/internal/model"
)

// Log writes one structured line per record.
type Log struct {
	logger *zap.Logger
}

func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

func (s *Log) Emit(_ context.Context, record model.PriceRecord) error {
	s.logger.Info("swap",
		zap.String("pool", record.Pool),
		zap.String("pair", record.Base+"/"+record.Quote),
		zap.String("price", record.Price.String()),
		zap.Uint64("block", record.BlockNumber),
		zap.String("tx", record.TxHash),
		zap.String("sender", record.Sender),
		zap.String("recipient", record.Recipient),
		zap.String("amount0", record.Amount0),
		zap.String("amount1", record.Amount1),
		zap.String("base_amount", record.BaseAmount),
		zap.String("quote_amount", record.QuoteAmount),
		zap.String("liquidity", record.Liquidity),
		zap.Int32("tick", record.Tick),
	)
	return nil
}
