package interfaces

import (
	"time"

	"sentiment-trader/internal/types"
)

type EodSummarizer interface {
	SummarizeDay(day time.Time, records []types.TradeRecord) (csvPath string, err error)
}
