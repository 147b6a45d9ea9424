package types

import (
	"strings"
	"time"
)

// Action is the outcome of a single decision.
type Action string

const (
	ActionNone   Action = "NONE"
	ActionOpen   Action = "OPEN"
	ActionClose  Action = "CLOSE"
	ActionReduce Action = "REDUCE"
)

// Side returns the order side an action maps to. NONE has no side.
func (a Action) Side() Side {
	switch a {
	case ActionOpen:
		return SideBuy
	case ActionClose, ActionReduce:
		return SideSell
	}
	return ""
}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Article is one news-like record as delivered by a source port.
type Article struct {
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	URL            string    `json:"url,omitempty"`
	Source         string    `json:"source,omitempty"`
	PublishedAt    time.Time `json:"published_at"` // zero when missing or unparsable
	RawPublished   string    `json:"raw_published,omitempty"`
	SentimentScore *float64  `json:"sentiment_score,omitempty"`
	SentimentLabel string    `json:"sentiment_label,omitempty"`
}

// Text is the string handed to the scorer.
func (a Article) Text() string {
	return strings.TrimSpace(strings.TrimSpace(a.Title) + " " + strings.TrimSpace(a.Description))
}

// ScoredItem is immutable once produced by the scorer.
type ScoredItem struct {
	Text        string    `json:"text"`
	PublishedAt time.Time `json:"published_at"`
	Polarity    float64   `json:"polarity"`
	Importance  float64   `json:"importance"`
}

type AggregateSignal struct {
	Value       float64   `json:"value"`
	SampleCount int       `json:"sample_count"`
	AsOf        time.Time `json:"as_of"`
}

// PositionState is owned by the strategy machine. EntryPrice is zero iff
// Quantity is zero. TradeDay is the calendar day DailyTradeCount belongs to,
// formatted as 2006-01-02.
type PositionState struct {
	Quantity        int     `json:"quantity"`
	EntryPrice      float64 `json:"entry_price"`
	DailyTradeCount int     `json:"daily_trade_count"`
	TradeDay        string  `json:"trade_day"`
}

func (p PositionState) IsFlat() bool { return p.Quantity == 0 }

type TradeDecision struct {
	Action   Action `json:"action"`
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

func (d TradeDecision) IsNone() bool { return d.Action == ActionNone || d.Quantity <= 0 }

// TradeRecord is written only after a confirmed fill and never mutated.
type TradeRecord struct {
	Timestamp         time.Time `json:"timestamp"`
	Symbol            string    `json:"symbol"`
	Action            Action    `json:"action"`
	Side              Side      `json:"side"`
	Quantity          int       `json:"quantity"`
	Price             float64   `json:"price"`
	ResultingPosition int       `json:"resulting_position"`
	OrderID           string    `json:"order_id"`
	Reason            string    `json:"reason"`
	Signal            float64   `json:"signal"`
	CycleID           string    `json:"cycle_id,omitempty"`
}

type OrderReq struct {
	Symbol string
	Side   Side
	Qty    int
	Tag    string
}

// OrderHandle identifies a submitted order for polling.
type OrderHandle struct {
	OrderID     string    `json:"order_id"`
	Symbol      string    `json:"symbol"`
	Side        Side      `json:"side"`
	Qty         int       `json:"qty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type OrderState string

const (
	OrderPending  OrderState = "PENDING"
	OrderFilled   OrderState = "FILLED"
	OrderRejected OrderState = "REJECTED"
)

type OrderStatus struct {
	State     OrderState `json:"state"`
	Price     float64    `json:"price,omitempty"`
	FilledQty int        `json:"filled_qty,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Fill is a confirmed execution.
type Fill struct {
	OrderID  string    `json:"order_id"`
	Side     Side      `json:"side"`
	Quantity int       `json:"quantity"`
	Price    float64   `json:"price"`
	At       time.Time `json:"at"`
}

type CycleOutcome string

const (
	OutcomeTraded          CycleOutcome = "TRADED"
	OutcomeNoAction        CycleOutcome = "NO_ACTION"
	OutcomeNoArticles      CycleOutcome = "NO_ARTICLES"
	OutcomeNoPrice         CycleOutcome = "NO_PRICE"
	OutcomeMarketClosed    CycleOutcome = "MARKET_CLOSED"
	OutcomeExecutionFailed CycleOutcome = "EXECUTION_FAILED"
)

// CycleResult summarises one orchestrator iteration.
type CycleResult struct {
	CycleID   string          `json:"cycle_id"`
	Symbol    string          `json:"symbol"`
	Outcome   CycleOutcome    `json:"outcome"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Fetched   int             `json:"fetched"`
	Skipped   int             `json:"skipped"`
	PreScored bool            `json:"pre_scored"`
	Signal    AggregateSignal `json:"signal"`
	Sentiment string          `json:"sentiment,omitempty"` // positive, negative or neutral label of Signal
	Price     float64         `json:"price"`
	Decision  TradeDecision   `json:"decision"`
	Fill      *Fill           `json:"fill,omitempty"`
	Position  PositionState   `json:"position"`
	Error     string          `json:"error,omitempty"`
}

// Snapshot is the read-only view exposed to the status server.
type Snapshot struct {
	Symbol    string        `json:"symbol"`
	Mode      string        `json:"mode"`
	Position  PositionState `json:"position"`
	Cycles    int           `json:"cycles"`
	Trades    int           `json:"trades"`
	LastCycle *CycleResult  `json:"last_cycle,omitempty"`
}
