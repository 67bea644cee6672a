// Package analysis provides the shared types produced by the indicator,
// scoring, level-detection and risk/reward engines.
package analysis

import (
	"time"

	"stockscan/internal/models"
)

// CrossoverType represents the state of the short/long moving-average pair.
type CrossoverType string

const (
	CrossoverBullish CrossoverType = "BULLISH"
	CrossoverBearish CrossoverType = "BEARISH"
	CrossoverNone    CrossoverType = "NONE"
)

// BollingerReading holds the band-derived volatility readings.
type BollingerReading struct {
	WidthPercent float64 // (upper-lower)/mean * 100
	PercentB     float64 // position within the envelope, clamped [0,1]
}

// IndicatorReading is the per-symbol snapshot of indicator values computed
// fresh in each analysis run. It is never persisted by the engines directly.
type IndicatorReading struct {
	Symbol    string
	AsOfDate  time.Time
	SMAShort  float64
	SMALong   float64
	Crossover CrossoverType
	MACDHist  float64
	ADX       float64
	ATR       float64
	Bollinger BollingerReading
}

// ScoreKind identifies which engine produced a DirectionalScore.
type ScoreKind string

const (
	ScoreMomentum         ScoreKind = "momentum"
	ScoreTrend            ScoreKind = "trend"
	ScoreVolatility       ScoreKind = "volatility"
	ScoreRelativeStrength ScoreKind = "relative_strength"
)

// DirectionalScore is a bounded 1-100 score for one direction of trade.
type DirectionalScore struct {
	Kind      ScoreKind
	Direction models.Direction
	Value     int
}

// LevelType represents the type of price level.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// Level represents a clustered support or resistance zone.
type Level struct {
	Price           float64
	Type            LevelType
	Strength        int     // number of clustered extrema
	DistancePercent float64 // signed, relative to the reference price
}

// RiskRewardResult is the terminal output of the risk/reward engine.
type RiskRewardResult struct {
	Entry         float64
	StopLoss      float64
	Target        float64
	Risk          float64
	Reward        float64
	RiskPercent   float64
	RewardPercent float64
	Ratio         float64
	Approved      bool
	Confidence    int // [0,100]
	Method        string
}

// TradeSetup aggregates a RiskRewardResult with an externally supplied
// composite score into a final go/no-go decision.
type TradeSetup struct {
	Symbol         string
	Direction      models.Direction
	EntryPrice     float64
	RiskReward     RiskRewardResult
	CompositeScore int
	FinalApproval  bool
}

// Result is the full per-symbol output of one analysis run, handed to the
// persistence sink as-is.
type Result struct {
	Symbol     string
	Direction  models.Direction
	AsOfDate   time.Time
	Reading    IndicatorReading
	Scores     []DirectionalScore
	Composite  int
	TrendLabel string
	Levels     []Level
	RiskReward RiskRewardResult
	Setup      TradeSetup
	Skipped    bool
	SkipReason string
}
