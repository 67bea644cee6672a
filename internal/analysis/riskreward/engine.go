// Package riskreward derives stop-loss and target prices for a proposed
// trade and decides whether the resulting reward:risk ratio clears the
// configured bar. Structure-based stops (off detected support/resistance)
// are preferred; ATR-based stops are the fallback when no usable level
// exists.
package riskreward

import (
	"fmt"
	"math"

	"stockscan/internal/analysis"
	"stockscan/internal/analysis/levels"
	"stockscan/internal/models"
)

const (
	// DefaultMinRatio is the minimum reward:risk ratio for approval.
	DefaultMinRatio = 2.0
	// DefaultMinScore is the minimum composite score for final approval.
	DefaultMinScore = 60

	// maxStopDistance is how far a structural stop may sit from entry.
	maxStopDistance = 0.05
	// maxTargetDistance is how far a structural target may sit from entry.
	maxTargetDistance = 0.15

	// stopBuffer places the stop just beyond the level so a retest of the
	// level itself does not trigger it.
	stopBuffer = 0.005
	// targetBuffer places the target just inside the level, where fills
	// are realistic.
	targetBuffer = 0.005

	atrStopMultiple   = 2.0
	atrTargetMultiple = 3.0

	// ratioEpsilon absorbs float rounding when the computed ratio lands
	// exactly on the minimum (the 2x-risk fallback target produces ratio
	// 2.0 up to rounding).
	ratioEpsilon = 1e-9
)

// Engine computes risk/reward decisions against a minimum ratio.
type Engine struct {
	minRatio float64
}

// NewEngine creates an engine with the default minimum ratio.
func NewEngine() *Engine {
	return &Engine{minRatio: DefaultMinRatio}
}

// NewEngineWithRatio creates an engine with a custom minimum ratio.
func NewEngineWithRatio(minRatio float64) *Engine {
	if minRatio <= 0 {
		minRatio = DefaultMinRatio
	}
	return &Engine{minRatio: minRatio}
}

// Evaluate derives stop and target for a trade at entry, using the
// detected levels where they are close enough and falling back to ATR
// multiples otherwise. The zero-risk guard maps a degenerate stop to
// ratio 0 and rejection rather than a division error.
func (e *Engine) Evaluate(entry, atr float64, lvls []analysis.Level, direction models.Direction) analysis.RiskRewardResult {
	result := analysis.RiskRewardResult{Entry: entry}
	if entry <= 0 || atr < 0 || math.IsNaN(entry) || math.IsNaN(atr) {
		result.Method = "invalid input"
		return result
	}

	stop, stopConf, stopMethod := e.stopLoss(entry, atr, lvls, direction)
	risk := math.Abs(entry - stop)

	target, targetConf, targetMethod := e.target(entry, atr, risk, lvls, direction)
	reward := math.Abs(target - entry)

	result.StopLoss = stop
	result.Target = target
	result.Risk = risk
	result.Reward = reward
	result.RiskPercent = risk / entry * 100
	result.RewardPercent = reward / entry * 100
	result.Confidence = int(math.Round(float64(stopConf+targetConf) / 2))
	result.Method = fmt.Sprintf("stop: %s, target: %s", stopMethod, targetMethod)

	if risk == 0 {
		result.Ratio = 0
		result.Approved = false
		return result
	}
	result.Ratio = reward / risk
	result.Approved = result.Ratio+ratioEpsilon >= e.minRatio
	return result
}

// stopLoss picks the protective stop. A structural level within
// maxStopDistance wins, with confidence scaled by its strength; otherwise
// the stop falls back to an ATR multiple.
func (e *Engine) stopLoss(entry, atr float64, lvls []analysis.Level, direction models.Direction) (price float64, confidence int, method string) {
	if direction == models.Short {
		if level := levels.NearestAbove(lvls, analysis.LevelResistance, entry); level != nil {
			if (level.Price-entry)/entry <= maxStopDistance {
				conf := minInt(90, 60+level.Strength*5)
				return level.Price * (1 + stopBuffer), conf, fmt.Sprintf("resistance %.2f (strength %d)", level.Price, level.Strength)
			}
		}
		return entry + atrStopMultiple*atr, 60, "2x ATR above entry"
	}

	if level := levels.NearestBelow(lvls, analysis.LevelSupport, entry); level != nil {
		if (entry-level.Price)/entry <= maxStopDistance {
			conf := minInt(90, 60+level.Strength*5)
			return level.Price * (1 - stopBuffer), conf, fmt.Sprintf("support %.2f (strength %d)", level.Price, level.Strength)
		}
	}
	return entry - atrStopMultiple*atr, 60, "2x ATR below entry"
}

// target picks the profit target. A structural level within
// maxTargetDistance wins; the fallback is whichever is farther of 2x the
// risk and 3x the ATR, so the fallback target can never undercut the
// minimum ratio by construction.
func (e *Engine) target(entry, atr, risk float64, lvls []analysis.Level, direction models.Direction) (price float64, confidence int, method string) {
	if direction == models.Short {
		if level := levels.NearestBelow(lvls, analysis.LevelSupport, entry); level != nil {
			if (entry-level.Price)/entry <= maxTargetDistance {
				conf := minInt(85, 55+level.Strength*5)
				return level.Price * (1 + targetBuffer), conf, fmt.Sprintf("support %.2f (strength %d)", level.Price, level.Strength)
			}
		}
		return math.Min(entry-2*risk, entry-atrTargetMultiple*atr), 65, "min(2x risk, 3x ATR) below entry"
	}

	if level := levels.NearestAbove(lvls, analysis.LevelResistance, entry); level != nil {
		if (level.Price-entry)/entry <= maxTargetDistance {
			conf := minInt(85, 55+level.Strength*5)
			return level.Price * (1 - targetBuffer), conf, fmt.Sprintf("resistance %.2f (strength %d)", level.Price, level.Strength)
		}
	}
	return math.Max(entry+2*risk, entry+atrTargetMultiple*atr), 65, "max(2x risk, 3x ATR) above entry"
}

// ApproveTrade combines a risk/reward decision with an externally computed
// composite score into the final go/no-go.
func (e *Engine) ApproveTrade(rr analysis.RiskRewardResult, compositeScore, minScore int) bool {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return compositeScore >= minScore && rr.Approved
}

// BuildSetup assembles the terminal trade record for persistence.
func (e *Engine) BuildSetup(symbol string, direction models.Direction, rr analysis.RiskRewardResult, compositeScore, minScore int) analysis.TradeSetup {
	return analysis.TradeSetup{
		Symbol:         symbol,
		Direction:      direction,
		EntryPrice:     rr.Entry,
		RiskReward:     rr,
		CompositeScore: compositeScore,
		FinalApproval:  e.ApproveTrade(rr, compositeScore, minScore),
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
