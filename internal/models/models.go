// Package models provides domain models for the analysis application.
package models

import (
	"time"
)

// Cadence represents the bar interval an analysis runs on.
type Cadence string

const (
	CadenceFiveMin Cadence = "5min"
	CadenceHourly  Cadence = "hourly"
	CadenceDaily   Cadence = "daily"
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// Direction represents the direction of a proposed trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Bar represents OHLCV data for one symbol on one trading day.
type Bar struct {
	Symbol   string
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	AdjClose float64 // 0 when the source provides no adjusted close
}

// Valid reports whether the bar satisfies the OHLC ordering invariant
// with non-negative prices.
func (b Bar) Valid() bool {
	if b.Low < 0 || b.Volume < 0 {
		return false
	}
	maxOC := b.Open
	if b.Close > maxOC {
		maxOC = b.Close
	}
	minOC := b.Open
	if b.Close < minOC {
		minOC = b.Close
	}
	return b.High >= maxOC && minOC >= b.Low
}

// Quote represents a single-point price lookup, used for pre/post-market
// gap adjustment.
type Quote struct {
	Symbol    string
	Price     float64
	Volume    int64
	Timestamp time.Time
}

// JournalEntry records a trade taken off an approved setup, for later
// review against what the analysis predicted.
type JournalEntry struct {
	ID         int64
	Symbol     string
	Direction  Direction
	EntryDate  time.Time
	EntryPrice float64
	StopLoss   float64
	Target     float64
	ExitPrice  float64 // 0 while the trade is open
	Notes      string
	CreatedAt  time.Time
}

// Instrument represents a scannable instrument from the watch-list source.
// The analysis core treats it as read-only input.
type Instrument struct {
	Symbol         string
	Name           string
	LastKnownPrice float64
	Volume         int64
	DollarVolume   float64
	Float          float64
	Spread         float64
	MarketCap      float64
}
