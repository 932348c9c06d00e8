package analyzer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/equitysage/equitysage/internal/domain"
)

// Trading-day windows for the period returns.
const (
	returnWindow1M = 22
	returnWindow3M = 66
	returnWindow6M = 132
)

// MarketReport is the structured data of the market stage.
type MarketReport struct {
	BasicInfo BasicInfo       `json:"basic_info"`
	PriceData PriceData       `json:"price_data"`
	Valuation MarketValuation `json:"valuation"`
	Week52    Week52          `json:"52_week"`
	Returns   Returns         `json:"returns"`
}

type BasicInfo struct {
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Exchange string `json:"exchange"`
}

type PriceData struct {
	CurrentPrice  float64 `json:"current_price"`
	PreviousClose float64 `json:"previous_close"`
	Open          float64 `json:"open"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	Volume        int64   `json:"volume"`
	AvgVolume     int64   `json:"avg_volume"`
}

type MarketValuation struct {
	MarketCap          domain.Metric `json:"market_cap"`
	MarketCapFormatted string        `json:"market_cap_formatted"`
}

type Week52 struct {
	High            float64       `json:"high"`
	Low             float64       `json:"low"`
	PositionPercent domain.Metric `json:"position_percent"`
}

type Returns struct {
	OneMonth   domain.Metric `json:"1_month"`
	ThreeMonth domain.Metric `json:"3_month"`
	SixMonth   domain.Metric `json:"6_month"`
	OneYear    domain.Metric `json:"1_year"`
}

func buildMarketReport(snap *domain.MarketSnapshot) *MarketReport {
	return &MarketReport{
		BasicInfo: BasicInfo{
			Name:     snap.Company.Name,
			Sector:   snap.Company.Sector,
			Industry: snap.Company.Industry,
			Exchange: snap.Ticker.ExchangeName(),
		},
		PriceData: PriceData{
			CurrentPrice:  round2dec(snap.Price),
			PreviousClose: round2dec(snap.PreviousClose),
			Open:          round2dec(snap.Open),
			DayHigh:       round2dec(snap.DayHigh),
			DayLow:        round2dec(snap.DayLow),
			Volume:        snap.Volume,
			AvgVolume:     snap.AvgVolume,
		},
		Valuation: MarketValuation{
			MarketCap:          snap.MarketCap,
			MarketCapFormatted: formatMarketCap(snap.MarketCap),
		},
		Week52: Week52{
			High:            round2dec(snap.High52W),
			Low:             round2dec(snap.Low52W),
			PositionPercent: snap.Position52W().Round(1),
		},
		Returns: Returns{
			OneMonth:   periodReturn(snap.Bars, returnWindow1M),
			ThreeMonth: periodReturn(snap.Bars, returnWindow3M),
			SixMonth:   periodReturn(snap.Bars, returnWindow6M),
			OneYear:    periodReturn(snap.Bars, len(snap.Bars)),
		},
	}
}

// periodReturn computes the percent change over the last window bars.
func periodReturn(bars []domain.Bar, window int) domain.Metric {
	if window < 2 || len(bars) < 2 {
		return domain.Unavailable
	}
	if window > len(bars) {
		window = len(bars)
	}
	start := bars[len(bars)-window].Close
	end := bars[len(bars)-1].Close
	if start.IsZero() {
		return domain.Unavailable
	}
	change := end.Sub(start).Div(start).Mul(decimal.NewFromInt(100))
	return domain.MetricOf(change).Round(2)
}

// formatMarketCap renders the market cap in crores, the way Indian market
// data is conventionally quoted.
func formatMarketCap(cap domain.Metric) string {
	if !cap.Valid {
		return "N/A"
	}
	crores := cap.Value.Div(decimal.NewFromInt(10_000_000))
	switch {
	case crores.GreaterThanOrEqual(decimal.NewFromInt(100_000)):
		return fmt.Sprintf("₹%sL Cr", crores.Div(decimal.NewFromInt(100_000)).StringFixed(2))
	case crores.GreaterThanOrEqual(decimal.NewFromInt(1_000)):
		return fmt.Sprintf("₹%sK Cr", crores.Div(decimal.NewFromInt(1_000)).StringFixed(2))
	default:
		return fmt.Sprintf("₹%s Cr", crores.StringFixed(2))
	}
}

func round2dec(v decimal.Decimal) float64 {
	return v.Round(2).InexactFloat64()
}
