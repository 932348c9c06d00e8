package domain

import "time"

// Quote projection of a market snapshot for display.
type Quote struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	MarketCap     Metric  `json:"market_cap"`
}

// QuoteFromSnapshot projects a market snapshot into a quote. The projection
// is deterministic, so repeated requests served from the same cached
// snapshot produce identical quotes.
func QuoteFromSnapshot(s *MarketSnapshot) Quote {
	price, _ := s.Price.Round(2).Float64()
	change, _ := s.Change().Round(2).Float64()
	changePct, _ := s.ChangePercent().Round(2).Float64()
	return Quote{
		Ticker:        s.Ticker.Base,
		Name:          s.Company.Name,
		Price:         price,
		Change:        change,
		ChangePercent: changePct,
		Volume:        s.Volume,
		MarketCap:     s.MarketCap.Round(0),
	}
}

// ComparisonResult cross-sectional view over several tickers. Quotes keep
// the input ordering of the succeeding subset; tickers that failed to fetch
// are listed explicitly.
type ComparisonResult struct {
	Quotes         []Quote   `json:"quotes"`
	FailedTickers  []string  `json:"failed_tickers,omitempty"`
	HighestPrice   string    `json:"highest_price"`
	LowestPrice    string    `json:"lowest_price"`
	BestPerformer  string    `json:"best_performer"`
	WorstPerformer string    `json:"worst_performer"`
	GeneratedAt    time.Time `json:"generated_at"`
}
