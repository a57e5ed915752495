package yahoo

import "time"

// HistoricalPrice represents a single daily bar
type HistoricalPrice struct {
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
}

// Quote is the latest traded price of a symbol
type Quote struct {
	Symbol   string    `json:"symbol"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	Time     time.Time `json:"time"`
}

// chartResponse is the v8 chart API payload. Price arrays hold null for
// days without a trade, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				RegularMarketTime  int64    `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *chartError `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
