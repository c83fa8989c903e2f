package domain

// Equity is one row of the securities-in-focus feed.
type Equity struct {
	Security      string  `json:"security"`
	LastPrice     float64 `json:"lastPrice"`
	PercentChange float64 `json:"pChange"`
	Volume        int64   `json:"totalTradedVolume"`
	IsFNO         bool    `json:"is_fno"`
	OnDate        string  `json:"on_date,omitempty"`
}

// Event is one corporate event calendar entry.
type Event struct {
	Security  string `json:"security"`
	Company   string `json:"company,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
	EventDate string `json:"eventDate"`
}

// FIIDII is one institutional investment row (FII/DII buy and sell values).
type FIIDII struct {
	Category  string  `json:"category"`
	BuyValue  float64 `json:"buyValue"`
	SellValue float64 `json:"sellValue"`
	NetValue  float64 `json:"netValue"`
	OnDate    string  `json:"on_date,omitempty"`
}

// TradingDate marks a single trading session date.
type TradingDate struct {
	Date      string `json:"date"`
	IsSpecial bool   `json:"is_special,omitempty"`
}
