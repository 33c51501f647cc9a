package models

// Program is a named mortgage program with a fixed annual rate
type Program struct {
	ID       string  `json:"id" yaml:"id"`
	Title    string  `json:"title" yaml:"title"`
	Rate     float64 `json:"rate" yaml:"rate"`
	ZeroDown bool    `json:"zero_down" yaml:"zero_down"` // allows a down payment of 0
}
