package models

import "time"

// PaymentSchedule represents one monthly payment of an amortized loan
type PaymentSchedule struct {
	Month       int       `json:"month"`
	PaymentDate time.Time `json:"payment_date"`
	Payment     float64   `json:"payment"`
	Principal   float64   `json:"principal"`
	Interest    float64   `json:"interest"`
	Balance     float64   `json:"balance"`
}
