package models

import "time"

// ContactForm is the lead-capture form filled in by a visitor
type ContactForm struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Order is a submitted calculation together with the visitor's contacts
type Order struct {
	ID         int64             `json:"id"`
	Form       ContactForm       `json:"form"`
	Data       LoanConfiguration `json:"data"`
	ResultData LoanResult        `json:"resultData"`
	HMAC       string            `json:"hmac,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
