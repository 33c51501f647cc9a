package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/mortgage-service/internal/config"
	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/Dan9191/mortgage-service/internal/view"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	format *view.Formatter
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, format *view.Formatter, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		format: format,
		logger: logger,
	}
}

// BuildOrderNotification composes the message sent to the sales team for a new order
func (s *Sender) BuildOrderNotification(order *models.Order) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{s.cfg.SalesEmail}
	if order.Form.Email != "" {
		e.ReplyTo = []string{order.Form.Email}
	}
	e.Subject = fmt.Sprintf("New mortgage request from %s", order.Form.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nPhone: %s\n\n", order.Form.Name, order.Form.Email, order.Form.Phone)
	fmt.Fprintf(&b, "Program: %s (%s)\n", order.Data.ProgramID, s.format.Percent(order.ResultData.RatePercent))
	fmt.Fprintf(&b, "Property price: %s\n", s.format.Money(order.Data.Price))
	fmt.Fprintf(&b, "Down payment: %s\n", s.format.Money(order.Data.DownPayment))
	fmt.Fprintf(&b, "Term: %d years\n\n", order.Data.TermYears)
	fmt.Fprintf(&b, "Monthly payment: %s\n", s.format.Money(order.ResultData.MonthlyPayment))
	fmt.Fprintf(&b, "Total interest: %s\n", s.format.Money(order.ResultData.TotalInterestPaid))
	fmt.Fprintf(&b, "Amount financed: %s\n", s.format.Money(order.ResultData.PrincipalFinanced))
	e.Text = []byte(b.String())
	return e
}

// SendOrderNotification mails a new order to the sales team.
// Without SMTP_HOST the message is only logged.
func (s *Sender) SendOrderNotification(order *models.Order) error {
	e := s.BuildOrderNotification(order)

	if s.cfg.SMTPHost == "" {
		s.logger.Warnf("SMTP is not configured, skipping email: %s", e.Subject)
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send order email to %s: %v", s.cfg.SalesEmail, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", s.cfg.SalesEmail, e.Subject)
	return nil
}
