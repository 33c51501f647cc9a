package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Dan9191/mortgage-service/internal/config"
	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/Dan9191/mortgage-service/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidOrder       = errors.New("invalid order")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// OrderRepository stores submitted orders
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	ListOrders(ctx context.Context, limit int) ([]models.Order, error)
}

// Notifier tells the sales team about a new order
type Notifier interface {
	SendOrderNotification(order *models.Order) error
}

// Service handles business logic
type Service struct {
	repo     OrderRepository
	mailer   Notifier
	catalog  *mortgage.Catalog
	log      *logrus.Logger
	config   *config.Config
	inFlight sync.Map
}

// NewService initializes a new service
func NewService(repo OrderRepository, mailer Notifier, catalog *mortgage.Catalog, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{repo: repo, mailer: mailer, catalog: catalog, log: log, config: cfg}
}

// Programs returns the program catalog
func (s *Service) Programs() []models.Program {
	return s.catalog.All()
}

// Calculate runs a one-off calculation. Each present field is applied through the
// model the same way the matching text input would, so the usual clamping applies.
func (s *Service) Calculate(programID string, price, downPayment, termYears *float64) (models.LoanConfiguration, models.LoanResult, error) {
	model := mortgage.NewModel(s.catalog)
	updates := make([]models.Update, 0, 4)
	if programID != "" {
		updates = append(updates, models.Update{Origin: models.OriginRadioProgram, ProgramID: &programID})
	}
	if price != nil {
		updates = append(updates, models.Update{Origin: models.OriginCostInput, Price: price})
	}
	if downPayment != nil {
		updates = append(updates, models.Update{Origin: models.OriginPaymentInput, DownPayment: downPayment})
	}
	if termYears != nil {
		updates = append(updates, models.Update{Origin: models.OriginTimeInput, TermYears: termYears})
	}
	for _, u := range updates {
		if err := model.SetData(u); err != nil {
			return models.LoanConfiguration{}, models.LoanResult{}, err
		}
	}
	return model.Data(), model.Results(), nil
}

func validateForm(form models.ContactForm) error {
	if strings.TrimSpace(form.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidOrder)
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", ErrInvalidOrder, form.Email)
	}
	digits := 0
	for _, r := range form.Phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 10 {
		return fmt.Errorf("%w: invalid phone %q", ErrInvalidOrder, form.Phone)
	}
	return nil
}

// SubmitOrder stores a lead and notifies the sales team. Loan figures are
// recomputed from the submitted parameters rather than trusted. A second
// submission for the same email is rejected while the first is in flight.
func (s *Service) SubmitOrder(ctx context.Context, order *models.Order) error {
	if err := validateForm(order.Form); err != nil {
		return err
	}

	key := strings.ToLower(strings.TrimSpace(order.Form.Email))
	if _, busy := s.inFlight.LoadOrStore(key, struct{}{}); busy {
		return ErrSubmissionInFlight
	}
	defer s.inFlight.Delete(key)

	model, err := mortgage.Restore(s.catalog, order.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrder, err)
	}
	order.Data = model.Data()
	order.ResultData = model.Results()

	stored := *order
	stored.HMAC = utils.GenerateHMAC(s.config.HMACSecret, signFields(*order)...)
	for _, f := range []*string{&stored.Form.Name, &stored.Form.Email, &stored.Form.Phone} {
		enc, err := utils.Encrypt(*f, s.config.EncryptionKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt contact: %w", err)
		}
		*f = enc
	}

	if err := s.repo.CreateOrder(ctx, &stored); err != nil {
		return err
	}
	order.ID = stored.ID
	order.CreatedAt = stored.CreatedAt
	order.HMAC = stored.HMAC

	s.log.WithFields(logrus.Fields{
		"order":   order.ID,
		"program": order.Data.ProgramID,
	}).Info("Order stored")

	if err := s.mailer.SendOrderNotification(order); err != nil {
		return fmt.Errorf("failed to notify about order %d: %w", order.ID, err)
	}
	return nil
}

// ListOrders returns recent orders with contacts decrypted.
// Orders whose signature does not match are skipped.
func (s *Service) ListOrders(ctx context.Context, limit int) ([]models.Order, error) {
	stored, err := s.repo.ListOrders(ctx, limit)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(stored))
	for _, o := range stored {
		var decryptErr error
		for _, f := range []*string{&o.Form.Name, &o.Form.Email, &o.Form.Phone} {
			plain, err := utils.Decrypt(*f, s.config.EncryptionKey)
			if err != nil {
				decryptErr = err
				break
			}
			*f = plain
		}
		if decryptErr != nil {
			s.log.Warnf("Skipping order %d: failed to decrypt contact: %v", o.ID, decryptErr)
			continue
		}
		if !utils.VerifyHMAC(o.HMAC, s.config.HMACSecret, signFields(o)...) {
			s.log.Warnf("Skipping order %d: HMAC mismatch", o.ID)
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// signFields lists what the order HMAC covers, in order
func signFields(o models.Order) []string {
	return []string{
		o.Form.Name, o.Form.Email, o.Form.Phone,
		o.Data.ProgramID,
		strconv.FormatFloat(o.Data.Price, 'f', 2, 64),
		strconv.FormatFloat(o.Data.DownPayment, 'f', 2, 64),
		strconv.Itoa(o.Data.TermYears),
	}
}

// Login authenticates the operator and returns a JWT token
func (s *Service) Login(username, password string) (string, error) {
	if s.config.AdminPasswordHash == "" || username != s.config.AdminUsername {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Operator logged in: %s", username)
	return tokenString, nil
}

// ParseToken validates a JWT issued by Login and returns its subject
func ParseToken(tokenString, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Subject, nil
}
