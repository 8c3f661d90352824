// Package exchange seals outbound payloads through the crypto collaborator
// and keeps an audit trail of what went where. No retries: a provider
// failure is the caller's to handle.
package exchange

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"opsconsole/internal/crypto"
	dErrors "opsconsole/pkg/domain-errors"
)

// Transaction records one sealed payload for audit. Only the ciphertext
// length is retained, never the plaintext.
type Transaction struct {
	Recipient     string    `json:"recipient"`
	PayloadLength int       `json:"payloadLength"`
	SentAt        time.Time `json:"sentAt"`
}

// Publisher receives exchange log lines for the console stream.
type Publisher interface {
	Info(message string)
}

// Service is the secure-exchange subsystem.
type Service struct {
	encrypter    crypto.Encrypter
	encapsulator crypto.Encapsulator
	pub          Publisher
	logger       *slog.Logger
	now          func() time.Time

	mu           sync.Mutex
	transactions []Transaction
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(pub Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(encrypter crypto.Encrypter, encapsulator crypto.Encapsulator, opts ...Option) (*Service, error) {
	if encrypter == nil || encapsulator == nil {
		return nil, fmt.Errorf("crypto provider is required")
	}
	svc := &Service{
		encrypter:    encrypter,
		encapsulator: encapsulator,
		pub:          noopPublisher{},
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Send establishes a shared secret for the recipient, seals the message, and
// records the transaction. The ciphertext is returned to the caller for
// transmission; this service does not transmit.
func (s *Service) Send(ctx context.Context, message, recipientID string) (string, error) {
	if message == "" || recipientID == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "message and recipient are required")
	}

	if _, err := s.encapsulator.Encapsulate(ctx, recipientID); err != nil {
		return "", dErrors.Wrap(dErrors.CodeProvider, "encapsulate recipient key", err)
	}

	ciphertext, err := s.encrypter.Encrypt(ctx, []byte(message))
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeProvider, "encrypt payload", err)
	}

	s.mu.Lock()
	s.transactions = append(s.transactions, Transaction{
		Recipient:     recipientID,
		PayloadLength: len(ciphertext),
		SentAt:        s.now(),
	})
	s.mu.Unlock()

	s.pub.Info(fmt.Sprintf("exchange: payload sealed for %s (length=%d)", recipientID, len(ciphertext)))
	s.logger.InfoContext(ctx, "payload sealed",
		"recipient", recipientID, "payload_length", len(ciphertext))
	return ciphertext, nil
}

// Transactions returns a copy of the audit trail, oldest first.
func (s *Service) Transactions() []Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

type noopPublisher struct{}

func (noopPublisher) Info(string) {}
