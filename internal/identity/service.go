package identity

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	randv2 "math/rand/v2"
	"time"

	"opsconsole/internal/crypto"
	dErrors "opsconsole/pkg/domain-errors"
	"opsconsole/pkg/platform/sentinel"
)

// RandSource supplies the numeric code generator. Tests inject a
// deterministic sequence; production uses a ChaCha8 source seeded from
// crypto/rand.
type RandSource interface {
	IntN(n int) int
}

// Service is the registration / one-time-code state machine. A user moves
// Unregistered -> Registered -> CodeIssued; Verified and Failed are per
// verification attempt, never terminal for the user.
type Service struct {
	store    Store
	signer   crypto.Signer
	verifier crypto.Verifier
	rand     RandSource
	logger   *slog.Logger
	pub      Publisher
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithPublisher(pub Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

func WithRandSource(r RandSource) Option {
	return func(s *Service) { s.rand = r }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds the ledger service.
func New(store Store, signer crypto.Signer, verifier crypto.Verifier, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	if signer == nil || verifier == nil {
		return nil, errors.New("crypto provider is required")
	}

	svc := &Service{
		store:    store,
		signer:   signer,
		verifier: verifier,
		rand:     newSecureSource(),
		logger:   slog.Default(),
		pub:      noopPublisher{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register binds a public key to a user. Upsert: a prior record and any
// outstanding code are discarded. Idempotent for identical inputs.
func (s *Service) Register(ctx context.Context, userID, publicKey string) error {
	if userID == "" || publicKey == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "userId and publicKey are required")
	}

	binding, err := s.signer.Sign(ctx, []byte(publicKey))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeProvider, "sign key binding", err)
	}

	if err := s.store.Save(ctx, Record{UserID: userID, KeyBinding: binding}); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "save ledger record", err)
	}

	s.pub.Info(fmt.Sprintf("identity: registered user %s with signed key binding", userID))
	s.logger.InfoContext(ctx, "user registered", "user_id", userID)
	return nil
}

// IssueCode generates a fresh 6-digit code for a registered user, replacing
// any previous one. At most one code is live per user.
func (s *Service) IssueCode(ctx context.Context, userID string) (string, error) {
	rec, err := s.store.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.Newf(dErrors.CodeNotRegistered, "user %s is not registered", userID)
		}
		return "", dErrors.Wrap(dErrors.CodeInternal, "load ledger record", err)
	}

	code := fmt.Sprintf("%06d", 100000+s.rand.IntN(900000))
	rec.CurrentCode = code
	rec.CodeIssuedAt = s.now()
	if err := s.store.Save(ctx, rec); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "save ledger record", err)
	}

	s.pub.Info(fmt.Sprintf("identity: one-time code issued for %s", userID))
	return code, nil
}

// Verify reports whether the supplied key matches the bound key and the code
// equals the live one. Any mismatch, including an unknown user, is a false
// result, never an error. A successful verification does not consume the
// code; the ledger keeps the source system's replay behavior and the tests
// pin it down.
func (s *Service) Verify(ctx context.Context, userID, publicKey, code string) (bool, error) {
	if userID == "" || publicKey == "" {
		return false, nil
	}

	rec, err := s.store.Find(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.pub.Warn(fmt.Sprintf("identity: verification for unknown user %s", userID))
			return false, nil
		}
		return false, dErrors.Wrap(dErrors.CodeInternal, "load ledger record", err)
	}

	keyValid := s.verifier.Verify(ctx, []byte(publicKey), rec.KeyBinding, publicKey)
	codeValid := rec.CurrentCode != "" && rec.CurrentCode == code
	verified := keyValid && codeValid

	if verified {
		s.pub.Info(fmt.Sprintf("identity: user %s verified", userID))
	} else {
		s.pub.Warn(fmt.Sprintf("identity: verification failed for %s", userID))
	}
	return verified, nil
}

// ListUsers returns the registered user ids.
func (s *Service) ListUsers(ctx context.Context) ([]string, error) {
	users, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list ledger records", err)
	}
	return users, nil
}

type noopPublisher struct{}

func (noopPublisher) Info(string) {}
func (noopPublisher) Warn(string) {}

func newSecureSource() RandSource {
	var seed [32]byte
	if _, err := cryptorand.Read(seed[:]); err != nil {
		// Last resort: a time-derived seed still yields valid codes.
		binary.LittleEndian.PutUint64(seed[:8], uint64(time.Now().UnixNano()))
	}
	return randv2.New(randv2.NewChaCha8(seed))
}
