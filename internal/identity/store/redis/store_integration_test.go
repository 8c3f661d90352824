//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"opsconsole/internal/crypto/local"
	"opsconsole/internal/identity"
	redisstore "opsconsole/internal/identity/store/redis"
	"opsconsole/pkg/platform/sentinel"
	"opsconsole/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *redisstore.Store
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = redisstore.New(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	issuedAt := time.Now().UTC().Truncate(time.Millisecond)

	rec := identity.Record{
		UserID:       "u1",
		KeyBinding:   []byte{0x01, 0x02, 0xff},
		CurrentCode:  "123456",
		CodeIssuedAt: issuedAt,
	}
	s.Require().NoError(s.store.Save(ctx, rec))

	got, err := s.store.Find(ctx, "u1")
	s.Require().NoError(err)
	s.Equal(rec.KeyBinding, got.KeyBinding)
	s.Equal("123456", got.CurrentCode)
	s.True(issuedAt.Equal(got.CodeIssuedAt))
}

func (s *RedisStoreSuite) TestFindMissing() {
	_, err := s.store.Find(context.Background(), "ghost")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestSaveClearsStaleCode() {
	ctx := context.Background()

	s.Require().NoError(s.store.Save(ctx, identity.Record{
		UserID:       "u1",
		KeyBinding:   []byte("first"),
		CurrentCode:  "111111",
		CodeIssuedAt: time.Now(),
	}))
	// Re-registration writes a fresh record with no live code.
	s.Require().NoError(s.store.Save(ctx, identity.Record{
		UserID:     "u1",
		KeyBinding: []byte("second"),
	}))

	got, err := s.store.Find(ctx, "u1")
	s.Require().NoError(err)
	s.Equal([]byte("second"), got.KeyBinding)
	s.Empty(got.CurrentCode)
	s.True(got.CodeIssuedAt.IsZero())
}

func (s *RedisStoreSuite) TestListSorted() {
	ctx := context.Background()
	for _, id := range []string{"charlie", "alice", "bob"} {
		s.Require().NoError(s.store.Save(ctx, identity.Record{UserID: id, KeyBinding: []byte("k")}))
	}

	users, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Equal([]string{"alice", "bob", "charlie"}, users)
}

func newLedger(s *RedisStoreSuite) *identity.Service {
	provider, err := local.New([]byte("redis-suite-secret"))
	s.Require().NoError(err)
	svc, err := identity.New(s.store, provider, provider)
	s.Require().NoError(err)
	return svc
}

func (s *RedisStoreSuite) TestServiceRoundTripOnRedis() {
	// The full ledger service runs against the real store.
	ctx := context.Background()

	svc := newLedger(s)
	s.Require().NoError(svc.Register(ctx, "u1", "pubkeyA"))

	code, err := svc.IssueCode(ctx, "u1")
	s.Require().NoError(err)

	ok, err := svc.Verify(ctx, "u1", "pubkeyA", code)
	s.Require().NoError(err)
	s.True(ok)
}
