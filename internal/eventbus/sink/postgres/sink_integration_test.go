//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"opsconsole/internal/eventbus"
	pgsink "opsconsole/internal/eventbus/sink/postgres"
	"opsconsole/pkg/testutil/containers"
)

type PostgresSinkSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	sink     *pgsink.Sink
}

func TestPostgresSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSinkSuite))
}

func (s *PostgresSinkSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	var err error
	s.sink, err = pgsink.NewWithDB(s.postgres.DB)
	s.Require().NoError(err)
}

func (s *PostgresSinkSuite) SetupTest() {
	_, err := s.postgres.DB.ExecContext(context.Background(),
		`TRUNCATE console_log_archive`)
	s.Require().NoError(err)
}

func (s *PostgresSinkSuite) TestWriteArchivesEntry() {
	ctx := context.Background()

	err := s.sink.Write(ctx, eventbus.Entry{
		Seq:     1,
		Time:    time.Now().UTC(),
		Level:   eventbus.LevelWarn,
		Message: "security: threat detected",
	})
	s.Require().NoError(err)

	var level, message string
	err = s.postgres.DB.QueryRowContext(ctx,
		`SELECT level, message FROM console_log_archive WHERE seq = 1`).
		Scan(&level, &message)
	s.Require().NoError(err)
	s.Equal("warn", level)
	s.Equal("security: threat detected", message)
}

func (s *PostgresSinkSuite) TestBusFlushesToArchiveOnClose() {
	// The bus owns its sink and closes it on Close, so it gets a connection
	// of its own rather than the suite's.
	busSink, err := pgsink.New(s.postgres.DSN)
	s.Require().NoError(err)

	bus := eventbus.New(64,
		eventbus.WithHeartbeatInterval(time.Hour),
		eventbus.WithSinks(busSink),
	)

	bus.Info("first")
	bus.Warn("second")
	bus.Error("third")
	s.Require().NoError(bus.Close())

	n, err := s.sink.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(3, n)
}
