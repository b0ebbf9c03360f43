package authentication

import (
	"context"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/rs/zerolog"
)

// Sweeper periodically revokes stored token pairs whose refresh window has passed
type Sweeper interface {
	Start()
	Stop()
}

type sweeperImpl struct {
	done     chan bool
	log      zerolog.Logger
	tokens   database.TokenRepository
	maxAge   time.Duration
	interval time.Duration
}

func NewSweeper(tokens database.TokenRepository, maxAge, interval time.Duration, log zerolog.Logger) Sweeper {
	return &sweeperImpl{
		done:     make(chan bool),
		log:      log,
		tokens:   tokens,
		maxAge:   maxAge,
		interval: interval,
	}
}

func (s *sweeperImpl) Start() {
	go backgroundWorker(s, s.done)
}

func (s *sweeperImpl) Stop() {
	s.done <- true
}

func backgroundWorker(s *sweeperImpl, done <-chan bool) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.sweep(context.Background())
		}
	}
}

func (s *sweeperImpl) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.maxAge)

	count, err := s.tokens.RevokeIssuedBefore(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("could not revoke expired tokens")
		return
	}

	if count > 0 {
		s.log.Info().Msgf("revoked %d expired tokens", count)
	}
}
