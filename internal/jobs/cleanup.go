package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/advista/advista-server-go/internal/repository"
)

// CleanupJob periodically removes expired chat sessions (research sessions
// follow via FK cascade) and clears stale verification codes.
type CleanupJob struct {
	chatSessionRepo repository.ChatSessionRepository
	userRepo        repository.UserRepository
	interval        time.Duration
	done            chan struct{}
}

func NewCleanupJob(
	chatSessionRepo repository.ChatSessionRepository,
	userRepo repository.UserRepository,
	interval time.Duration,
) *CleanupJob {
	return &CleanupJob{
		chatSessionRepo: chatSessionRepo,
		userRepo:        userRepo,
		interval:        interval,
		done:            make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	j.runCleanup(ctx, "chat sessions", func(ctx context.Context) (int64, error) {
		return j.chatSessionRepo.DeleteExpired(ctx, now)
	})
	j.runCleanup(ctx, "verification codes", func(ctx context.Context) (int64, error) {
		return j.userRepo.ClearExpiredCodes(ctx, now)
	})
}

func (j *CleanupJob) runCleanup(ctx context.Context, name string, fn func(context.Context) (int64, error)) {
	count, err := fn(ctx)
	if err != nil {
		log.Error().Err(err).Msgf("failed to cleanup %s", name)
	} else if count > 0 {
		log.Info().Int64("count", count).Msgf("cleaned up %s", name)
	}
}
