// Package scheduler runs the periodic reindex sweep: attachments that
// committed but whose full-text submission never completed (crash, queue
// loss) are re-submitted.
package scheduler

import (
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/importers"
)

const sweepBatchSize = 50

// ReindexScheduler periodically re-submits unindexed attachments.
type ReindexScheduler struct {
	repo    *items.Repository
	indexer importers.Indexer

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

func NewReindexScheduler(repo *items.Repository, indexer importers.Indexer) *ReindexScheduler {
	return &ReindexScheduler{
		repo:    repo,
		indexer: indexer,
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start schedules the sweep with the given cron expression.
func (s *ReindexScheduler) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Info().Str("schedule", schedule).Msg("reindex scheduler started")
	return nil
}

// Stop halts the scheduler; a running sweep finishes first.
func (s *ReindexScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}
	<-s.cron.Stop().Done()
	s.isRunning = false
}

func (s *ReindexScheduler) sweep() {
	atts, err := s.repo.UnindexedAttachments(sweepBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("reindex sweep query failed")
		return
	}
	if len(atts) == 0 {
		return
	}

	keys := make([]string, 0, len(atts))
	for _, att := range atts {
		keys = append(keys, att.Key)
	}

	log.Info().Int("attachments", len(keys)).Msg("re-submitting unindexed attachments")
	s.indexer.Submit(keys)
}
