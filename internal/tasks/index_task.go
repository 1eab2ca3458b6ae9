package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/refbase/internal/attachments"
	"github.com/mrlokans/refbase/internal/database/items"
	"github.com/mrlokans/refbase/internal/fulltext"
)

// IndexTask submits one attachment's content to the full-text index.
type IndexTask struct {
	AttachmentKey string `json:"attachment_key"`
}

// Config returns the queue configuration for index tasks.
func (t IndexTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "fulltext_index",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// IndexProcessor creates the processor for IndexTask: read the stored
// attachment content, index it, mark the attachment indexed.
func IndexProcessor(repo *items.Repository, resolver *attachments.Resolver, index *fulltext.Service) backlite.QueueProcessor[IndexTask] {
	return func(ctx context.Context, task IndexTask) error {
		att, err := repo.GetAttachmentByKey(task.AttachmentKey)
		if err != nil {
			return fmt.Errorf("load attachment %s: %w", task.AttachmentKey, err)
		}

		rc, err := resolver.Open(att)
		if err != nil {
			return fmt.Errorf("open attachment %s: %w", task.AttachmentKey, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("read attachment %s: %w", task.AttachmentKey, err)
		}

		if err := index.Index(ctx, att.Key, raw); err != nil {
			return fmt.Errorf("index attachment %s: %w", task.AttachmentKey, err)
		}

		return repo.MarkIndexed(att.Key)
	}
}

// NewIndexQueue creates the backlite queue for index tasks.
func NewIndexQueue(repo *items.Repository, resolver *attachments.Resolver, index *fulltext.Service) backlite.Queue {
	return backlite.NewQueue(IndexProcessor(repo, resolver, index))
}

// Submitter enqueues index tasks. It satisfies the coordinator's Indexer
// contract: enqueueing is fire-and-forget, failures are logged only.
type Submitter struct {
	client *Client
}

func NewSubmitter(client *Client) *Submitter {
	return &Submitter{client: client}
}

func (s *Submitter) Submit(attachmentKeys []string) {
	for _, key := range attachmentKeys {
		if _, err := s.client.Add(IndexTask{AttachmentKey: key}).Save(); err != nil {
			log.Warn().Err(err).Str("attachment", key).Msg("failed to enqueue index task")
		}
	}
}
