// Package fulltext maintains a word-level index over attachment content
// and answers findText queries against it.
package fulltext

import (
	"context"
	"regexp"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Word is one indexed token of one attachment.
type Word struct {
	ID            uint   `gorm:"primaryKey"`
	AttachmentKey string `gorm:"index;size:8"`
	Word          string `gorm:"index;size:100"`
}

func (Word) TableName() string { return "fulltext_words" }

// Match is one attachment containing every queried token.
type Match struct {
	AttachmentKey string `json:"id"`
}

var (
	tagPattern  = regexp.MustCompile(`<[^>]+>`)
	wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (*Service, error) {
	if err := db.AutoMigrate(&Word{}); err != nil {
		return nil, err
	}
	return &Service{db: db}, nil
}

// Index tokenizes raw attachment content and stores its word set.
// Re-indexing an attachment replaces its previous words.
func (s *Service) Index(ctx context.Context, attachmentKey string, raw []byte) error {
	tokens := tokenize(string(raw))

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attachment_key = ?", attachmentKey).Delete(&Word{}).Error; err != nil {
			return err
		}
		if len(tokens) == 0 {
			return nil
		}
		words := make([]Word, 0, len(tokens))
		for _, t := range tokens {
			words = append(words, Word{AttachmentKey: attachmentKey, Word: t})
		}
		return tx.CreateInBatches(words, 500).Error
	})
}

// IndexAll indexes several attachments concurrently. Individual failures
// are logged and skipped; indexing is never allowed to fail an import.
func (s *Service) IndexAll(ctx context.Context, content map[string][]byte) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for key, raw := range content {
		key, raw := key, raw
		g.Go(func() error {
			if err := s.Index(ctx, key, raw); err != nil {
				log.Warn().Err(err).Str("attachment", key).Msg("full-text indexing failed")
			}
			return nil
		})
	}
	g.Wait()
}

// FindText returns, among the given attachments, those whose content
// contains every token of the query.
func (s *Service) FindText(ctx context.Context, attachmentKeys []string, query string) ([]Match, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 || len(attachmentKeys) == 0 {
		return nil, nil
	}

	var matches []Match
	for _, key := range attachmentKeys {
		found := true
		for _, token := range tokens {
			var count int64
			err := s.db.WithContext(ctx).Model(&Word{}).
				Where("attachment_key = ? AND word = ?", key, token).
				Count(&count).Error
			if err != nil {
				return nil, err
			}
			if count == 0 {
				found = false
				break
			}
		}
		if found {
			matches = append(matches, Match{AttachmentKey: key})
		}
	}
	return matches, nil
}

// tokenize lowercases, strips markup and stop words, and splits into
// unique word tokens.
func tokenize(text string) []string {
	text = tagPattern.ReplaceAllString(text, " ")
	cleaned := stopwords.CleanString(text, "en", false)

	seen := make(map[string]bool)
	var tokens []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(cleaned), -1) {
		if len(w) < 2 || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}
