package memory

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeanpaul/dontforget/internal/metrics"
	"github.com/jeanpaul/dontforget/internal/store"
)

// NoteCreator is the part of the store ingestion needs.
type NoteCreator interface {
	Create(ctx context.Context, n store.Note) (int64, error)
}

type Service struct {
	store      NoteCreator
	classifier Classifier
	log        *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewService(s NoteCreator, c Classifier, log *zap.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, classifier: c, log: log, metrics: m, now: time.Now}
}

// Remember classifies text and stores it. Classification is best effort;
// only an empty text or a store failure is an error.
func (s *Service) Remember(ctx context.Context, text string) (store.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return store.Note{}, store.ErrEmptyText
	}

	n := store.Note{
		Text:      text,
		Tags:      DefaultTags,
		Intent:    DefaultIntent,
		Timestamp: s.now().Format(store.TimestampLayout),
	}

	if s.classifier != nil {
		c, err := s.classifier.Classify(ctx, text)
		if err != nil {
			s.log.Warn("classification failed, using defaults", zap.Error(err))
		}
		if c.Tags != "" {
			n.Tags = c.Tags
		}
		if c.Intent != "" {
			n.Intent = c.Intent
		}
	}

	id, err := s.store.Create(ctx, n)
	if err != nil {
		return store.Note{}, err
	}
	n.ID = id
	s.metrics.NoteCreated()
	s.log.Info("note stored", zap.Int64("id", id), zap.String("tags", n.Tags), zap.String("intent", n.Intent))
	return n, nil
}
