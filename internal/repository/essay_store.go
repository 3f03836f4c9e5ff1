package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/compass-advising/compass-api/internal/models"
)

// ErrEssayNotFound indicates no record exists for the owner+title key.
var ErrEssayNotFound = errors.New("essay not found")

// EssayChange is published on the store's channel after every write so live
// subscribers can refresh. Source is empty for store-originated events; the
// feed service stamps its node id when mirroring events across the bus.
type EssayChange struct {
	Source    string    `json:"source,omitempty"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the essay key the change refers to.
func (c EssayChange) Key() string {
	return c.Owner + "/" + c.Title
}

// EssayStore is the document-store collaborator: one JSON record per
// owner+title key, point reads, full-record replace on write, and a change
// channel for live subscriptions. There is no partial-field patch; callers
// must read-merge-write.
type EssayStore interface {
	Get(ctx context.Context, owner, title string) (models.EssayRecord, error)
	Put(ctx context.Context, record models.EssayRecord) error
	List(ctx context.Context) ([]models.EssayRecord, error)
	Channel() string
}

type essayStore struct {
	client  *redis.Client
	prefix  string
	index   string
	channel string
}

// NewEssayStore builds a redis-backed essay store. channelBase namespaces
// the keys, index set and change channel, matching the realtime channel base.
func NewEssayStore(client *redis.Client, channelBase string) EssayStore {
	if channelBase == "" {
		channelBase = "compass"
	}

	return &essayStore{
		client:  client,
		prefix:  channelBase + ":essays:",
		index:   channelBase + ":essays:index",
		channel: channelBase + ":essays:changes",
	}
}

// keyPartEscaper hides the key separator inside owner and title, so
// {"a", "b:c"} and {"a:b", "c"} map to distinct keys.
var keyPartEscaper = strings.NewReplacer("%", "%25", ":", "%3A")

func (s *essayStore) key(owner, title string) string {
	return fmt.Sprintf("%s%s:%s", s.prefix, keyPartEscaper.Replace(owner), keyPartEscaper.Replace(title))
}

func (s *essayStore) Get(ctx context.Context, owner, title string) (models.EssayRecord, error) {
	payload, err := s.client.Get(ctx, s.key(owner, title)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.EssayRecord{}, ErrEssayNotFound
		}
		return models.EssayRecord{}, err
	}

	record, err := models.DecodeEssayRecord([]byte(payload))
	if err != nil {
		return models.EssayRecord{}, err
	}

	record.Owner = owner
	record.Title = title
	return record, nil
}

func (s *essayStore) Put(ctx context.Context, record models.EssayRecord) error {
	if record.Owner == "" || record.Title == "" {
		return fmt.Errorf("essay record requires owner and title")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	key := s.key(record.Owner, record.Title)
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return err
	}
	if err := s.client.SAdd(ctx, s.index, key).Err(); err != nil {
		return err
	}

	change := EssayChange{
		Owner:     record.Owner,
		Title:     record.Title,
		Status:    record.Status,
		UpdatedAt: record.LastModified,
	}
	event, err := json.Marshal(change)
	if err != nil {
		return err
	}

	return s.client.Publish(ctx, s.channel, event).Err()
}

func (s *essayStore) List(ctx context.Context) ([]models.EssayRecord, error) {
	keys, err := s.client.SMembers(ctx, s.index).Result()
	if err != nil {
		return nil, err
	}

	records := make([]models.EssayRecord, 0, len(keys))
	for _, key := range keys {
		payload, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			// Index entry outlived its record; skip rather than fail the listing.
			continue
		}
		if err != nil {
			return nil, err
		}

		record, err := models.DecodeEssayRecord([]byte(payload))
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

func (s *essayStore) Channel() string {
	return s.channel
}
