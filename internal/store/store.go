package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/mgpai22/lysync/internal/logging"
)

const (
	snapshotKey  = "amll:state"
	documentsKey = "editor:docs"
)

// redis-backed persistence for the realtime snapshot and editor documents
type Store struct {
	client *redisClient.Client
	prefix string
	log    *logging.Logger
}

// connects to url and checks the connection. password overrides the one in
// the url when set.
func New(ctx context.Context, url, password, prefix string, log *logging.Logger) (*Store, error) {
	opt, err := redisClient.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if password != "" {
		opt.Password = password
	}

	client := redisClient.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{
		client: client,
		prefix: prefix,
		log:    logging.OrNop(log).Named("store"),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(name string) string {
	return joinKey(s.prefix, name)
}

func joinKey(prefix, name string) string {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		return name
	}
	return prefix + ":" + name
}

// stores v as JSON under the snapshot key
func (s *Store) SaveSnapshot(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snapshotKey), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	s.log.Debugw("saved snapshot", "bytes", len(data))
	return nil
}

// decodes the stored snapshot into v. ok is false when nothing was stored.
func (s *Store) LoadSnapshot(ctx context.Context, v any) (bool, error) {
	data, err := s.client.Get(ctx, s.key(snapshotKey)).Bytes()
	if err == redisClient.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return true, nil
}

func (s *Store) SaveDocument(ctx context.Context, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", id, err)
	}
	if err := s.client.HSet(ctx, s.key(documentsKey), id, data).Err(); err != nil {
		return fmt.Errorf("failed to save document %s: %w", id, err)
	}
	return nil
}

// raw JSON of every stored document keyed by id
func (s *Store) LoadDocuments(ctx context.Context) (map[string][]byte, error) {
	all, err := s.client.HGetAll(ctx, s.key(documentsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	out := make(map[string][]byte, len(all))
	for id, data := range all {
		out[id] = []byte(data)
	}
	return out, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, s.key(documentsKey), id).Err(); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}
