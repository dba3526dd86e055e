package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/example/ephemeral-chat/domain/room"
)

const roomsBucket = "rooms"

// JetStreamStore keeps room records in a NATS JetStream KV bucket. The
// bucket's per-key revision makes Update and Delete atomic: after the
// embedded version check passes, the write is pinned to the revision the
// check observed.
type JetStreamStore struct {
	conn   *nats.Conn
	bucket jetstream.KeyValue
}

var _ Store = (*JetStreamStore)(nil)

// NewJetStreamStore connects to NATS and opens (or creates) the rooms bucket.
func NewJetStreamStore(ctx context.Context, natsURL string) (*JetStreamStore, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	bucket, err := js.KeyValue(ctx, roomsBucket)
	if err != nil {
		bucket, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
			Bucket:      roomsBucket,
			Description: "Ephemeral room records",
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to create rooms bucket: %w", err)
		}
	}

	return &JetStreamStore{conn: conn, bucket: bucket}, nil
}

// Create stores a new record.
func (s *JetStreamStore) Create(ctx context.Context, rec *room.Room) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}

	if _, err := s.bucket.Create(ctx, rec.ID, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("store room: %w", err)
	}
	return nil
}

// Get returns the stored record.
func (s *JetStreamStore) Get(ctx context.Context, id string) (*room.Room, error) {
	rec, _, err := s.getWithRevision(ctx, id)
	return rec, err
}

func (s *JetStreamStore) getWithRevision(ctx context.Context, id string) (*room.Room, uint64, error) {
	entry, err := s.bucket.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, room.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get room: %w", err)
	}

	var rec room.Room
	if err := json.Unmarshal(entry.Value(), &rec); err != nil {
		return nil, 0, fmt.Errorf("unmarshal room: %w", err)
	}
	return &rec, entry.Revision(), nil
}

// Update replaces the record. The embedded version check picks the revision
// to pin the KV update to, so a concurrent write in between fails the call.
func (s *JetStreamStore) Update(ctx context.Context, rec *room.Room, expectedVersion int64) error {
	stored, revision, err := s.getWithRevision(ctx, rec.ID)
	if err != nil {
		return err
	}
	if stored.Version != expectedVersion {
		return room.ErrConflict
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}

	if _, err := s.bucket.Update(ctx, rec.ID, data, revision); err != nil {
		// Revision moved between the read and the write.
		return fmt.Errorf("%w: %v", room.ErrConflict, err)
	}
	return nil
}

// CompareAndDelete removes the record pinned to the revision observed by the
// version check.
func (s *JetStreamStore) CompareAndDelete(ctx context.Context, id string, expectedVersion int64) error {
	stored, revision, err := s.getWithRevision(ctx, id)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			return nil
		}
		return err
	}
	if stored.Version != expectedVersion {
		return room.ErrConflict
	}

	if err := s.bucket.Delete(ctx, id, jetstream.LastRevision(revision)); err != nil {
		return fmt.Errorf("%w: %v", room.ErrConflict, err)
	}
	return nil
}

// Delete removes the record unconditionally.
func (s *JetStreamStore) Delete(ctx context.Context, id string) error {
	if err := s.bucket.Delete(ctx, id); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// IDs lists every stored room id.
func (s *JetStreamStore) IDs(ctx context.Context) ([]string, error) {
	keys, err := s.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return keys, nil
}

// IsConnected reports whether the NATS connection is active.
func (s *JetStreamStore) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// Close closes the NATS connection.
func (s *JetStreamStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	return nil
}
