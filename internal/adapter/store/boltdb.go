package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"framerag/internal/domain"
)

var (
	bucketChunks     = []byte("chunks")
	bucketEmbeddings = []byte("embeddings")
)

// BoltStore persists chunks and embeddings in a single bbolt file.
// Chunks are stored as JSON under their chunk ID; embeddings as raw
// little-endian float32 under the same key.
type BoltStore struct {
	db *bolt.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening chunk store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketEmbeddings} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing chunk store: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// PutChunks writes chunks and their embeddings in one transaction.
// embeddings may be nil, or must hold one vector per chunk.
func (s *BoltStore) PutChunks(chunks []domain.Chunk, embeddings [][]float32) error {
	if embeddings != nil && len(embeddings) != len(chunks) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		cb := tx.Bucket(bucketChunks)
		eb := tx.Bucket(bucketEmbeddings)

		for i, ch := range chunks {
			data, err := json.Marshal(ch)
			if err != nil {
				return fmt.Errorf("marshaling chunk %s: %w", ch.ID, err)
			}
			if err := cb.Put([]byte(ch.ID), data); err != nil {
				return err
			}

			if embeddings == nil || embeddings[i] == nil {
				continue
			}
			if err := eb.Put([]byte(ch.ID), encodeVector(embeddings[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadAll returns every stored chunk with its embedding. The embedding
// slot is nil for chunks stored without one. Iteration order follows the
// bucket's key order, so repeated loads return identical slices.
func (s *BoltStore) LoadAll() ([]domain.Chunk, [][]float32, error) {
	var chunks []domain.Chunk
	var embeddings [][]float32

	err := s.db.View(func(tx *bolt.Tx) error {
		cb := tx.Bucket(bucketChunks)
		eb := tx.Bucket(bucketEmbeddings)

		return cb.ForEach(func(k, v []byte) error {
			var ch domain.Chunk
			if err := json.Unmarshal(v, &ch); err != nil {
				return fmt.Errorf("unmarshaling chunk %s: %w", string(k), err)
			}
			chunks = append(chunks, ch)

			if raw := eb.Get(k); raw != nil {
				embeddings = append(embeddings, decodeVector(raw))
			} else {
				embeddings = append(embeddings, nil)
			}
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}

	return chunks, embeddings, nil
}

// Count returns the number of stored chunks.
func (s *BoltStore) Count() (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketChunks).Stats().KeyN
		return nil
	})
	return count, err
}

// Clear removes all chunks and embeddings.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketEmbeddings} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(raw []byte) []float32 {
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec
}
