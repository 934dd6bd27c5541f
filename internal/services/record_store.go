package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prefeitura-rio/app-cadastro/internal/logging"
	"github.com/prefeitura-rio/app-cadastro/internal/models"
	"github.com/prefeitura-rio/app-cadastro/internal/observability"
	"github.com/prefeitura-rio/app-cadastro/internal/utils"
	"go.uber.org/zap"
)

// RecordStore persists registration records in insertion order
type RecordStore interface {
	// Load returns every stored record, oldest first. A store with nothing
	// saved yet returns an empty slice.
	Load(ctx context.Context) ([]models.Record, error)
	// Append stores a new record after the existing ones.
	Append(ctx context.Context, record models.Record) error
	// Remove deletes the record with the given ID. Unknown IDs yield
	// models.ErrRecordNotFound.
	Remove(ctx context.Context, id string) error
	// Ping checks that the backend answers without reading or repairing
	// stored data.
	Ping(ctx context.Context) error
}

// KeyValue is the minimal key-value capability the blob store needs
type KeyValue interface {
	// Get returns the value at key; found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	// Backend names the implementation for logs and metrics.
	Backend() string
}

// DecodeCollection parses a stored JSON array of records. JSON null decodes
// to an empty collection.
func DecodeCollection(key, data string) ([]models.Record, error) {
	var records []models.Record
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, &models.ParseError{Key: key, Err: err}
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// EncodeCollection serializes records as a JSON array (never null)
func EncodeCollection(records []models.Record) (string, error) {
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode records: %w", err)
	}
	return string(data), nil
}

// BlobRecordStore keeps the whole collection as one JSON array under a single
// key and rewrites it on every mutation. The mutex only serializes writers in
// this process; other processes sharing the key can still overwrite each
// other's last write.
type BlobRecordStore struct {
	mu     sync.Mutex
	kv     KeyValue
	key    string
	logger *logging.SafeLogger
	now    func() time.Time
}

// NewBlobRecordStore creates a blob store over kv at key
func NewBlobRecordStore(kv KeyValue, key string, logger *logging.SafeLogger) *BlobRecordStore {
	return &BlobRecordStore{
		kv:     kv,
		key:    key,
		logger: logger,
		now:    time.Now,
	}
}

// QuarantineKey is where a corrupt value found at key is moved to
func QuarantineKey(key string, at time.Time) string {
	return key + ":corrupt:" + strconv.FormatInt(at.UnixNano(), 10)
}

// Load reads the collection. A value that is not a JSON array is moved to a
// quarantine key, the main key is reset to an empty array and Load returns an
// empty collection.
func (s *BlobRecordStore) Load(ctx context.Context) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span, done := utils.TraceStoreOperation(ctx, "load", s.kv.Backend())
	defer done()

	records, err := s.load(ctx)
	if err != nil {
		utils.RecordErrorInSpan(span, err, nil)
	}
	utils.AddSpanAttribute(span, "store.records", len(records))
	s.observe("load", err)
	return records, err
}

// Append adds record to the end of the collection and rewrites it
func (s *BlobRecordStore) Append(ctx context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span, done := utils.TraceStoreOperation(ctx, "append", s.kv.Backend())
	defer done()

	err := s.mutate(ctx, func(records []models.Record) ([]models.Record, error) {
		return append(records, record), nil
	})
	if err != nil {
		utils.RecordErrorInSpan(span, err, nil)
	}
	s.observe("append", err)
	return err
}

// Remove drops the first record with the given ID and rewrites the collection
func (s *BlobRecordStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span, done := utils.TraceStoreOperation(ctx, "remove", s.kv.Backend())
	defer done()

	err := s.mutate(ctx, func(records []models.Record) ([]models.Record, error) {
		for i := range records {
			if records[i].ID == id {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("remove %s: %w", id, models.ErrRecordNotFound)
	})
	if err != nil && !errors.Is(err, models.ErrRecordNotFound) {
		utils.RecordErrorInSpan(span, err, nil)
	}
	s.observe("remove", err)
	return err
}

// Ping reaches the key-value backend only; a corrupt value is left alone
func (s *BlobRecordStore) Ping(ctx context.Context) error {
	ctx, span, done := utils.TraceStoreOperation(ctx, "ping", s.kv.Backend())
	defer done()

	if err := s.kv.Ping(ctx); err != nil {
		err = fmt.Errorf("%s unreachable: %w", s.kv.Backend(), err)
		utils.RecordErrorInSpan(span, err, nil)
		return err
	}
	return nil
}

func (s *BlobRecordStore) mutate(ctx context.Context, change func([]models.Record) ([]models.Record, error)) error {
	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	records, err = change(records)
	if err != nil {
		return err
	}
	return s.write(ctx, records)
}

func (s *BlobRecordStore) load(ctx context.Context) ([]models.Record, error) {
	value, found, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	if !found {
		return []models.Record{}, nil
	}

	records, err := DecodeCollection(s.key, value)
	if err == nil {
		return records, nil
	}

	var parseErr *models.ParseError
	if !errors.As(err, &parseErr) {
		return nil, err
	}
	if qerr := s.quarantine(ctx, value, parseErr); qerr != nil {
		return nil, qerr
	}
	return []models.Record{}, nil
}

func (s *BlobRecordStore) quarantine(ctx context.Context, value string, cause *models.ParseError) error {
	target := QuarantineKey(s.key, s.now())
	if err := s.kv.Set(ctx, target, value); err != nil {
		return fmt.Errorf("quarantine corrupt collection (%v): %w", cause, err)
	}
	if err := s.write(ctx, []models.Record{}); err != nil {
		return fmt.Errorf("reset corrupt collection: %w", err)
	}

	s.logger.Warn("stored collection is corrupt, continuing with an empty one",
		zap.String("key", s.key),
		zap.String("quarantine_key", target),
		zap.Int("bytes", len(value)),
		zap.Error(cause),
	)
	observability.StoreOperations.WithLabelValues(s.kv.Backend(), "quarantine", "success").Inc()
	return nil
}

func (s *BlobRecordStore) write(ctx context.Context, records []models.Record) error {
	data, err := EncodeCollection(records)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("write %s: %w", s.key, err)
	}
	return nil
}

func (s *BlobRecordStore) observe(operation string, err error) {
	observeStoreOperation(s.kv.Backend(), operation, err)
}

func observeStoreOperation(backend, operation string, err error) {
	status := "success"
	switch {
	case errors.Is(err, models.ErrRecordNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	observability.StoreOperations.WithLabelValues(backend, operation, status).Inc()
}
