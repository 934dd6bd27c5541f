package services

import (
	"context"
	"fmt"
	"time"

	"github.com/prefeitura-rio/app-cadastro/internal/logging"
	"github.com/prefeitura-rio/app-cadastro/internal/models"
	"github.com/prefeitura-rio/app-cadastro/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const mongoBackend = "mongo"

// mongoQueryTimeout bounds every collection call
const mongoQueryTimeout = 10 * time.Second

// MongoRecordStore keeps one document per record, keyed by record ID, so
// appends and deletes touch a single document.
type MongoRecordStore struct {
	collection *mongo.Collection
	logger     *logging.SafeLogger
}

// NewMongoRecordStore creates a store over the given collection
func NewMongoRecordStore(collection *mongo.Collection, logger *logging.SafeLogger) *MongoRecordStore {
	return &MongoRecordStore{
		collection: collection,
		logger:     logger,
	}
}

// Load returns all records in insertion order
func (s *MongoRecordStore) Load(ctx context.Context) ([]models.Record, error) {
	ctx, span, done := utils.TraceStoreOperation(ctx, "load", mongoBackend)
	defer done()
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		err = fmt.Errorf("failed to find records: %w", err)
		utils.RecordErrorInSpan(span, err, nil)
		observeStoreOperation(mongoBackend, "load", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	records := []models.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		err = fmt.Errorf("failed to decode records: %w", err)
		utils.RecordErrorInSpan(span, err, nil)
		observeStoreOperation(mongoBackend, "load", err)
		return nil, err
	}

	utils.AddSpanAttribute(span, "store.records", len(records))
	observeStoreOperation(mongoBackend, "load", nil)
	return records, nil
}

// Append inserts the record as a new document
func (s *MongoRecordStore) Append(ctx context.Context, record models.Record) error {
	ctx, span, done := utils.TraceStoreOperation(ctx, "append", mongoBackend)
	defer done()
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	if record.ID == "" {
		observeStoreOperation(mongoBackend, "append", models.ErrInvalidRecordID)
		return models.ErrInvalidRecordID
	}

	_, err := s.collection.InsertOne(ctx, record)
	if err != nil {
		err = fmt.Errorf("failed to insert record %s: %w", record.ID, err)
		utils.RecordErrorInSpan(span, err, nil)
	} else {
		s.logger.Debug("record inserted",
			zap.String("record_id", record.ID),
			zap.String("collection", s.collection.Name()))
	}
	observeStoreOperation(mongoBackend, "append", err)
	return err
}

// Remove deletes the record document with the given ID
func (s *MongoRecordStore) Remove(ctx context.Context, id string) error {
	ctx, span, done := utils.TraceStoreOperation(ctx, "remove", mongoBackend)
	defer done()
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		err = fmt.Errorf("failed to delete record %s: %w", id, err)
		utils.RecordErrorInSpan(span, err, nil)
		observeStoreOperation(mongoBackend, "remove", err)
		return err
	}
	if result.DeletedCount == 0 {
		err = fmt.Errorf("remove %s: %w", id, models.ErrRecordNotFound)
		observeStoreOperation(mongoBackend, "remove", err)
		return err
	}

	observeStoreOperation(mongoBackend, "remove", nil)
	return nil
}

// Ping checks the server behind the collection
func (s *MongoRecordStore) Ping(ctx context.Context) error {
	ctx, span, done := utils.TraceStoreOperation(ctx, "ping", mongoBackend)
	defer done()
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	if err := s.collection.Database().Client().Ping(ctx, nil); err != nil {
		err = fmt.Errorf("mongo unreachable: %w", err)
		utils.RecordErrorInSpan(span, err, nil)
		return err
	}
	return nil
}
