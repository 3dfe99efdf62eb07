package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/trajfusion/pkg/ctdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bulkBatchSize = 1000

type TrajectorySampleDocument struct {
	RunIdentifier string

	ctdf.TrajectorySample `bson:",inline"`

	Location ctdf.Location
}

type FusedRecordDocument struct {
	RunIdentifier string

	ctdf.FusedRecord `bson:",inline"`
}

func NewTrajectorySampleDocument(runIdentifier string, sample ctdf.TrajectorySample) TrajectorySampleDocument {
	return TrajectorySampleDocument{
		RunIdentifier:    runIdentifier,
		TrajectorySample: sample,
		Location:         sample.Location(),
	}
}

func runKey(runIdentifier string, vehicleID string, timestampMs int64) bson.M {
	return bson.M{
		"runidentifier": runIdentifier,
		"vehicleid":     vehicleID,
		"timestampms":   timestampMs,
	}
}

// StoreRun upserts the run metadata, every trajectory sample and every fused record
func StoreRun(ctx context.Context, metadata *ctdf.DatasetMetadata, samples []ctdf.TrajectorySample, fused []ctdf.FusedRecord) error {
	_, err := GetCollection(DatasetsCollection).ReplaceOne(
		ctx,
		bson.M{"runidentifier": metadata.RunIdentifier},
		metadata,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return err
	}

	var operations []mongo.WriteModel
	for _, sample := range samples {
		document := NewTrajectorySampleDocument(metadata.RunIdentifier, sample)

		operations = append(operations, mongo.NewReplaceOneModel().
			SetFilter(runKey(metadata.RunIdentifier, sample.VehicleID, sample.TimestampMs)).
			SetReplacement(document).
			SetUpsert(true))
	}
	if err := bulkWrite(ctx, TrajectorySamplesCollection, operations); err != nil {
		return err
	}

	operations = nil
	for _, record := range fused {
		document := FusedRecordDocument{RunIdentifier: metadata.RunIdentifier, FusedRecord: record}

		operations = append(operations, mongo.NewReplaceOneModel().
			SetFilter(runKey(metadata.RunIdentifier, record.VehicleID, record.TimestampMs)).
			SetReplacement(document).
			SetUpsert(true))
	}
	if err := bulkWrite(ctx, FusedRecordsCollection, operations); err != nil {
		return err
	}

	log.Info().
		Str("run", metadata.RunIdentifier).
		Int("samples", len(samples)).
		Int("fused", len(fused)).
		Msg("Stored run in MongoDB")

	return nil
}

func bulkWrite(ctx context.Context, collectionName string, operations []mongo.WriteModel) error {
	collection := GetCollection(collectionName)

	for start := 0; start < len(operations); start += bulkBatchSize {
		end := start + bulkBatchSize
		if end > len(operations) {
			end = len(operations)
		}

		_, err := collection.BulkWrite(ctx, operations[start:end], options.BulkWrite().SetOrdered(false))
		if err != nil {
			return err
		}
	}

	return nil
}
