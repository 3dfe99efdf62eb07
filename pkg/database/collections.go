package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TrajectorySamplesCollection = "trajectory_samples"
	FusedRecordsCollection      = "fused_records"
	DatasetsCollection          = "datasets"
)

func createIndexes() {
	createTrajectoryIndexes()
	createFusedIndexes()
	createDatasetIndexes()
}

func createTrajectoryIndexes() {
	trajectoryCollection := GetCollection(TrajectorySamplesCollection)
	_, err := trajectoryCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "runidentifier", Value: 1},
				{Key: "vehicleid", Value: 1},
				{Key: "timestampms", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "location", Value: "2dsphere"}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createFusedIndexes() {
	fusedCollection := GetCollection(FusedRecordsCollection)
	_, err := fusedCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "runidentifier", Value: 1},
				{Key: "vehicleid", Value: 1},
				{Key: "timestampms", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "messagessent", Value: 1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}

func createDatasetIndexes() {
	datasetsCollection := GetCollection(DatasetsCollection)
	_, err := datasetsCollection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "runidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "creationdatetime", Value: -1}},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
