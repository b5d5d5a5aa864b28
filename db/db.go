package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections groups the handles used by MongoStore.
type Collections struct {
	Users        *mongo.Collection
	Sessions     *mongo.Collection
	Itineraries  *mongo.Collection
	POIs         *mongo.Collection
	Places       *mongo.Collection
	SearchLogs   *mongo.Collection
	LLMResponses *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

func collections(database *mongo.Database) Collections {
	return Collections{
		Users:        database.Collection("users"),
		Sessions:     database.Collection("sessions"),
		Itineraries:  database.Collection("itineraries"),
		POIs:         database.Collection("pois"),
		Places:       database.Collection("places"),
		SearchLogs:   database.Collection("search_logs"),
		LLMResponses: database.Collection("llm_responses"),
	}
}

// EnsureIndexes creates the indexes the store's queries rely on.
func EnsureIndexes(ctx context.Context, c Collections) error {
	_, err := c.Itineraries.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerKind", Value: 1}, {Key: "ownerId", Value: 1}, {Key: "itineraryId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "ownerKind", Value: 1}, {Key: "ownerId", Value: 1}, {Key: "updatedAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create itinerary indexes: %w", err)
	}
	_, err = c.POIs.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "placeId", Value: 1}}})
	if err != nil {
		return fmt.Errorf("create poi index: %w", err)
	}
	return nil
}
