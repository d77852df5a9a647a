package actionlog

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"admod-bot/internal/config"
)

// ConnectDB establishes a connection to MongoDB and verifies it with a
// ping. Returns the client and the configured database.
func ConnectDB(cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(cfg.MongoDBURI).SetServerAPIOptions(serverAPI)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	var result bson.M
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Decode(&result); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	log.Println("Successfully connected and pinged MongoDB")

	return client, client.Database(cfg.MongoDBDatabase), nil
}

// MongoLogger implements Logger on MongoDB collections.
type MongoLogger struct {
	db *mongo.Database
}

// NewMongoLogger creates a logger over a connected database.
func NewMongoLogger(db *mongo.Database) *MongoLogger {
	return &MongoLogger{db: db}
}

// LogModeratorAction writes a generic moderator action entry.
func (m *MongoLogger) LogModeratorAction(moderatorID int64, action string, details interface{}) error {
	collection := m.db.Collection("moderator_actions")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := collection.InsertOne(ctx, map[string]interface{}{
		"moderator_id": moderatorID,
		"action":       action,
		"details":      details,
		"time":         time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to insert action log for moderator %d: %w", moderatorID, err)
	}
	return nil
}

// LogDecision writes a moderation decision entry.
func (m *MongoLogger) LogDecision(entry DecisionEntry) error {
	collection := m.db.Collection("decision_logs")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if entry.Time.IsZero() {
		entry.Time = time.Now()
	}
	_, err := collection.InsertOne(ctx, entry)
	if err != nil {
		wrappedErr := fmt.Errorf("failed to insert decision log for ad %s: %w", entry.AdID, err)
		log.Printf("%v", wrappedErr)
		return wrappedErr
	}
	return nil
}

// UpdateModerator upserts the moderator profile, records the last
// action and bumps the action counter.
func (m *MongoLogger) UpdateModerator(ctx context.Context, moderatorID int64, username, firstName, lastName string, action string) error {
	collection := m.db.Collection("moderators")

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"username":    username,
			"first_name":  firstName,
			"last_name":   lastName,
			"last_seen":   now,
			"last_action": action,
		},
		"$inc": bson.M{
			"actions_count": 1,
		},
		"$setOnInsert": bson.M{
			"first_seen":   now,
			"moderator_id": moderatorID,
		},
	}

	_, err := collection.UpdateOne(
		ctx,
		bson.M{"moderator_id": moderatorID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to update moderator %d: %w", moderatorID, err)
	}
	return nil
}

// NopLogger is used when MongoDB is not configured.
type NopLogger struct{}

func (NopLogger) LogModeratorAction(int64, string, interface{}) error { return nil }
func (NopLogger) LogDecision(DecisionEntry) error                     { return nil }
func (NopLogger) UpdateModerator(context.Context, int64, string, string, string, string) error {
	return nil
}
