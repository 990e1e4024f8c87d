package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clip-triage/models"
)

const mongoConnectTimeout = 10 * time.Second

type MongoClient struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoClient(uri, database string) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %s", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("error pinging MongoDB: %s", err)
	}

	return &MongoClient{
		client:     client,
		collection: client.Database(database).Collection("analyses"),
	}, nil
}

func (c *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return c.client.Disconnect(ctx)
}

// SaveAnalysis inserts one classification run.
func (c *MongoClient) SaveAnalysis(analysis *models.Analysis) error {
	if analysis.ID == 0 {
		analysis.ID = time.Now().UnixNano()
	}
	if analysis.Timestamp.IsZero() {
		analysis.Timestamp = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	doc := bson.M{
		"id":               analysis.ID,
		"timestamp":        analysis.Timestamp,
		"source":           analysis.Source,
		"label":            analysis.Label,
		"scores":           string(analysis.Scores),
		"explanation":      analysis.Explanation,
		"frame_samples":    analysis.FrameSamples,
		"duration_seconds": analysis.DurationSeconds,
		"latency_ms":       analysis.LatencyMs,
	}
	if _, err := c.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting analysis: %s", err)
	}
	return nil
}

// RecentAnalyses returns the newest runs first.
func (c *MongoClient) RecentAnalyses(limit int) ([]models.Analysis, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := c.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying analyses: %s", err)
	}
	defer cursor.Close(ctx)

	var records []models.Analysis
	for cursor.Next(ctx) {
		var doc struct {
			ID              int64     `bson:"id"`
			Timestamp       time.Time `bson:"timestamp"`
			Source          string    `bson:"source"`
			Label           string    `bson:"label"`
			Scores          string    `bson:"scores"`
			Explanation     string    `bson:"explanation"`
			FrameSamples    int       `bson:"frame_samples"`
			DurationSeconds float64   `bson:"duration_seconds"`
			LatencyMs       float64   `bson:"latency_ms"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding analysis: %s", err)
		}
		records = append(records, models.Analysis{
			ID:              doc.ID,
			Timestamp:       doc.Timestamp,
			Source:          doc.Source,
			Label:           doc.Label,
			Scores:          []byte(doc.Scores),
			Explanation:     doc.Explanation,
			FrameSamples:    doc.FrameSamples,
			DurationSeconds: doc.DurationSeconds,
			LatencyMs:       doc.LatencyMs,
		})
	}

	return records, cursor.Err()
}

// LabelCounts reports how many stored runs ended in each label.
func (c *MongoClient) LabelCounts() (map[string]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$label"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := c.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error counting labels: %s", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[string]int)
	for cursor.Next(ctx) {
		var doc struct {
			Label string `bson:"_id"`
			Count int    `bson:"count"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding label count: %s", err)
		}
		counts[doc.Label] = doc.Count
	}

	return counts, cursor.Err()
}
