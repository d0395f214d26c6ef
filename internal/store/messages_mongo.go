package store

import (
	"context"

	"github.com/chatapp/chatapp-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messagesCollection = "messages"

// MongoMessageStore implements MessageStore on the messages collection.
type MongoMessageStore struct {
	db *mongo.Database
}

func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	return &MongoMessageStore{db: db}
}

// EnsureMessageIndexes configures indexes for the messages collection.
// Called on startup from main after Mongo has connected.
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	col := db.Collection(messagesCollection)

	// Compound index on (room_id, created_at) for creation-order room queries.
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "room_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index().SetName("idx_room_created"),
	})
	return err
}

func (s *MongoMessageStore) col() *mongo.Collection {
	return s.db.Collection(messagesCollection)
}

func (s *MongoMessageStore) FindByID(ctx context.Context, id string) (*models.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var msg models.Message
	err = s.col().FindOne(ctx, bson.M{"_id": oid}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *MongoMessageStore) Insert(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}
	if msg.DeliveredTo == nil {
		msg.DeliveredTo = []string{}
	}

	res, err := s.col().InsertOne(ctx, msg)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	return msg, nil
}

// Save writes back the mutable receipt sets. $addToSet keeps the merge
// idempotent at the store level too, even if two instances race.
func (s *MongoMessageStore) Save(ctx context.Context, msg *models.Message) error {
	update := bson.M{}
	if len(msg.ReadBy) > 0 {
		update["read_by"] = bson.M{"$each": msg.ReadBy}
	}
	if len(msg.DeliveredTo) > 0 {
		update["delivered_to"] = bson.M{"$each": msg.DeliveredTo}
	}
	if len(update) == 0 {
		return nil
	}

	res, err := s.col().UpdateByID(ctx, msg.ID, bson.M{"$addToSet": update})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoMessageStore) FindByRoomOrderedByCreation(ctx context.Context, roomID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := s.col().Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
