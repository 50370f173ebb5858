package chat

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultConnectTimeout = 10 * time.Second

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping,
// and returns both the client and the selected database.
func Connect(ctx context.Context, cfg MongoConfig) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}

// MongoStore keeps messages in "messages" and the per-conversation summary
// in "conversations".
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// Save inserts the message and upserts the conversation's last message.
func (s *MongoStore) Save(ctx context.Context, m Message) (Message, error) {
	res, err := s.db.Collection("messages").InsertOne(ctx, m)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		m.ID = oid.Hex()
	}

	_, err = s.db.Collection("conversations").UpdateOne(ctx,
		bson.M{"_id": m.ConversationID},
		bson.M{"$set": bson.M{
			"lastMessageText": preview(m),
			"lastMessageAt":   m.CreatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return m, fmt.Errorf("update conversation: %w", err)
	}
	return m, nil
}

// History returns up to limit messages older than before (all when before
// is zero), oldest first.
func (s *MongoStore) History(ctx context.Context, conversationID string, before time.Time, limit int) ([]Message, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(ClampLimit(limit)))
	cur, err := s.db.Collection("messages").Find(ctx, historyFilter(conversationID, before), opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	out := []Message{}
	for cur.Next(ctx) {
		var doc struct {
			ID      primitive.ObjectID `bson:"_id"`
			Message `bson:",inline"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		doc.Message.ID = doc.ID.Hex()
		out = append(out, doc.Message)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

func historyFilter(conversationID string, before time.Time) bson.M {
	f := bson.M{"conversationId": conversationID}
	if !before.IsZero() {
		f["createdAt"] = bson.M{"$lt": before.UTC()}
	}
	return f
}

func reverse(ms []Message) {
	for i, j := 0, len(ms)-1; i < j; i, j = i+1, j-1 {
		ms[i], ms[j] = ms[j], ms[i]
	}
}
