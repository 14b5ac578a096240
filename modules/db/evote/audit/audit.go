package audit

import (
	"context"
	"time"

	"evote-node/modules/db"
	"evote-node/modules/db/evote"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type auditDb struct {
	*db.Collection
}

var _ AuditLog = &auditDb{}

func New(d *evote.EvoteDb) AuditLog {
	return &auditDb{db.NewCollection(d.DbInstance, "biometric_audit")}
}

func (a *auditDb) Init() error {
	err := a.Collection.Init()
	if err != nil {
		return err
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "voter_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	}
	_, err = a.Collection.Collection.Indexes().CreateOne(context.Background(), indexModel)
	return err
}

func (a *auditDb) Append(entry AuditEntry) error {
	if entry.EntryId == "" {
		entry.EntryId = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := a.InsertOne(context.Background(), entry)
	return err
}

func (a *auditDb) ListByVoter(voterId string, limit optional.Option[int64]) ([]AuditEntry, error) {
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	if limit.IsSome() {
		opts.SetLimit(limit.Unwrap())
	}
	cursor, err := a.Find(context.Background(), bson.M{"voter_id": voterId}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	results := make([]AuditEntry, 0)
	if err := cursor.All(context.Background(), &results); err != nil {
		return nil, err
	}
	return results, nil
}
