package positions

import (
	"context"
	"time"

	"evote-node/modules/db"
	"evote-node/modules/db/evote"
	"evote-node/modules/db/evote/tallies"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type positionDb struct {
	*db.Collection
}

var _ Positions = &positionDb{}

func New(d *evote.EvoteDb) Positions {
	return &positionDb{db.NewCollection(d.DbInstance, "position_log")}
}

func (p *positionDb) Init() error {
	err := p.Collection.Init()
	if err != nil {
		return err
	}

	ctx := context.Background()
	_, err = p.Collection.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "vote_id", Value: 1},
				{Key: "level", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "voter_id", Value: 1},
				{Key: "election_id", Value: 1},
			},
		},
	})
	return err
}

func (p *positionDb) Record(ctx context.Context, entry PositionEntry) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}
	_, err := p.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEntry
		}
		return err
	}
	return nil
}

func (p *positionDb) Exists(ctx context.Context, voteId string, level tallies.Level) (bool, error) {
	count, err := p.CountDocuments(ctx, bson.M{
		"vote_id": voteId,
		"level":   level,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *positionDb) ListByVoter(voterId string, electionId string) ([]PositionEntry, error) {
	cursor, err := p.Find(context.Background(), bson.M{
		"voter_id":    voterId,
		"election_id": electionId,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	results := make([]PositionEntry, 0)
	if err := cursor.All(context.Background(), &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *positionDb) DeleteForElection(electionId string) error {
	_, err := p.DeleteMany(context.Background(), bson.M{"election_id": electionId})
	return err
}
