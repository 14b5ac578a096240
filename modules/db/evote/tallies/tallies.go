package tallies

import (
	"context"
	"time"

	"evote-node/modules/db"
	"evote-node/modules/db/evote"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type tallyDb struct {
	*db.Collection
}

var _ Tallies = &tallyDb{}

func New(d *evote.EvoteDb) Tallies {
	return &tallyDb{db.NewCollection(d.DbInstance, "tallies")}
}

func (t *tallyDb) Init() error {
	err := t.Collection.Init()
	if err != nil {
		return err
	}

	indexModel := mongo.IndexModel{
		Keys: bson.D{
			{Key: "election_id", Value: 1},
			{Key: "level", Value: 1},
			{Key: "unit_id", Value: 1},
			{Key: "candidate_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	}
	_, err = t.Collection.Collection.Indexes().CreateOne(context.Background(), indexModel)
	return err
}

func (t *tallyDb) Increment(ctx context.Context, electionId string, level Level, unitId string, candidateId string) (uint64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	res := t.FindOneAndUpdate(ctx, bson.M{
		"election_id":  electionId,
		"level":        level,
		"unit_id":      unitId,
		"candidate_id": candidateId,
	}, bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}, opts)
	if res.Err() != nil {
		return 0, res.Err()
	}
	row := TallyRow{}
	if err := res.Decode(&row); err != nil {
		return 0, err
	}
	return row.Count, nil
}

func (t *tallyDb) Breakdown(electionId string, level Level, unitId string) ([]TallyRow, error) {
	opts := options.Find().SetSort(bson.M{"count": -1})
	cursor, err := t.Find(context.Background(), bson.M{
		"election_id": electionId,
		"level":       level,
		"unit_id":     unitId,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	results := make([]TallyRow, 0)
	if err := cursor.All(context.Background(), &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (t *tallyDb) Leading(electionId string, level Level, unitId string) (*TallyRow, error) {
	opts := options.FindOne().SetSort(bson.D{
		{Key: "count", Value: -1},
		{Key: "candidate_id", Value: 1},
	})
	res := t.FindOne(context.Background(), bson.M{
		"election_id": electionId,
		"level":       level,
		"unit_id":     unitId,
	}, opts)
	if res.Err() != nil {
		if res.Err() == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, res.Err()
	}
	row := TallyRow{}
	if err := res.Decode(&row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (t *tallyDb) DeleteForElection(electionId string) error {
	_, err := t.DeleteMany(context.Background(), bson.M{"election_id": electionId})
	return err
}
