package counters

import (
	"context"

	"evote-node/modules/db"
	"evote-node/modules/db/evote"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counterDb struct {
	*db.Collection
}

var _ Counters = &counterDb{}

func New(d *evote.EvoteDb) Counters {
	return &counterDb{db.NewCollection(d.DbInstance, "position_counters")}
}

func (c *counterDb) Init() error {
	err := c.Collection.Init()
	if err != nil {
		return err
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "election_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err = c.Collection.Collection.Indexes().CreateOne(context.Background(), indexModel)
	return err
}

func (c *counterDb) NextPosition(electionId string) (uint64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	res := c.FindOneAndUpdate(context.Background(), bson.M{
		"election_id": electionId,
	}, bson.M{
		"$inc": bson.M{"seq": 1},
	}, opts)
	if res.Err() != nil {
		return 0, res.Err()
	}
	record := CounterRecord{}
	if err := res.Decode(&record); err != nil {
		return 0, err
	}
	return record.Seq, nil
}

func (c *counterDb) Current(electionId string) (uint64, error) {
	res := c.FindOne(context.Background(), bson.M{"election_id": electionId})
	if res.Err() != nil {
		if res.Err() == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, res.Err()
	}
	record := CounterRecord{}
	if err := res.Decode(&record); err != nil {
		return 0, err
	}
	return record.Seq, nil
}
