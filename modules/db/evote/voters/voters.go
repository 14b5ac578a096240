package voters

import (
	"context"

	"evote-node/modules/db"
	"evote-node/modules/db/evote"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type voterDb struct {
	*db.Collection
}

var _ Voters = &voterDb{}

func New(d *evote.EvoteDb) Voters {
	return &voterDb{db.NewCollection(d.DbInstance, "voters")}
}

func (v *voterDb) Init() error {
	err := v.Collection.Init()
	if err != nil {
		return err
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "voter_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err = v.Collection.Collection.Indexes().CreateOne(context.Background(), indexModel)
	return err
}

func (v *voterDb) StoreVoter(voter VoterRecord) error {
	opts := options.FindOneAndUpdate().SetUpsert(true)
	res := v.FindOneAndUpdate(context.Background(), bson.M{
		"voter_id": voter.VoterId,
	}, bson.M{
		"$set": voter,
	}, opts)
	if res.Err() != nil && res.Err() != mongo.ErrNoDocuments {
		return res.Err()
	}
	return nil
}

func (v *voterDb) GetVoter(voterId string) (*VoterRecord, error) {
	findResult := v.FindOne(context.Background(), bson.M{"voter_id": voterId})
	if findResult.Err() != nil {
		if findResult.Err() == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, findResult.Err()
	}
	voter := VoterRecord{}
	if err := findResult.Decode(&voter); err != nil {
		return nil, err
	}
	return &voter, nil
}
