package elections

import (
	"context"

	"evote-node/modules/db"
	"evote-node/modules/db/evote"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type electionDb struct {
	*db.Collection
}

var _ Elections = &electionDb{}

func New(d *evote.EvoteDb) Elections {
	return &electionDb{db.NewCollection(d.DbInstance, "elections")}
}

func (e *electionDb) Init() error {
	err := e.Collection.Init()
	if err != nil {
		return err
	}

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "election_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err = e.Collection.Collection.Indexes().CreateOne(context.Background(), indexModel)
	return err
}

func (e *electionDb) StoreElection(election ElectionRecord) error {
	opts := options.FindOneAndUpdate().SetUpsert(true)
	res := e.FindOneAndUpdate(context.Background(), bson.M{
		"election_id": election.ElectionId,
	}, bson.M{
		"$set": election,
	}, opts)
	if res.Err() != nil && res.Err() != mongo.ErrNoDocuments {
		return res.Err()
	}
	return nil
}

func (e *electionDb) GetElection(electionId string) (*ElectionRecord, error) {
	findResult := e.FindOne(context.Background(), bson.M{"election_id": electionId})
	if findResult.Err() != nil {
		if findResult.Err() == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, findResult.Err()
	}
	election := ElectionRecord{}
	if err := findResult.Decode(&election); err != nil {
		return nil, err
	}
	return &election, nil
}

func (e *electionDb) IncrementContestantVotes(ctx context.Context, electionId string, contestantId string) error {
	_, err := e.UpdateOne(ctx, bson.M{
		"election_id":               electionId,
		"contestants.contestant_id": contestantId,
	}, bson.M{
		"$inc": bson.M{
			"contestants.$.votes": 1,
			"total_votes":         1,
		},
	})
	return err
}

func (e *electionDb) ResetVoteCounts(electionId string) error {
	_, err := e.UpdateOne(context.Background(), bson.M{
		"election_id": electionId,
	}, bson.M{
		"$set": bson.M{
			"contestants.$[].votes": 0,
			"total_votes":           0,
		},
	})
	return err
}
