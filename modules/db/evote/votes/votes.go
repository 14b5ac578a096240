package votes

import (
	"context"
	"time"

	"evote-node/modules/db"
	"evote-node/modules/db/evote"

	"github.com/moznion/go-optional"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type voteDb struct {
	*db.Collection
}

var _ Votes = &voteDb{}

func New(d *evote.EvoteDb) Votes {
	return &voteDb{db.NewCollection(d.DbInstance, "votes")}
}

func (v *voteDb) Init() error {
	err := v.Collection.Init()
	if err != nil {
		return err
	}

	ctx := context.Background()
	_, err = v.Collection.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// at-most-one vote per (voter, election); failed votes keep the
			// slot until an administrative purge
			Keys: bson.D{
				{Key: "voter_id", Value: 1},
				{Key: "election_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "vote_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// reconciler scans pending oldest-first
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "cast_at", Value: 1},
			},
		},
		{
			// tally replays success records in position order
			Keys: bson.D{
				{Key: "election_id", Value: 1},
				{Key: "status", Value: 1},
				{Key: "position", Value: 1},
			},
		},
	})
	return err
}

func (v *voteDb) InsertPending(record VoteRecord) error {
	record.Status = VoteStatusPendingChain
	if record.CastAt.IsZero() {
		record.CastAt = time.Now().UTC()
	}
	record.StatusAt = record.CastAt
	_, err := v.InsertOne(context.Background(), record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (v *voteDb) GetVote(voterId string, electionId string) (*VoteRecord, error) {
	findResult := v.FindOne(context.Background(), bson.M{
		"voter_id":    voterId,
		"election_id": electionId,
	})
	if findResult.Err() != nil {
		if findResult.Err() == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, findResult.Err()
	}
	record := VoteRecord{}
	if err := findResult.Decode(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (v *voteDb) SetTxHandle(voteId string, txHandle string) error {
	_, err := v.UpdateOne(context.Background(), bson.M{
		"vote_id": voteId,
		"status":  VoteStatusPendingChain,
	}, bson.M{
		"$set": bson.M{"tx_handle": txHandle},
	})
	return err
}

func (v *voteDb) IncrementRetry(voteId string) (int, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := v.FindOneAndUpdate(context.Background(), bson.M{
		"vote_id": voteId,
	}, bson.M{
		"$inc": bson.M{"retry_count": 1},
	}, opts)
	if res.Err() != nil {
		return 0, res.Err()
	}
	record := VoteRecord{}
	if err := res.Decode(&record); err != nil {
		return 0, err
	}
	return record.RetryCount, nil
}

func (v *voteDb) SetLastError(voteId string, lastError string) error {
	_, err := v.UpdateOne(context.Background(), bson.M{
		"vote_id": voteId,
	}, bson.M{
		"$set": bson.M{"last_error": lastError},
	})
	return err
}

// ConfirmSuccess transitions PENDING_CHAIN -> SUCCESS. The status filter
// makes the update a compare-and-swap: a record already transitioned by a
// concurrent worker matches nothing and the caller is told it lost.
func (v *voteDb) ConfirmSuccess(voteId string) (bool, error) {
	return v.transition(voteId, VoteStatusSuccess, bson.M{})
}

func (v *voteDb) MarkFailed(voteId string, reason string) (bool, error) {
	return v.transition(voteId, VoteStatusFailed, bson.M{"last_error": reason})
}

func (v *voteDb) transition(voteId string, to VoteStatus, extra bson.M) (bool, error) {
	set := bson.M{
		"status":    to,
		"status_at": time.Now().UTC(),
	}
	for k, val := range extra {
		set[k] = val
	}
	res, err := v.UpdateOne(context.Background(), bson.M{
		"vote_id": voteId,
		"status":  VoteStatusPendingChain,
	}, bson.M{
		"$set": set,
	})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (v *voteDb) MarkTallied(ctx context.Context, voteId string) error {
	_, err := v.UpdateOne(ctx, bson.M{
		"vote_id": voteId,
		"status":  VoteStatusSuccess,
	}, bson.M{
		"$set": bson.M{"tallied": true},
	})
	return err
}

func (v *voteDb) FlagForReview(voteId string) error {
	_, err := v.UpdateOne(context.Background(), bson.M{
		"vote_id": voteId,
	}, bson.M{
		"$set": bson.M{"flagged": true},
	})
	return err
}

func (v *voteDb) FindPending(limit optional.Option[int64]) ([]VoteRecord, error) {
	opts := options.Find().SetSort(bson.M{"cast_at": 1})
	if limit.IsSome() {
		opts.SetLimit(limit.Unwrap())
	}
	// flagged records are excluded here, not skipped by the caller: a
	// backlog of flagged votes must never crowd fresh ones out of the batch
	return v.list(bson.M{
		"status":  VoteStatusPendingChain,
		"flagged": bson.M{"$ne": true},
	}, opts)
}

func (v *voteDb) FindUntallied() ([]VoteRecord, error) {
	return v.list(bson.M{
		"status":  VoteStatusSuccess,
		"tallied": false,
	}, options.Find().SetSort(bson.M{"position": 1}))
}

func (v *voteDb) ListSuccess(electionId string) ([]VoteRecord, error) {
	return v.list(bson.M{
		"election_id": electionId,
		"status":      VoteStatusSuccess,
	}, options.Find().SetSort(bson.M{"position": 1}))
}

func (v *voteDb) ListFlagged(electionId string) ([]VoteRecord, error) {
	return v.list(bson.M{
		"election_id": electionId,
		"flagged":     true,
	}, options.Find().SetSort(bson.M{"cast_at": 1}))
}

func (v *voteDb) CountPending(electionId string) (int64, error) {
	return v.CountDocuments(context.Background(), bson.M{
		"election_id": electionId,
		"status":      VoteStatusPendingChain,
	})
}

func (v *voteDb) list(filter bson.M, opts *options.FindOptions) ([]VoteRecord, error) {
	cursor, err := v.Find(context.Background(), filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(context.Background())

	results := make([]VoteRecord, 0)
	if err := cursor.All(context.Background(), &results); err != nil {
		return nil, err
	}
	return results, nil
}
