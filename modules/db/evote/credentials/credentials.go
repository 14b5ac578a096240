package credentials

import (
	"context"
	"time"

	"evote-node/modules/db"
	"evote-node/modules/db/evote"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type credentialDb struct {
	*db.Collection

	keys *db.Collection
}

var _ Credentials = &credentialDb{}

func New(d *evote.EvoteDb) Credentials {
	return &credentialDb{
		Collection: db.NewCollection(d.DbInstance, "credentials"),
		keys:       db.NewCollection(d.DbInstance, "credential_keys"),
	}
}

func (c *credentialDb) Init() error {
	err := c.Collection.Init()
	if err != nil {
		return err
	}
	err = c.keys.Init()
	if err != nil {
		return err
	}

	ctx := context.Background()
	activeOnly := bson.M{"is_active": true}
	_, err = c.Collection.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// no two voters may enroll the same sample
			Keys:    bson.D{{Key: "sample_hash", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(activeOnly),
		},
		{
			// at most one active credential per voter
			Keys:    bson.D{{Key: "voter_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(activeOnly),
		},
	})
	if err != nil {
		return err
	}

	_, err = c.keys.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "credential_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (c *credentialDb) Store(cred CredentialRecord, key KeyRecord) error {
	ctx := context.Background()
	_, err := c.InsertOne(ctx, cred)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	_, err = c.keys.InsertOne(ctx, key)
	return err
}

func (c *credentialDb) GetActiveByVoter(voterId string) (*CredentialRecord, error) {
	return c.findActive(bson.M{"voter_id": voterId})
}

func (c *credentialDb) GetActiveByHash(sampleHash string) (*CredentialRecord, error) {
	return c.findActive(bson.M{"sample_hash": sampleHash})
}

func (c *credentialDb) GetById(credentialId string) (*CredentialRecord, error) {
	return c.find(bson.M{"credential_id": credentialId})
}

func (c *credentialDb) findActive(filter bson.M) (*CredentialRecord, error) {
	filter["is_active"] = true
	return c.find(filter)
}

func (c *credentialDb) find(filter bson.M) (*CredentialRecord, error) {
	findResult := c.FindOne(context.Background(), filter)
	if findResult.Err() != nil {
		if findResult.Err() == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, findResult.Err()
	}
	cred := CredentialRecord{}
	if err := findResult.Decode(&cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (c *credentialDb) Deactivate(voterId string) error {
	_, err := c.UpdateOne(context.Background(), bson.M{
		"voter_id":  voterId,
		"is_active": true,
	}, bson.M{
		"$set": bson.M{"is_active": false},
	})
	return err
}

func (c *credentialDb) TouchLastUsed(voterId string) error {
	_, err := c.UpdateOne(context.Background(), bson.M{
		"voter_id":  voterId,
		"is_active": true,
	}, bson.M{
		"$set": bson.M{"last_used": time.Now().UTC()},
	})
	return err
}

func (c *credentialDb) GetPrivateKey(credentialId string) ([]byte, error) {
	findResult := c.keys.FindOne(context.Background(), bson.M{"credential_id": credentialId})
	if findResult.Err() != nil {
		return nil, findResult.Err()
	}
	key := KeyRecord{}
	if err := findResult.Decode(&key); err != nil {
		return nil, err
	}
	return key.PrivateKey, nil
}
