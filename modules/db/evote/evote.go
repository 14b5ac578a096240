package evote

import (
	"context"

	a "evote-node/modules/aggregate"
	"evote-node/modules/db"

	"go.mongodb.org/mongo-driver/bson"
)

// EvoteDb is the database handle every voting-pipeline collection hangs off.
type EvoteDb struct {
	*db.DbInstance
}

var _ a.Plugin = &EvoteDb{}

func New(d db.Db) *EvoteDb {
	return &EvoteDb{db.NewDbInstance(d)}
}

// Nuke drops the contents of every collection. Test environments only.
func (db *EvoteDb) Nuke() error {
	ctx := context.Background()

	colNames, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return err
	}

	for _, colName := range colNames {
		_, err := db.Collection(colName).DeleteMany(ctx, bson.M{})
		if err != nil {
			return err
		}
	}

	return nil
}
