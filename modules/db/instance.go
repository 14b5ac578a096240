package db

import (
	"evote-node/lib/utils"
	a "evote-node/modules/aggregate"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DbInstance struct {
	db   Db
	opts []*options.DatabaseOptions

	*mongo.Database
}

var _ a.Plugin = &DbInstance{}

func NewDbInstance(db Db, opts ...*options.DatabaseOptions) *DbInstance {
	return &DbInstance{
		db:   db,
		opts: opts,
	}
}

// Init implements aggregate.Plugin.
//
// Resolved here rather than in the constructor since the underlying client
// only exists after the Db plugin's own Init has run.
func (d *DbInstance) Init() error {
	d.Database = d.db.Database(d.db.DbName(), d.opts...)
	return nil
}

// Start implements aggregate.Plugin.
func (d *DbInstance) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (d *DbInstance) Stop() error {
	return nil
}
