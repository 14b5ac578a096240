package db

import (
	"context"

	"evote-node/lib/utils"
	a "evote-node/modules/aggregate"
	"evote-node/modules/config"

	"github.com/chebyrash/promise"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Transactor runs a function inside a multi-document transaction. Every
// collection call that should commit or abort with the transaction must be
// handed the callback's context.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Db interface {
	a.Plugin
	Transactor
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
	DbName() string
}

type db struct {
	conf *config.Config[DbConfig]
	*mongo.Client
}

var _ Db = &db{}

func New(conf *config.Config[DbConfig]) *db {
	return &db{conf: conf}
}

// Init implements aggregate.Plugin.
func (db *db) Init() error {
	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(db.conf.Get().DbURI))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	db.Client = client
	return nil
}

// Start implements aggregate.Plugin.
func (db *db) Start() *promise.Promise[any] {
	return utils.PromiseResolve[any](nil)
}

// Stop implements aggregate.Plugin.
func (db *db) Stop() error {
	return db.Disconnect(context.Background())
}

// WithTransaction implements Transactor. The driver retries the callback
// on transient transaction errors, so fn must be safe to re-run.
func (db *db) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := db.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (db *db) DbName() string {
	return db.conf.Get().DbName
}
