package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"todo-api/internal/config"
)

// Mongo agrupa el cliente y la base elegida por entorno.
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// NewMongo crea el cliente; el driver conecta en segundo plano, asi que un
// servidor caido recien se nota en Ping o en la primera operacion.
func NewMongo(cfg *config.Config) (*Mongo, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, err
	}
	return &Mongo{
		Client:   client,
		Database: client.Database(cfg.MongoDatabaseName()),
	}, nil
}

// Ping verifica conectividad con el primario.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
