package database_mgo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

func NewMongoDBconnection(uri string) *mongo.Client {
	client, err := mongo.NewClient(options.Client().ApplyURI(uri))
	if err != nil {
		panic(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = client.Connect(ctx); err != nil {
		panic("mongo server is not reachable")
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		panic("mongo server did not answer ping")
	}

	return client
}
