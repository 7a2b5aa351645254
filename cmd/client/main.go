package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"resonance_net/internal/repository/node"
	"resonance_net/internal/service/app"
	redisSvc "resonance_net/internal/service/redis"
)

func main() {
	// os.Args[0] is the program name, os.Args[1:] are arguments
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run main.go <node name>")
	}

	name := os.Args[1]

	mongoDBClient, err := initMongo(envOr("RESONANCE_MONGO", "mongodb://localhost:27017"))
	if err != nil {
		panic(err)
	}

	db := mongoDBClient.Database("resonance")

	rdb := redis.NewClient(&redis.Options{
		Addr:     envOr("RESONANCE_REDIS", "localhost:6379"),
		Password: "", // no password by default
		DB:       0,  // use default DB
	})

	redis := redisSvc.NewRedis(rdb)

	ctx := context.Background()

	nodeRepo := node.NewNodeRepo(db)
	app := app.NewApp(nodeRepo, redis)
	app.Run(ctx, name)

	// Run returns when the UI exits.
	app.Stop()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}
