package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"resonance_net/internal/discovery"
	nodeRepo "resonance_net/internal/repository/node"
	redisSvc "resonance_net/internal/service/redis"
	"resonance_net/internal/service/server"
	"resonance_net/internal/utils/log"
)

func main() {
	addr := envOr("RESONANCE_RELAY", "localhost:9090")

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
	if err := redis.Ping(context.Background()); err != nil {
		log.Fatal("redis unreachable", zap.Error(err))
	}

	repo := nodeRepo.NewNodeRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Warn("ensure node indexes failed", zap.Error(err))
	}
	cancel()

	if mdns, err := discovery.Advertise("resonance-relay", portOf(addr)); err != nil {
		log.Warn("mdns advertise failed", zap.Error(err))
	} else {
		defer mdns.Shutdown()
	}

	c := server.NewHttpServer(repo, redis)
	go c.Run(addr)
	log.Info("relay started", zap.String("addr", addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)
	<-done
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func portOf(addr string) int {
	if i := strings.LastIndexByte(addr, ':'); i >= 0 {
		if p, err := strconv.Atoi(addr[i+1:]); err == nil {
			return p
		}
	}
	return 9090
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
