package redis

import (
	"context"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
)

var (
	Client *redis.Client
	Ctx    = context.Background()
)

// InitRedis connects the shared client used for the per-appointment
// reconciliation locks.
func InitRedis() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	Client = redis.NewClient(&redis.Options{Addr: addr})

	if _, err := Client.Ping(Ctx).Result(); err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	log.Println("✅ Redis connection established successfully!")
}
