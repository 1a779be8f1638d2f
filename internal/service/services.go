package service

import (
	postgres "github.com/evbook/evbook-go/internal/repository/postgres"
	redis "github.com/evbook/evbook-go/internal/repository/redis"
	"github.com/evbook/evbook-go/internal/service/admin"
	"github.com/evbook/evbook-go/internal/service/booking"
	"github.com/evbook/evbook-go/internal/service/query"
)

type Services struct {
	Booking *booking.Service
	Query   *query.Service
	Admin   *admin.Service
}

type Config struct {
	Query query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.EventsPubSub,
	limiter *redis.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Booking: booking.New(store, cache, pubsub, limiter),
		Query:   query.New(store, cache, cfg.Query),
		Admin:   admin.New(store, cache, pubsub),
	}
}
