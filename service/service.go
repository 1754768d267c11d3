package service

import (
	"time"

	"github.com/zlnvch/noteverse/cache"
	"github.com/zlnvch/noteverse/mq"
	"github.com/zlnvch/noteverse/store"
)

const defaultTokenTTL = 60 * time.Minute

type Service struct {
	Store      store.NoteverseStore
	Cache      cache.NoteverseCache
	MQ         mq.MessageQueue
	Keys       SigningKeys
	TokenTTL   time.Duration
	BcryptCost int
}

func NewService(
	store store.NoteverseStore,
	cache cache.NoteverseCache,
	mq mq.MessageQueue,
	keys SigningKeys,
) *Service {
	return &Service{
		Store:    store,
		Cache:    cache,
		MQ:       mq,
		Keys:     keys,
		TokenTTL: defaultTokenTTL,
	}
}
