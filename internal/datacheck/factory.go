package datacheck

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/interva-cod-server/internal/domain"
)

// Checker modes.
const (
	ModeNone   = "none"
	ModeRemote = "remote"
)

// New builds the checker selected by config. The returned close function
// releases any Redis connection and is never nil.
func New(config domain.CheckerConfig, cacheConfig domain.CacheConfig, logger *logrus.Logger) (domain.ConsistencyChecker, func() error, error) {
	noop := func() error { return nil }

	switch config.Mode {
	case "", ModeNone:
		logger.Info("Consistency check disabled, records are used as given")
		return NewPassthrough(), noop, nil
	case ModeRemote:
	default:
		return nil, noop, domain.NewValidationError("checker.mode", "must be none or remote", config.Mode)
	}

	remote := NewRemoteChecker(RemoteConfig{
		BaseURL:   config.BaseURL,
		Timeout:   config.Timeout,
		RateLimit: config.RateLimit,
	}, logger)

	var shared ResultCache
	closeFn := noop
	if config.UseRedis {
		redisCache, err := NewRedisCache(cacheConfig)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to create check cache: %w", err)
		}
		shared = redisCache
		closeFn = redisCache.Close
	}

	cached, err := NewCachedChecker(remote, config.CacheSize, shared, config.CacheTTL, logger)
	if err != nil {
		closeFn()
		return nil, noop, err
	}

	logger.WithFields(logrus.Fields{
		"base_url":   config.BaseURL,
		"cache_size": config.CacheSize,
		"use_redis":  config.UseRedis,
	}).Info("Using remote consistency check")

	return cached, closeFn, nil
}
