package main

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lifebuddy/lifebuddy-api/internal/adapters/redisqueue"
	"github.com/lifebuddy/lifebuddy-api/internal/bootstrap"
)

var errFullDatabaseNotConfigured = errors.New("DATABASE_URL_FULL is required for this command")

// connectFullDB opens the full-access pool. Callers close it.
func connectFullDB(cmdCtx *commandContext) (*sql.DB, error) {
	if cmdCtx.Config.FullDatabase.URL == "" {
		return nil, errFullDatabaseNotConfigured
	}
	db, err := bootstrap.OpenFullAccessDB(cmdCtx.Ctx, cmdCtx.Config.FullDatabase, cmdCtx.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil
}

// connectQueue opens the job queue. Callers close the returned redis client.
//
//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectQueue(cmdCtx *commandContext) (*redisqueue.Client, redis.UniversalClient, error) {
	rdb, err := bootstrap.ConnectRedis(cmdCtx.Ctx, cmdCtx.Config.Redis, cmdCtx.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	q, err := redisqueue.New(redisqueue.Options{
		Redis:     rdb,
		QueueName: cmdCtx.Config.Queue.Name,
		KeyPrefix: cmdCtx.Config.Queue.KeyPrefix,
		ResultTTL: cmdCtx.Config.Queue.ResultTTL,
		Logger:    cmdCtx.Logger,
	})
	if err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("job queue: %w", err)
	}
	return q, rdb, nil
}

func closeDB(cmdCtx *commandContext, db *sql.DB) {
	if err := db.Close(); err != nil {
		cmdCtx.Logger.Warn("db close failed", "error", err)
	}
}

func closeRedis(cmdCtx *commandContext, rdb redis.UniversalClient) {
	if err := rdb.Close(); err != nil {
		cmdCtx.Logger.Warn("redis close failed", "error", err)
	}
}
