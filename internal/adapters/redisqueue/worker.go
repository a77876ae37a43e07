package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
)

// Reserve moves the oldest queued job onto the processing list, waiting up to
// wait for one to arrive. It returns model.ErrNoJobsAvailable when none did.
func (c *Client) Reserve(ctx context.Context, wait time.Duration) (*model.QueuedJob, error) {
	id, err := c.rdb.BLMove(ctx, c.queueKey(), c.processingKey(), "RIGHT", "LEFT", wait).Result()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrNoJobsAvailable
	}
	if err != nil {
		return nil, classify(err, "reserve job")
	}

	now := c.now().UTC()
	key := c.jobKey(id)
	var fields *redis.MapStringStringCmd
	var attempts *redis.IntCmd
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		attempts = pipe.HIncrBy(ctx, key, fieldAttempts, 1)
		pipe.HSet(ctx, key, fieldState, string(model.JobStateStarted), fieldStartedAt, formatTime(now))
		fields = pipe.HGetAll(ctx, key)
		return nil
	})
	if err != nil {
		return nil, classify(err, "mark job started")
	}

	f := fields.Val()
	kind := model.JobKind(f[fieldKind])
	var args []string
	if f[fieldArgs] != "" {
		if jsonErr := json.Unmarshal([]byte(f[fieldArgs]), &args); jsonErr != nil {
			args = nil
		}
	}
	if !kind.Valid() || args == nil {
		// The hash expired or was written by something else; drop the id.
		c.logger.WarnContext(ctx, "dropping unreadable job", "job_id", id, "kind", string(kind))
		c.rdb.LRem(ctx, c.processingKey(), 1, id)
		c.rdb.Del(ctx, key)
		return nil, model.ErrNoJobsAvailable
	}

	return &model.QueuedJob{
		ID:        id,
		Kind:      kind,
		Args:      args,
		Timeout:   parseSeconds(f[fieldTimeout]),
		Attempts:  int(attempts.Val()),
		StartedAt: now,
	}, nil
}

// Complete marks a job finished and releases it from the processing list.
func (c *Client) Complete(ctx context.Context, id, result string) error {
	return c.finish(ctx, id, model.JobStateFinished, fieldResult, result)
}

// Fail marks a job failed and releases it from the processing list.
func (c *Client) Fail(ctx context.Context, id, reason string) error {
	return c.finish(ctx, id, model.JobStateFailed, fieldError, reason)
}

func (c *Client) finish(ctx context.Context, id string, state model.JobState, field, value string) error {
	key := c.jobKey(id)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldState, string(state),
			fieldEndedAt, formatTime(c.now()),
			field, value,
		)
		pipe.Expire(ctx, key, c.resultTTL)
		pipe.LRem(ctx, c.processingKey(), 1, id)
		return nil
	})
	if err != nil {
		return classify(err, fmt.Sprintf("mark job %s", state))
	}
	return nil
}

// requeueScript moves one id from the processing list back to the queue in a
// single step. It is a no-op when the id already left the processing list.
//
// KEYS: processing, queue, job hash. ARGV: id, state field, queued state.
var requeueScript = redis.NewScript(`
if redis.call('LREM', KEYS[1], 1, ARGV[1]) == 0 then
	return 0
end
if redis.call('EXISTS', KEYS[3]) == 1 then
	redis.call('HSET', KEYS[3], ARGV[2], ARGV[3])
end
redis.call('RPUSH', KEYS[2], ARGV[1])
return 1
`)

// RequeueStale returns reserved jobs whose timeout has elapsed to the queue.
// A job without started_at (its worker died between reserving and marking it)
// is timed from enqueued_at, and one with neither is requeued at once.
// Delivery is at-least-once: a slow worker may still finish a requeued job.
func (c *Client) RequeueStale(ctx context.Context, now time.Time) (int, error) {
	ids, err := c.rdb.LRange(ctx, c.processingKey(), 0, -1).Result()
	if err != nil {
		return 0, classify(err, "list processing jobs")
	}

	requeued := 0
	for _, id := range ids {
		vals, hmErr := c.rdb.HMGet(ctx, c.jobKey(id), fieldStartedAt, fieldEnqueuedAt, fieldTimeout).Result()
		if hmErr != nil {
			return requeued, classify(hmErr, "read processing job")
		}
		if !isStale(vals, now) {
			continue
		}

		moved, runErr := requeueScript.Run(ctx, c.rdb,
			[]string{c.processingKey(), c.queueKey(), c.jobKey(id)},
			id, fieldState, string(model.JobStateQueued),
		).Int()
		if runErr != nil {
			return requeued, classify(runErr, "requeue stale job")
		}
		if moved == 0 {
			// A worker finished it in the meantime.
			continue
		}
		requeued++
		c.logger.WarnContext(ctx, "requeued stale job", "job_id", id)
	}
	return requeued, nil
}

// isStale reads HMGET started_at, enqueued_at, timeout_seconds.
func isStale(vals []any, now time.Time) bool {
	timeout, _ := vals[2].(string)
	for _, v := range vals[:2] {
		raw, _ := v.(string)
		if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return !now.Before(at.Add(parseSeconds(timeout)))
		}
	}
	return true
}
