// Package redisqueue is the Redis-backed job queue shared by the gateway, the engine and its workers.
//
// Layout: each job is a hash at <prefix>:job:<id>; pending ids sit in the list
// <prefix>:queue:<name> and reserved ids in <prefix>:queue:<name>:processing.
// Producers LPUSH, workers BLMOVE from the right, so delivery is FIFO.
package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

const (
	healthTimeout    = 2 * time.Second
	defaultResultTTL = 24 * time.Hour

	fieldKind       = "kind"
	fieldArgs       = "args"
	fieldTimeout    = "timeout_seconds"
	fieldOwner      = "owner"
	fieldState      = "state"
	fieldEnqueuedAt = "enqueued_at"
	fieldStartedAt  = "started_at"
	fieldEndedAt    = "ended_at"
	fieldAttempts   = "attempts"
	fieldError      = "error"
	fieldResult     = "result"
)

// Options configures a Client.
type Options struct {
	Redis     redis.UniversalClient
	QueueName string
	KeyPrefix string
	// ResultTTL is how long terminal job hashes are kept; defaults to 24h.
	ResultTTL time.Duration
	Logger    *slog.Logger
	Now       func() time.Time
}

// Client enqueues, reserves and reports on jobs. It is safe for concurrent use.
type Client struct {
	rdb       redis.UniversalClient
	queue     string
	prefix    string
	resultTTL time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	if opts.Redis == nil {
		return nil, errors.New("redisqueue: redis client is required")
	}
	if opts.QueueName == "" {
		opts.QueueName = "default"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "lifebuddy"
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = defaultResultTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		rdb:       opts.Redis,
		queue:     opts.QueueName,
		prefix:    opts.KeyPrefix,
		resultTTL: opts.ResultTTL,
		logger:    opts.Logger.With("component", "redisqueue", "queue", opts.QueueName),
		now:       opts.Now,
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(opts Options) *Client {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Client) jobKey(id string) string { return c.prefix + ":job:" + id }
func (c *Client) queueKey() string { return c.prefix + ":queue:" + c.queue }
func (c *Client) processingKey() string { return c.queueKey() + ":processing" }

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func seconds(d time.Duration) string { return strconv.FormatInt(int64(d/time.Second), 10) }

func parseSeconds(s string) time.Duration {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(n) * time.Second
}

// Enqueue stores the job and pushes it onto the queue in one MULTI/EXEC.
// Invalid requests are rejected without contacting Redis.
func (c *Client) Enqueue(ctx context.Context, req model.EnqueueRequest) (model.JobHandle, error) {
	if err := req.Validate(); err != nil {
		return model.JobHandle{}, apperrors.EnqueueFailed(err, "job rejected")
	}

	id := uuid.New()
	now := c.now().UTC()
	args, err := json.Marshal(req.Args)
	if err != nil {
		return model.JobHandle{}, apperrors.EnqueueFailed(err, "job rejected")
	}

	key := c.jobKey(id.String())
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldKind, string(req.Kind),
			fieldArgs, string(args),
			fieldTimeout, seconds(req.Timeout),
			fieldOwner, req.Owner,
			fieldState, string(model.JobStateQueued),
			fieldEnqueuedAt, formatTime(now),
			fieldAttempts, 0,
		)
		pipe.LPush(ctx, c.queueKey(), id.String())
		return nil
	})
	if err != nil {
		return model.JobHandle{}, classify(err, "enqueue job")
	}

	return model.JobHandle{
		JobID:      id,
		EnqueuedAt: now,
		Timeout:    req.Timeout,
		Target:     req.Kind,
		Args:       append([]string(nil), req.Args...),
	}, nil
}

// Healthy reports whether Redis answers PING within two seconds.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err() == nil
}

// Status returns a read-only snapshot of a job. Unknown ids are NotFound.
func (c *Client) Status(ctx context.Context, jobID string) (model.JobStatus, error) {
	if _, err := uuid.Parse(jobID); err != nil {
		return model.JobStatus{}, apperrors.NotFound("Job not found")
	}
	fields, err := c.rdb.HGetAll(ctx, c.jobKey(jobID)).Result()
	if err != nil {
		return model.JobStatus{}, classify(err, "read job status")
	}
	if len(fields) == 0 {
		return model.JobStatus{}, apperrors.NotFound("Job not found")
	}
	return statusFromHash(jobID, fields), nil
}

// Stats reports queue and processing depth.
func (c *Client) Stats(ctx context.Context) (model.QueueStats, error) {
	var queued, processing *redis.IntCmd
	_, err := c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		queued = pipe.LLen(ctx, c.queueKey())
		processing = pipe.LLen(ctx, c.processingKey())
		return nil
	})
	if err != nil {
		return model.QueueStats{}, classify(err, "queue stats")
	}
	return model.QueueStats{Queued: queued.Val(), Processing: processing.Val()}, nil
}

// classify maps a Redis failure onto the error taxonomy. Server replies mean
// Redis refused the command; everything else is a transport failure.
func classify(err error, op string) error {
	var replyErr redis.Error
	if errors.As(err, &replyErr) && !errors.Is(err, redis.Nil) {
		return apperrors.EnqueueFailed(fmt.Errorf("%s: %w", op, err), "job queue refused the request")
	}
	return apperrors.UpstreamUnavailable(fmt.Errorf("%s: %w", op, err), "Job queue is unavailable.")
}

func statusFromHash(id string, f map[string]string) model.JobStatus {
	st := model.JobStatus{
		JobID: id,
		Kind:  model.JobKind(f[fieldKind]),
		State: model.JobState(f[fieldState]),
		Owner: f[fieldOwner],
		Error: f[fieldError],
	}
	st.Status = st.State.PublicStatus()
	st.Attempts, _ = strconv.Atoi(f[fieldAttempts])
	if t, err := time.Parse(time.RFC3339Nano, f[fieldEnqueuedAt]); err == nil {
		st.EnqueuedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, f[fieldStartedAt]); err == nil {
		st.StartedAt = &t
	}
	if t, err := time.Parse(time.RFC3339Nano, f[fieldEndedAt]); err == nil {
		st.EndedAt = &t
	}
	st.Result = f[fieldResult]
	return st
}
