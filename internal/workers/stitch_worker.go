package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	pgrepo "github.com/hirevid/hirevid/internal/repositories/postgres"
	"github.com/hirevid/hirevid/internal/services"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// StitchWorkerPool consumes stitch jobs from a redis stream. A job is
// enqueued when the answer counter for a token reaches the role's
// question count; the worker waits a grace period for stragglers, then
// stitches whatever answers are persisted.
type StitchWorkerPool struct {
	Redis      *redis.Client
	Stitcher   services.StitchService
	Links      pgrepo.LinkRepository
	Answers    pgrepo.VideoAnswerRepository
	Questions  pgrepo.QuestionRepository
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	// GraceDelay is the initial pause before the first readiness poll.
	// MaxWait bounds how long a job waits for all answers to land.
	GraceDelay   time.Duration
	PollInterval time.Duration
	MaxWait      time.Duration
}

func (p *StitchWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Stitcher == nil || p.Links == nil || p.Answers == nil || p.Questions == nil {
		return errors.New("StitchWorkerPool missing dependency: Redis/Stitcher/Links/Answers/Questions must be set")
	}
	if p.Stream == "" {
		p.Stream = "stitch:stream"
	}
	if p.Group == "" {
		p.Group = "stitch-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.GraceDelay <= 0 {
		p.GraceDelay = 5 * time.Second
	}
	if p.PollInterval <= 0 {
		p.PollInterval = 3 * time.Second
	}
	if p.MaxWait <= 0 {
		p.MaxWait = 2 * time.Minute
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

// Enqueue publishes a stitch job for the token. Duplicate enqueues are
// harmless: the stitch is idempotent behind the link's cached URL.
func (p *StitchWorkerPool) Enqueue(ctx context.Context, token string) error {
	return p.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: p.Stream,
		Values: map[string]any{"token": token},
	}).Err()
}

func (p *StitchWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *StitchWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	token, _ := msg.Values["token"].(string)
	if token == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id": msg.ID,
		"token":    token,
	})

	link, err := p.Links.GetByToken(ctx, token)
	if err != nil {
		log.WithError(err).Warn("stitch job dropped: link lookup failed")
		return
	}
	if link.StitchedVideoURL != nil && *link.StitchedVideoURL != "" {
		return
	}

	expected, err := p.Questions.CountByRole(ctx, link.RoleID)
	if err != nil {
		log.WithError(err).Warn("stitch job: question count failed")
	}

	p.waitForAnswers(ctx, token, expected, log)

	start := time.Now()
	result, err := p.Stitcher.Stitch(ctx, token)
	if err != nil {
		log.WithError(err).Error("stitch failed")
		return
	}
	log.WithFields(logrus.Fields{
		"from_cache": result.FromCache,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("stitch completed")
}

// waitForAnswers blocks until every expected answer is persisted or
// MaxWait elapses. The counter in redis only signals arrival; the
// database rows are what the stitcher will read, so the poll checks them.
func (p *StitchWorkerPool) waitForAnswers(ctx context.Context, token string, expected int64, log *logrus.Entry) {
	if expected <= 0 {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(p.GraceDelay):
	}

	deadline := time.Now().Add(p.MaxWait)
	for {
		count, err := p.Answers.CountByToken(ctx, token)
		if err == nil && count >= expected {
			return
		}
		if time.Now().After(deadline) {
			log.WithFields(logrus.Fields{
				"persisted": count,
				"expected":  expected,
			}).Warn("stitching with incomplete answer set after max wait")
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.PollInterval):
		}
	}
}

var _ services.StitchEnqueuer = (*StitchWorkerPool)(nil)
