package scheduler

import (
	"context"
	"errors"
	"fmt"

	"leadcrm_backend/internal/events"
	"leadcrm_backend/internal/leads/repository"
	"leadcrm_backend/internal/refdata"
	"leadcrm_backend/platform/config"
	"leadcrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)

	return w, nil
}

// handleFollowUpReminder fires one call-in-future reminder. Reminders can
// be stale: the lead may have moved on or the follow-up may have been
// rescheduled since the task was enqueued. Stale reminders are dropped
// silently rather than retried.
func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}

	agentID, err := uuid.Parse(payload.AgentID)
	if err != nil {
		return err
	}

	snap, err := w.repo.GetSnapshot(ctx, payload.LeadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	if snap.Fields.SubStatus != refdata.SubStatusCIF || snap.Fields.FollowUpAt == nil {
		return nil
	}
	if !snap.Fields.FollowUpAt.Equal(payload.DueAt) {
		return nil // rescheduled after this task was enqueued
	}

	w.log.Info("follow-up due",
		"lead_id", payload.LeadID,
		"agent_id", payload.AgentID,
		"due_at", payload.DueAt,
	)

	if w.bus == nil {
		return nil
	}
	return w.bus.PublishSync(ctx, events.FollowUpDue{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    payload.LeadID,
		AgentID:   agentID,
	})
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
