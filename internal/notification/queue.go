// internal/notification/queue.go
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/Annany2002/schema-designer-backend/config"
)

// Task types handled by the notification worker
const (
	TypeInvitationEmail          = "email:invitation"
	TypeCollaborationChangeEmail = "email:collaboration_change"
)

const (
	taskQueue    = "default"
	taskMaxRetry = 3
)

// RedisClientOpt maps the Redis settings in cfg onto asynq's options.
func RedisClientOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// NewInvitationTask wraps n in an asynq task.
func NewInvitationTask(n InvitationNotice) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode invitation notice: %w", err)
	}
	return asynq.NewTask(TypeInvitationEmail, payload, asynq.MaxRetry(taskMaxRetry), asynq.Queue(taskQueue)), nil
}

// NewCollaborationChangeTask wraps n in an asynq task.
func NewCollaborationChangeTask(n ChangeNotice) (*asynq.Task, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change notice: %w", err)
	}
	return asynq.NewTask(TypeCollaborationChangeEmail, payload, asynq.MaxRetry(taskMaxRetry), asynq.Queue(taskQueue)), nil
}

// TaskEnqueuer is the part of *asynq.Client the dispatcher uses.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueDispatcher hands notices to the Redis-backed task queue. Enqueue
// failures are logged and the notice is dropped.
type QueueDispatcher struct {
	client TaskEnqueuer
	log    *logrus.Entry
}

func NewQueueDispatcher(client TaskEnqueuer) *QueueDispatcher {
	return &QueueDispatcher{
		client: client,
		log:    customLog.WithField("component", "notification_queue"),
	}
}

func (q *QueueDispatcher) Invitation(ctx context.Context, n InvitationNotice) {
	task, err := NewInvitationTask(n)
	q.enqueue(ctx, task, err, n.To)
}

func (q *QueueDispatcher) CollaborationChange(ctx context.Context, n ChangeNotice) {
	task, err := NewCollaborationChangeTask(n)
	q.enqueue(ctx, task, err, n.To)
}

func (q *QueueDispatcher) enqueue(ctx context.Context, task *asynq.Task, buildErr error, to string) {
	if buildErr != nil {
		q.log.WithError(buildErr).Warn("Could not build notification task")
		return
	}
	info, err := q.client.EnqueueContext(context.WithoutCancel(ctx), task)
	if err != nil {
		q.log.WithFields(logrus.Fields{"task_type": task.Type(), "to": to}).WithError(err).Warn("Failed to enqueue notification")
		return
	}
	fields := logrus.Fields{"task_type": task.Type(), "to": to}
	if info != nil {
		fields["task_id"] = info.ID
		fields["queue"] = info.Queue
	}
	q.log.WithFields(fields).Debug("Notification enqueued")
}
