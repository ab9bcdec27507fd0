// internal/notification/worker.go
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// TaskHandler turns queued notification tasks into deliveries.
type TaskHandler struct {
	sender Sender
}

func NewTaskHandler(sender Sender) *TaskHandler {
	return &TaskHandler{sender: sender}
}

// ProcessInvitationTask implements asynq.HandlerFunc for TypeInvitationEmail.
func (h *TaskHandler) ProcessInvitationTask(ctx context.Context, t *asynq.Task) error {
	var n InvitationNotice
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		taskLog(ctx, t).WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	return h.finish(ctx, t, n.To, h.sender.DeliverInvitation(ctx, n))
}

// ProcessCollaborationChangeTask implements asynq.HandlerFunc for TypeCollaborationChangeEmail.
func (h *TaskHandler) ProcessCollaborationChangeTask(ctx context.Context, t *asynq.Task) error {
	var n ChangeNotice
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		taskLog(ctx, t).WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	return h.finish(ctx, t, n.To, h.sender.DeliverCollaborationChange(ctx, n))
}

func (h *TaskHandler) finish(ctx context.Context, t *asynq.Task, to string, err error) error {
	log := taskLog(ctx, t).WithField("to", to)
	switch {
	case err == nil:
		log.Info("Notification task processed successfully")
		return nil
	case errors.Is(err, ErrCredentialsMissing):
		// retrying cannot help until the process is reconfigured
		log.Warn("SMTP credentials not configured; dropping notification task")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		log.WithError(err).Warn("Notification delivery failed")
		return fmt.Errorf("failed to deliver %s to %s: %w", t.Type(), to, err)
	}
}

func taskLog(ctx context.Context, t *asynq.Task) *logrus.Entry {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	retry, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return customLog.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
		"retry":     retry,
		"max_retry": maxRetry,
	})
}

// Worker runs the asynq server that consumes notification tasks.
type Worker struct {
	server  *asynq.Server
	handler *TaskHandler
	log     *logrus.Entry
}

func NewWorker(redisOpt asynq.RedisClientOpt, sender Sender) *Worker {
	logEntry := customLog.WithField("component", "notification_worker")

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 5,
		Queues:      map[string]int{taskQueue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retry, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			logEntry.WithFields(logrus.Fields{
				"task_type": task.Type(),
				"retries":   retry,
				"max_retry": maxRetry,
			}).Errorf("Task failed: %v", err)
		}),
	})

	return &Worker{
		server:  server,
		handler: NewTaskHandler(sender),
		log:     logEntry,
	}
}

// Mux routes task types to their handlers.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInvitationEmail, w.handler.ProcessInvitationTask)
	mux.HandleFunc(TypeCollaborationChangeEmail, w.handler.ProcessCollaborationChangeTask)
	return mux
}

// Start runs the server until Shutdown. Call it on its own goroutine.
func (w *Worker) Start() {
	w.log.Info("Worker server starting...")
	if err := w.server.Run(w.Mux()); err != nil {
		if errors.Is(err, asynq.ErrServerClosed) {
			w.log.Info("Worker server stopped.")
			return
		}
		w.log.Errorf("Could not run worker server: %v", err)
	}
}

func (w *Worker) Shutdown() {
	w.log.Info("Shutting down worker server...")
	w.server.Shutdown()
	w.log.Info("Worker server shut down complete.")
}
