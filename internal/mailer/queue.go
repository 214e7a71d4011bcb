package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"lexiq-backend/internal/metrics"
	"lexiq-backend/pkg/logging"
)

const TypeSendEmail = "email:send"

type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Type    string `json:"type"`
}

// JobManager queues verification mails and runs the worker that sends them.
type JobManager struct {
	client     *asynq.Client
	server     *asynq.Server
	mux        *asynq.ServeMux
	ttlMinutes int
}

func NewJobManager(redisURL string, concurrency, ttlMinutes int) (*JobManager, error) {
	redisOpt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 5
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"critical": 6,
			"default":  3,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			metrics.MailJobs.WithLabelValues("failure").Inc()
			logger.Error("job failed: type=%s error=%v", task.Type(), err)
		}),
		Logger: asynqLogger{},
	})

	return &JobManager{
		client:     asynq.NewClient(redisOpt),
		server:     server,
		mux:        asynq.NewServeMux(),
		ttlMinutes: ttlMinutes,
	}, nil
}

func (jm *JobManager) RegisterHandlers(sender Sender) {
	jm.mux.HandleFunc(TypeSendEmail, HandleSendEmail(sender))
}

// Start runs the worker in the background.
func (jm *JobManager) Start() error {
	logger.Info("starting mail queue worker")
	return jm.server.Start(jm.mux)
}

func (jm *JobManager) Stop() {
	logger.Info("stopping mail queue")
	jm.server.Shutdown()
	_ = jm.client.Close()
}

// SendVerificationCode enqueues the mail on the critical queue.
func (jm *JobManager) SendVerificationCode(ctx context.Context, to, code string) error {
	subject, body := verificationMessage(code, jm.ttlMinutes)
	task, err := NewEmailTask(EmailPayload{To: to, Subject: subject, Body: body, Type: "verification"})
	if err != nil {
		return err
	}
	info, err := jm.client.EnqueueContext(ctx, task,
		asynq.Queue("critical"),
		asynq.MaxRetry(5),
		asynq.Timeout(2*time.Minute),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}
	logger.Info("queued email job: id=%s type=verification to=%s", info.ID, to)
	return nil
}

func NewEmailTask(payload EmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeSendEmail, data), nil
}

// HandleSendEmail decodes an email task and hands it to sender.
func HandleSendEmail(sender Sender) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload EmailPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal email payload: %w: %w", err, asynq.SkipRetry)
		}
		if err := sender.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
			return fmt.Errorf("failed to send %s email to %s: %w", payload.Type, payload.To, err)
		}
		metrics.MailJobs.WithLabelValues("success").Inc()
		return nil
	}
}

type asynqLogger struct{}

func (asynqLogger) Debug(args ...interface{}) { logger.Debug("%s", fmt.Sprint(args...)) }
func (asynqLogger) Info(args ...interface{})  { logger.Info("%s", fmt.Sprint(args...)) }
func (asynqLogger) Warn(args ...interface{})  { logger.Warn("%s", fmt.Sprint(args...)) }
func (asynqLogger) Error(args ...interface{}) { logger.Error("%s", fmt.Sprint(args...)) }
func (asynqLogger) Fatal(args ...interface{}) { logger.Error("%s", fmt.Sprint(args...)) }
