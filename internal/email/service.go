package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey  = "emails"
	failedKey = "emails:failed"
	maxTries  = 3
)

// Email types, used as the metrics label.
const (
	TypeWelcome        = "welcome"
	TypeNotification   = "notification"
	TypeExpiryReminder = "expiry_reminder"
)

type Job struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Settings struct {
	From     string
	FromName string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
}

// Service queues outgoing mail in redis and delivers it over SMTP from a
// single worker loop.
type Service struct {
	redis      *redis.Client
	settings   Settings
	retryDelay time.Duration
	deliver    func(Job) error
}

func New(rdb *redis.Client, settings Settings) *Service {
	s := &Service{
		redis:      rdb,
		settings:   settings,
		retryDelay: 5 * time.Second,
	}
	s.deliver = s.sendSMTP
	return s
}

func (s *Service) enqueue(ctx context.Context, job Job) error {
	job.Tries = 0
	job.Created = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", job.To, err)
		metrics.RecordEmail(job.Type, "queue_failed")
		return err
	}

	metrics.RecordEmail(job.Type, "queued")
	logger.Infof("Email queued: %s to %s", job.Subject, job.To)
	return nil
}

// Start runs the delivery loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Debugf("Sending email to %s (attempt %d)", job.To, job.Tries)
	if err := s.deliver(job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)

		if job.Tries < maxTries {
			select {
			case <-ctx.Done():
			case <-time.After(s.retryDelay):
			}
			data, _ := json.Marshal(job)
			s.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data))
			metrics.RecordEmail(job.Type, "retry")
			logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			metrics.RecordEmail(job.Type, "failed")
			s.saveFailed(ctx, job, err)
		}
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Infof("Email sent successfully to %s", job.To)
}

func (s *Service) sendSMTP(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.settings.FromName, s.settings.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.settings.SMTPUser != "" && s.settings.SMTPPass != "" {
		auth = smtp.PlainAuth("", s.settings.SMTPUser, s.settings.SMTPPass, s.settings.SMTPHost)
	}

	addr := s.settings.SMTPHost + ":" + s.settings.SMTPPort
	return smtp.SendMail(addr, auth, s.settings.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(ctx context.Context, job Job, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.WithoutCancel(ctx), failedKey, string(data))
	logger.Errorf("Email to %s failed after %d attempts, moved to failed queue", job.To, job.Tries)
}

// QueueLength reports pending jobs and mirrors the value into the queue gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) SendWelcome(ctx context.Context, to, gymName string, subscriptionEnd time.Time) error {
	subject := "Welcome to GymDesk"
	body := fmt.Sprintf(`Hi %s,

Your GymDesk account is ready.

Your subscription is active until %s.

- GymDesk Team`, displayName(gymName, to), subscriptionEnd.Format("Jan 2, 2006"))

	return s.enqueue(ctx, Job{Type: TypeWelcome, To: to, Name: gymName, Subject: subject, Body: body})
}

func (s *Service) SendNotification(ctx context.Context, to, gymName, message string) error {
	subject := "New message from GymDesk"
	body := fmt.Sprintf(`Hi %s,

%s

You can also read this message in your GymDesk inbox.

- GymDesk Team`, displayName(gymName, to), message)

	return s.enqueue(ctx, Job{Type: TypeNotification, To: to, Name: gymName, Subject: subject, Body: body})
}

func (s *Service) SendExpiryReminder(ctx context.Context, to, gymName string, subscriptionEnd time.Time) error {
	subject := "Your GymDesk subscription ends soon"
	body := fmt.Sprintf(`Hi %s,

Your GymDesk subscription ends on %s.

Renew before then to keep access to your members and dashboard.

- GymDesk Team`, displayName(gymName, to), subscriptionEnd.Format("Jan 2, 2006 at 3:04 PM"))

	return s.enqueue(ctx, Job{Type: TypeExpiryReminder, To: to, Name: gymName, Subject: subject, Body: body})
}

func displayName(gymName, email string) string {
	if gymName != "" {
		return gymName
	}
	return email
}
