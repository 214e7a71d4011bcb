// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP traffic, labelled by route template
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// status: success/failure
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registration_attempts_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status"},
	)

	Logouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_logout_total",
			Help: "Total number of revoked access tokens",
		},
	)

	SessionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "english_test_sessions_generated_total",
			Help: "Test sessions generated, by mode",
		},
		[]string{"mode"},
	)

	// correct: true/false
	AnswersRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "english_test_answers_recorded_total",
			Help: "Answers persisted, by question type and correctness",
		},
		[]string{"type", "correct"},
	)

	Diagnoses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "english_test_diagnoses_total",
			Help: "Completed evaluations, by mode and resulting level",
		},
		[]string{"mode", "level"},
	)

	MailJobs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mail_jobs_total",
			Help: "Verification mails, by outcome",
		},
		[]string{"status"},
	)
)
