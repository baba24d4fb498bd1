// Package testutil wires an in-memory database, recording integrations and
// authenticated requests for handler tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"lms/config"
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/routers"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const DefaultPassword = "password123"

// Env is a fully wired app backed by a fresh in-memory database.
type Env struct {
	T      *testing.T
	App    *fiber.App
	DB     *gorm.DB
	Mail   *RecordingMailer
	Events *RecordingPublisher
}

// Setup configures globals for a test and returns the app. Globals are
// restored when the test finishes, so tests using Setup must not run in
// parallel.
func Setup(t *testing.T) *Env {
	t.Helper()

	logger.Silence()
	cfg := config.Test()
	config.AppConfig = cfg

	db, err := database.Open(cfg, gormlogger.Default.LogMode(gormlogger.Silent))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	require.NoError(t, database.RunMigrations(db))
	database.Database = database.DbInstance{Db: db}

	mail := &RecordingMailer{}
	events := &RecordingPublisher{}

	prevMail, prevEvents, prevPayments, prevCache, prevAsync := utils.Mail, utils.Events, utils.Payments, utils.Catalog, utils.RunAsync
	utils.Mail = mail
	utils.Events = events
	utils.Payments = nil
	utils.Catalog = nil
	utils.RunAsync = func(fn func()) { fn() }

	t.Cleanup(func() {
		utils.Mail, utils.Events, utils.Payments, utils.Catalog, utils.RunAsync = prevMail, prevEvents, prevPayments, prevCache, prevAsync
		_ = sqlDB.Close()
	})

	return &Env{T: t, App: routers.NewApp(), DB: db, Mail: mail, Events: events}
}

// RecordingMailer keeps every message instead of sending it.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []utils.EmailMessage
}

func (m *RecordingMailer) Send(_ context.Context, msg utils.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *RecordingMailer) Sent() []utils.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]utils.EmailMessage(nil), m.sent...)
}

// Last returns the most recent message sent to addr.
func (m *RecordingMailer) Last(addr string) (utils.EmailMessage, bool) {
	sent := m.Sent()
	for i := len(sent) - 1; i >= 0; i-- {
		for _, to := range sent[i].To {
			if to == addr {
				return sent[i], true
			}
		}
	}
	return utils.EmailMessage{}, false
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []utils.Event
}

func (p *RecordingPublisher) Publish(_ context.Context, _ string, ev utils.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Types lists the event types in publish order.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// CreateUser inserts a user with DefaultPassword.
func (e *Env) CreateUser(name, email, role string) models.User {
	e.T.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), config.AppConfig.SaltRound)
	require.NoError(e.T, err)

	user := models.User{Name: name, Email: email, Password: string(hash), Role: role}
	require.NoError(e.T, e.DB.Create(&user).Error)
	return user
}

// Token opens a session for user and returns a signed access token.
func (e *Env) Token(user models.User) string {
	e.T.Helper()
	expiresAt := time.Now().Add(time.Hour)
	session := models.Session{SessionID: uuid.NewString(), UserID: user.ID, ExpiresAt: expiresAt}
	require.NoError(e.T, e.DB.Create(&session).Error)

	token, err := middleware.GenerateJWT(user, session.SessionID, expiresAt)
	require.NoError(e.T, err)
	return token
}

// Response is a decoded JSON envelope.
type Response struct {
	Code    int
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Decode unmarshals the data field into dst.
func (r Response) Decode(t *testing.T, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Data, dst), string(r.Data))
}

// Map returns the data field as a generic object.
func (r Response) Map(t *testing.T) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	r.Decode(t, &m)
	return m
}

// Do sends a request through the app. body may be nil, a string or any
// value marshalled as JSON; token may be empty.
func (e *Env) Do(method, path string, body interface{}, token string) Response {
	e.T.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(e.T, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.App.Test(req, -1)
	require.NoError(e.T, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.T, err)

	out := Response{Code: resp.StatusCode}
	if len(raw) > 0 {
		require.NoError(e.T, json.Unmarshal(raw, &out), string(raw))
	}
	return out
}

// CourseOptions tweak SeedCourse.
type CourseOptions struct {
	Title       string
	PriceCents  int64
	Unpublished bool
	Lectures    int
}

// SeedCourse creates a course with one chapter and opts.Lectures published
// text lectures (at least one).
func (e *Env) SeedCourse(opts CourseOptions) (courseModels.Course, []courseModels.Lecture) {
	e.T.Helper()
	if opts.Title == "" {
		opts.Title = "Go Fundamentals"
	}
	if opts.Lectures == 0 {
		opts.Lectures = 1
	}

	course := courseModels.Course{
		Title:       opts.Title,
		Slug:        utils.Slugify(opts.Title) + "-" + uuid.NewString()[:8],
		Description: "A practical course",
		Author:      "Jane Doe",
		Category:    "programming",
		Level:       "BEGINNER",
		PriceCents:  opts.PriceCents,
		Currency:    "USD",
		Status:      courseModels.StatusActive,
		IsPublished: !opts.Unpublished,
	}
	require.NoError(e.T, e.DB.Create(&course).Error)

	chapter := courseModels.Chapter{CourseID: course.ID, Title: "Getting started", OrderIndex: 1}
	require.NoError(e.T, e.DB.Create(&chapter).Error)

	lectures := make([]courseModels.Lecture, 0, opts.Lectures)
	for i := 0; i < opts.Lectures; i++ {
		lecture := courseModels.Lecture{
			CourseID:    course.ID,
			ChapterID:   chapter.ID,
			Title:       fmt.Sprintf("Lecture %d", i+1),
			ContentType: courseModels.ContentText,
			TextContent: "Some reading",
			OrderIndex:  i + 1,
			IsPublished: true,
		}
		require.NoError(e.T, e.DB.Create(&lecture).Error)
		lectures = append(lectures, lecture)
	}
	return course, lectures
}

// Enroll inserts an enrollment directly.
func (e *Env) Enroll(user models.User, course courseModels.Course, status string) courseModels.Enrollment {
	e.T.Helper()
	enrollment := courseModels.Enrollment{UserID: user.ID, CourseID: course.ID, Status: status}
	if status == courseModels.EnrollmentCompleted {
		now := time.Now()
		enrollment.Progress = 100
		enrollment.CompletedAt = &now
	}
	require.NoError(e.T, e.DB.Create(&enrollment).Error)
	return enrollment
}

// FakeGateway serves the payment provider API from memory.
type FakeGateway struct {
	Server *httptest.Server

	mu       sync.Mutex
	payments map[string]*utils.Payment
}

// NewFakeGateway starts the fake provider and points utils.Payments at it.
func (e *Env) NewFakeGateway() *FakeGateway {
	e.T.Helper()
	g := &FakeGateway{payments: map[string]*utils.Payment{}}
	g.Server = httptest.NewServer(http.HandlerFunc(g.serve))
	e.T.Cleanup(g.Server.Close)
	utils.Payments = utils.NewHTTPPaymentGateway(g.Server.URL, "test-key")
	return g
}

// SetStatus changes a payment's status and optionally its amount.
func (g *FakeGateway) SetStatus(id, status string, amountCents int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.payments[id]; ok {
		p.Status = status
		if amountCents >= 0 {
			p.AmountCents = amountCents
		}
	}
}

func (g *FakeGateway) serve(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer test-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/payments":
		var req utils.PaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		id := "pay_" + req.Reference
		p := &utils.Payment{
			ID:          id,
			Status:      utils.PaymentPending,
			AmountCents: req.AmountCents,
			Currency:    req.Currency,
			CheckoutURL: "https://pay.example.com/checkout/" + id,
		}
		g.payments[id] = p
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(p)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/payments/"):
		p, ok := g.payments[strings.TrimPrefix(r.URL.Path, "/payments/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(p)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}
