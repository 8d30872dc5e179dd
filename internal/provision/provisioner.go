package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/teemow/meetlink/internal/calendar"
	"github.com/teemow/meetlink/internal/google"
	"github.com/teemow/meetlink/internal/instrumentation"
	"github.com/teemow/meetlink/internal/logging"
	"github.com/teemow/meetlink/internal/meet"
	"github.com/teemow/meetlink/internal/session"
)

// CalendarService is the part of the Calendar API the pipeline uses.
type CalendarService interface {
	ListCalendars(ctx context.Context) ([]calendar.CalendarInfo, error)
	CreateCalendar(ctx context.Context, summary string) (*calendar.CalendarInfo, error)
	CreateMeetingEvent(ctx context.Context, calendarID string, input calendar.MeetingInput) (*calendar.Event, error)
}

// CalendarFactory builds a CalendarService authorized by token.
type CalendarFactory func(ctx context.Context, token *oauth2.Token) (CalendarService, error)

// SettingsService reads and writes internal meeting settings.
type SettingsService interface {
	Get(ctx context.Context, conferenceID, calendarID string) (meet.Payload, error)
	Update(ctx context.Context, conferenceID, calendarID string, body meet.Payload) error
}

// Dependencies are the collaborators of a Provisioner. Settings may be nil,
// in which case the settings steps are skipped.
type Dependencies struct {
	Tokens    google.TokenProvider
	Calendars CalendarFactory
	Settings  SettingsService

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger
}

// Options hold meeting defaults.
type Options struct {
	Location        *time.Location
	CalendarPrefix  string
	RequestIDPrefix string

	// NewRequestID returns the unique part of conference request ids.
	// Defaults to a random UUID.
	NewRequestID func() string
}

// Provisioner creates Meet-enabled calendar events for authenticated callers.
// It is safe for concurrent use; all state is request scoped.
type Provisioner struct {
	deps Dependencies
	opts Options
}

// New creates a Provisioner.
func New(deps Dependencies, opts Options) (*Provisioner, error) {
	if deps.Tokens == nil {
		return nil, errors.New("token provider is required")
	}
	if deps.Calendars == nil {
		return nil, errors.New("calendar factory is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.NewRequestID == nil {
		opts.NewRequestID = uuid.NewString
	}

	return &Provisioner{deps: deps, opts: opts}, nil
}

// Provision runs the pipeline for one request: obtain a delegated access
// token, find or create the caller's calendar, create the event and, when
// configured, set up moderation and breakout rooms. Steps run strictly in
// order and the first failure aborts the run. Effects of completed steps
// are not rolled back.
func (p *Provisioner) Provision(ctx context.Context, sess *session.Session, req MeetingRequest) (result *MeetingEvent, err error) {
	source := req.Source
	if source == "" {
		source = instrumentation.SourceHTTP
	}
	var email string
	if sess != nil {
		email = sess.Email
	}

	ctx, span := instrumentation.StartSpan(ctx, "meet.provision")
	defer span.End()

	record := instrumentation.NewProvisionRecord(source, email).WithSpanContext(ctx)
	logger := logging.WithOperation(p.deps.Logger, "meet.provision").With(logging.UserHash(email))

	defer func() {
		p.finish(ctx, logger, record, result, err)
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
	}()

	if sess == nil {
		return nil, newError(KindUnauthenticated, StepValidate, session.ErrNoSession)
	}
	if !sess.Complete() {
		return nil, newError(KindForbidden, StepValidate, errors.New("session lacks name or email"))
	}
	plan, err := req.plan(p.opts.Location)
	if err != nil {
		return nil, newError(KindInvalidRequest, StepValidate, err)
	}

	token, err := p.token(ctx, logger)
	if err != nil {
		return nil, err
	}

	cal, err := p.deps.Calendars(ctx, token)
	if err != nil {
		return nil, newError(KindUnknown, StepListCalendars, err)
	}

	calendarID, err := p.selectCalendar(ctx, logger, cal, sess)
	if err != nil {
		return nil, err
	}
	logger = logger.With(logging.CalendarID(calendarID))

	var event *calendar.Event
	err = p.step(ctx, logger, StepCreateEvent, instrumentation.ServiceCalendar, instrumentation.OperationCreate, func(ctx context.Context) error {
		var err error
		event, err = cal.CreateMeetingEvent(ctx, calendarID, calendar.MeetingInput{
			Summary:    plan.title,
			Start:      plan.start,
			End:        plan.end,
			TimeZone:   p.opts.Location.String(),
			Attendee:   calendar.AttendeeInfo{Email: sess.Email, DisplayName: sess.Name},
			Recurrence: plan.recurrence,
			RequestID:  p.opts.RequestIDPrefix + p.opts.NewRequestID(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if event == nil || event.ConferenceID == "" {
		return nil, newError(KindUpstream, StepCreateEvent, errors.New("event has no conference id"))
	}
	logger = logger.With(logging.ConferenceID(event.ConferenceID))

	result = newMeetingEvent(event)

	spaceID, err := p.configureSettings(ctx, logger, event.ConferenceID, calendarID, sess)
	if err != nil {
		return nil, err
	}
	result.SpaceID = spaceID

	return result, nil
}

// token performs sign_assertion and token_exchange. Both happen inside the
// token provider; its sentinel errors tell them apart.
func (p *Provisioner) token(ctx context.Context, logger *slog.Logger) (*oauth2.Token, error) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceOAuth, instrumentation.OperationExchange)
	defer span.End()

	start := time.Now()
	token, err := p.deps.Tokens.Token(ctx)
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		p.deps.Metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceOAuth, instrumentation.OperationExchange, instrumentation.StatusError, duration)
		if errors.Is(err, google.ErrAssertion) {
			return nil, newError(KindUnknown, StepSignAssertion, err)
		}
		return nil, newError(KindUpstream, StepTokenExchange, err)
	}

	instrumentation.SetSpanSuccess(span)
	p.deps.Metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceOAuth, instrumentation.OperationExchange, instrumentation.StatusSuccess, duration)
	logger.Debug("access token obtained", logging.Step(string(StepTokenExchange)), slog.Duration(logging.KeyDuration, duration))
	return token, nil
}

func (p *Provisioner) selectCalendar(ctx context.Context, logger *slog.Logger, cal CalendarService, sess *session.Session) (string, error) {
	localPart := calendar.LocalPart(sess.Email)

	var calendars []calendar.CalendarInfo
	err := p.step(ctx, logger, StepListCalendars, instrumentation.ServiceCalendar, instrumentation.OperationList, func(ctx context.Context) error {
		var err error
		calendars, err = cal.ListCalendars(ctx)
		return err
	})
	if err != nil {
		return "", err
	}

	if found, ok := calendar.SelectCalendar(calendars, localPart); ok {
		logger.Debug("using existing calendar", logging.CalendarID(found.ID), slog.Int("calendars", len(calendars)))
		return found.ID, nil
	}

	summary := calendar.CalendarSummary(p.opts.CalendarPrefix, sess.Name, localPart)
	var created *calendar.CalendarInfo
	err = p.step(ctx, logger, StepCreateCalendar, instrumentation.ServiceCalendar, instrumentation.OperationCreate, func(ctx context.Context) error {
		var err error
		created, err = cal.CreateCalendar(ctx, summary)
		return err
	})
	if err != nil {
		return "", err
	}
	if created == nil || created.ID == "" {
		return "", newError(KindUpstream, StepCreateCalendar, errors.New("created calendar has no id"))
	}

	logger.Info("created calendar", logging.CalendarID(created.ID))
	return created.ID, nil
}

func (p *Provisioner) configureSettings(ctx context.Context, logger *slog.Logger, conferenceID, calendarID string, sess *session.Session) (string, error) {
	if p.deps.Settings == nil {
		logger.Warn("meeting settings API not configured, skipping moderation and breakout rooms",
			logging.Step(string(StepReadSettings)), logging.Status(logging.StatusSkipped))
		return "", nil
	}

	var spaceID string
	err := p.step(ctx, logger, StepReadSettings, instrumentation.ServiceSettings, instrumentation.OperationGet, func(ctx context.Context) error {
		current, err := p.deps.Settings.Get(ctx, conferenceID, calendarID)
		if err != nil {
			return err
		}
		spaceID, err = current.SpaceID()
		return err
	})
	if err != nil {
		return "", err
	}

	var targets []string
	if sess.LinkedID != "" {
		targets = []string{sess.LinkedID}
	}
	update := meet.BuildSettingsUpdate(conferenceID, calendarID, spaceID, targets)

	err = p.step(ctx, logger, StepWriteSettings, instrumentation.ServiceSettings, instrumentation.OperationUpdate, func(ctx context.Context) error {
		return p.deps.Settings.Update(ctx, conferenceID, calendarID, update)
	})
	if err != nil {
		return "", err
	}

	return spaceID, nil
}

// step runs one upstream call with a span, a metric and a debug log. Any
// failure becomes an upstream *Error for that step.
func (p *Provisioner) step(ctx context.Context, logger *slog.Logger, step Step, service, operation string, fn func(context.Context) error) error {
	attrs := instrumentation.NewSpanAttributeBuilder().WithStep(string(step)).Build()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, service, operation, attrs...)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		p.deps.Metrics.RecordGoogleAPIOperation(ctx, service, operation, instrumentation.StatusError, duration)
		return newError(KindUpstream, step, fmt.Errorf("%s %s: %w", service, operation, err))
	}

	instrumentation.SetSpanSuccess(span)
	p.deps.Metrics.RecordGoogleAPIOperation(ctx, service, operation, instrumentation.StatusSuccess, duration)
	logger.Debug("step completed", logging.Step(string(step)), slog.Duration(logging.KeyDuration, duration))
	return nil
}

func (p *Provisioner) finish(ctx context.Context, logger *slog.Logger, record *instrumentation.ProvisionRecord, result *MeetingEvent, err error) {
	if err == nil {
		record.CompleteSuccess(result.CalendarID, result.ConferenceData.ConferenceID, result.ID)
		p.deps.Metrics.RecordMeetingProvisioned(ctx, instrumentation.StatusSuccess, "", "", record.UserEmail, record.Duration)
		p.deps.Audit.LogProvision(record)
		logger.Info("meeting provisioned", slog.Duration(logging.KeyDuration, record.Duration))
		return
	}

	kind, step := KindUnknown, Step("")
	var pe *Error
	if errors.As(err, &pe) {
		kind, step = pe.Kind, pe.Step
	}

	record.CompleteWithError(string(kind), string(step), err)
	p.deps.Metrics.RecordMeetingProvisioned(ctx, instrumentation.StatusError, string(kind), string(step), record.UserEmail, record.Duration)
	p.deps.Audit.LogProvision(record)

	level := slog.LevelError
	if kind.HTTPStatus() < 500 {
		level = slog.LevelInfo
	}
	logger.Log(ctx, level, "meeting provisioning failed",
		logging.Step(string(step)),
		slog.String("kind", string(kind)),
		logging.Err(err))
}
