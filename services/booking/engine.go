package booking

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	bookingRepo "tourbot/database/repository/booking"
	"tourbot/metrics"
	"tourbot/models"
	"tourbot/services/notification"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ConversationEngine drives the per-user booking dialogue.
type ConversationEngine interface {
	// Handle applies one input from user and returns the reply to show. Mistakes in the
	// input are answered with a re-prompt; an error means the session table failed.
	Handle(ctx context.Context, user models.UserIdentity, in Input) (*Reply, error)
}

const maxPeople = 6

// userLockStripes bounds the number of mutexes used to serialise inputs per user.
const userLockStripes = 64

// DefaultConversationEngine implements ConversationEngine on top of a session table, the
// booking store and the operator notifier.
type DefaultConversationEngine struct {
	Schedule *models.Schedule
	Repo     bookingRepo.BookingRepository
	Notifier notification.Notifier
	Sessions SessionStore
	Clock    func() time.Time
	Logger   *zap.Logger

	locks [userLockStripes]sync.Mutex
}

// NewConversationEngine wires the engine. A nil notifier disables operator notifications.
func NewConversationEngine(
	schedule *models.Schedule,
	repo bookingRepo.BookingRepository,
	notifier notification.Notifier,
	sessions SessionStore,
	clock func() time.Time,
	logger *zap.Logger,
) *DefaultConversationEngine {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultConversationEngine{
		Schedule: schedule,
		Repo:     repo,
		Notifier: notifier,
		Sessions: sessions,
		Clock:    clock,
		Logger:   logger,
	}
}

func (e *DefaultConversationEngine) lockUser(userID int64) func() {
	idx := userID % userLockStripes
	if idx < 0 {
		idx = -idx
	}
	mu := &e.locks[idx]
	mu.Lock()
	return mu.Unlock
}

func (e *DefaultConversationEngine) Handle(ctx context.Context, user models.UserIdentity, in Input) (*Reply, error) {
	defer e.lockUser(user.UserID)()

	switch in.Kind {
	case InputStart:
		if err := e.Sessions.Delete(ctx, user.UserID); err != nil {
			return nil, err
		}
		text := greetingText
		if in.Value == ChannelDeepLink {
			text = channelGreetingText
		}
		return entryReply(text), nil
	case InputCancel:
		if err := e.Sessions.Delete(ctx, user.UserID); err != nil {
			return nil, err
		}
		return &Reply{Text: cancelledText, Keyboard: KeyboardRemove, State: StateTerminated}, nil
	case InputClear:
		if err := e.Sessions.Delete(ctx, user.UserID); err != nil {
			return nil, err
		}
		return &Reply{Text: clearedText, Keyboard: KeyboardRemove, State: StateTerminated}, nil
	case InputBegin:
		// The entry button always restarts with a fresh draft.
		s := newSession(user, e.Clock())
		if err := e.Sessions.Save(ctx, s); err != nil {
			return nil, err
		}
		e.Logger.Debug("booking session started", zap.Int64("user_id", user.UserID), zap.String("session_id", s.ID))
		return e.locationPrompt(""), nil
	}

	s, err := e.Sessions.Get(ctx, user.UserID)
	if errors.Is(err, ErrNoSession) {
		return entryReply(noSessionText), nil
	}
	if err != nil {
		return nil, err
	}
	// Identity fields may change between messages (e.g. a new username); keep the latest.
	s.Draft.User = user

	stateBefore := s.State
	reply, err := e.step(ctx, s, in)
	var verr *ValidationError
	if errors.As(err, &verr) {
		metrics.ConversationInputs.WithLabelValues(string(stateBefore), "rejected").Inc()
		e.Logger.Debug("input rejected",
			zap.Int64("user_id", user.UserID),
			zap.String("state", string(stateBefore)),
			zap.String("code", verr.Code),
			zap.String("detail", verr.Message))
		return reply, nil
	}
	var sferr *storeFailedError
	if errors.As(err, &sferr) {
		metrics.ConversationInputs.WithLabelValues(string(stateBefore), "failed").Inc()
		return reply, nil
	}
	if err != nil {
		return nil, err
	}
	metrics.ConversationInputs.WithLabelValues(string(stateBefore), "accepted").Inc()
	return reply, nil
}

// step dispatches on the session state. On a ValidationError or storeFailedError it returns the
// re-prompt to show alongside the error, and the stored session is left untouched.
func (e *DefaultConversationEngine) step(ctx context.Context, s *Session, in Input) (*Reply, error) {
	switch s.State {
	case StateAwaitingLocation:
		return e.onLocation(ctx, s, in)
	case StateAwaitingDate:
		return e.onDate(ctx, s, in)
	case StateAwaitingTime:
		return e.onTime(ctx, s, in)
	case StateAwaitingPeopleCount:
		return e.onPeople(ctx, s, in)
	case StateAwaitingConfirmation:
		return e.onConfirm(ctx, s, in)
	}
	// A terminated session should never be stored; drop it.
	if err := e.Sessions.Delete(ctx, s.UserID); err != nil {
		return nil, err
	}
	return entryReply(noSessionText), nil
}

func (e *DefaultConversationEngine) onLocation(ctx context.Context, s *Session, in Input) (*Reply, error) {
	if in.Kind != InputText && in.Kind != InputLocation {
		return e.locationPrompt(validationNotice(&ValidationError{Code: CodeUnexpectedInput})),
			newValidationError(CodeUnexpectedInput, "expected a location")
	}
	if !e.Schedule.Has(in.Value) {
		err := &ValidationError{Code: CodeUnknownLocation, Message: "unknown location " + strconv.Quote(in.Value)}
		return e.locationPrompt(validationNotice(err)), err
	}

	times, _ := e.Schedule.Times(in.Value)
	s.Draft.Location = in.Value
	s.DateOptions = DateOptions(times, e.Clock(), DateWindow)
	s.State = StateAwaitingDate
	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	return datePrompt(s, "📍 Выбрана локация: "+in.Value), nil
}

func (e *DefaultConversationEngine) onDate(ctx context.Context, s *Session, in Input) (*Reply, error) {
	if in.Kind != InputText && in.Kind != InputDate {
		return datePrompt(s, validationNotice(&ValidationError{Code: CodeUnexpectedInput})),
			newValidationError(CodeUnexpectedInput, "expected a date")
	}
	date, ok := matchDate(s.DateOptions, in.Value)
	if !ok {
		err := &ValidationError{Code: CodeUnknownDate, Message: "date not offered " + strconv.Quote(in.Value)}
		return datePrompt(s, validationNotice(err)), err
	}

	now := e.Clock()
	times, _ := e.Schedule.Times(s.Draft.Location)
	available, err := AvailableTimes(times, date, now)
	if err != nil {
		verr := &ValidationError{Code: CodeUnknownDate, Message: err.Error()}
		return datePrompt(s, validationNotice(verr)), verr
	}
	if len(available) == 0 {
		// The offered day ran out of slots while the keyboard was on screen. Refresh the
		// options; the draft keeps no date.
		s.DateOptions = DateOptions(times, now, DateWindow)
		if err := e.save(ctx, s); err != nil {
			return nil, err
		}
		verr := &ValidationError{Code: CodeDateUnavailable, Message: "no slots left on " + date}
		return datePrompt(s, validationNotice(verr)), verr
	}

	s.Draft.Date = date
	s.TimeOptions = available
	s.State = StateAwaitingTime
	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	return timePrompt(s, "📅 Выбрана дата: "+date), nil
}

func (e *DefaultConversationEngine) onTime(ctx context.Context, s *Session, in Input) (*Reply, error) {
	if in.Kind != InputText && in.Kind != InputTime {
		return timePrompt(s, validationNotice(&ValidationError{Code: CodeUnexpectedInput})),
			newValidationError(CodeUnexpectedInput, "expected a time")
	}
	if !lo.Contains(s.TimeOptions, in.Value) {
		err := &ValidationError{Code: CodeUnknownTime, Message: "time not offered " + strconv.Quote(in.Value)}
		return timePrompt(s, validationNotice(err)), err
	}

	s.Draft.Time = in.Value
	s.State = StateAwaitingPeopleCount
	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	return peoplePrompt("⏰ Выбрано время: " + in.Value), nil
}

func (e *DefaultConversationEngine) onPeople(ctx context.Context, s *Session, in Input) (*Reply, error) {
	if in.Kind != InputText && in.Kind != InputPeople {
		return peoplePrompt(validationNotice(&ValidationError{Code: CodeUnexpectedInput})),
			newValidationError(CodeUnexpectedInput, "expected a party size")
	}
	n, err := parsePeople(in.Value)
	if err != nil {
		var verr *ValidationError
		errors.As(err, &verr)
		return peoplePrompt(validationNotice(verr)), err
	}

	s.Draft.People = n
	s.State = StateAwaitingConfirmation
	if err := e.save(ctx, s); err != nil {
		return nil, err
	}
	return confirmPrompt(s, ""), nil
}

func (e *DefaultConversationEngine) onConfirm(ctx context.Context, s *Session, in Input) (*Reply, error) {
	confirmed := in.Kind == InputConfirm ||
		(in.Kind == InputText && (in.Value == ConfirmLabel || in.Value == strings.TrimSpace(strings.TrimPrefix(ConfirmLabel, "✅"))))
	if !confirmed {
		return confirmPrompt(s, validationNotice(&ValidationError{Code: CodeUnexpectedInput})),
			newValidationError(CodeUnexpectedInput, "expected confirm or cancel")
	}

	logger := e.Logger.With(
		zap.Int64("user_id", s.UserID),
		zap.String("session_id", s.ID),
		zap.String("location", s.Draft.Location),
		zap.String("date", s.Draft.Date),
		zap.String("time", s.Draft.Time))

	stored, err := e.Repo.AppendIfAbsent(ctx, s.Draft)
	switch {
	case errors.Is(err, bookingRepo.ErrDuplicateBooking):
		metrics.BookingsRejected.WithLabelValues("duplicate").Inc()
		logger.Info("duplicate booking rejected")
		if err := e.Sessions.Delete(ctx, s.UserID); err != nil {
			return nil, err
		}
		return &Reply{Text: duplicateText, State: StateTerminated}, nil
	case err != nil:
		// Nothing was stored. The session stays at confirmation so the user can retry.
		metrics.BookingsRejected.WithLabelValues("persistence").Inc()
		logger.Error("failed to store booking", zap.Error(err))
		return confirmPrompt(s, persistFailedText), &storeFailedError{err: err}
	}

	metrics.BookingsCreated.WithLabelValues(stored.Location).Inc()
	logger.Info("booking confirmed", zap.Int("booking_id", stored.ID))

	if err := e.Sessions.Delete(ctx, s.UserID); err != nil {
		// The booking is durable; a stale session only means the next input re-prompts.
		logger.Warn("failed to drop finished session", zap.Error(err))
	}
	if e.Notifier != nil {
		if err := e.Notifier.NotifyBookingCreated(ctx, *stored); err != nil {
			logger.Error("operator notification failed", zap.Int("booking_id", stored.ID), zap.Error(err))
		}
	}
	return &Reply{Text: confirmationText(*stored), State: StateTerminated, Booking: stored}, nil
}

func (e *DefaultConversationEngine) save(ctx context.Context, s *Session) error {
	s.UpdatedAt = e.Clock()
	return e.Sessions.Save(ctx, s)
}

func (e *DefaultConversationEngine) locationPrompt(notice string) *Reply {
	names := e.Schedule.Names()
	buttons := make([]Button, 0, len(names))
	for _, name := range names {
		buttons = append(buttons, Button{Label: name, Payload: Payload(InputLocation, name)})
	}
	return &Reply{
		Text:     withNotice(notice, chooseLocationText),
		Keyboard: KeyboardReply,
		Buttons:  buttons,
		State:    StateAwaitingLocation,
	}
}

func entryReply(text string) *Reply {
	return &Reply{
		Text:     text,
		Keyboard: KeyboardReply,
		Buttons:  []Button{{Label: BeginLabel}},
		State:    StateTerminated,
	}
}

func datePrompt(s *Session, notice string) *Reply {
	buttons := make([]Button, 0, len(s.DateOptions)+1)
	for _, opt := range s.DateOptions {
		buttons = append(buttons, Button{Label: opt.Label, Payload: Payload(InputDate, opt.Date)})
	}
	buttons = append(buttons, Button{Label: CancelLabel, Payload: Payload(InputCancel, "")})
	return &Reply{
		Text:     withNotice(notice, chooseDateText),
		Keyboard: KeyboardInline,
		Buttons:  buttons,
		State:    StateAwaitingDate,
	}
}

func timePrompt(s *Session, notice string) *Reply {
	buttons := make([]Button, 0, len(s.TimeOptions)+1)
	for _, t := range s.TimeOptions {
		buttons = append(buttons, Button{Label: t, Payload: Payload(InputTime, t)})
	}
	buttons = append(buttons, Button{Label: CancelLabel, Payload: Payload(InputCancel, "")})
	return &Reply{
		Text:     withNotice(notice, chooseTimeText),
		Keyboard: KeyboardInline,
		Buttons:  buttons,
		State:    StateAwaitingTime,
	}
}

func peoplePrompt(notice string) *Reply {
	buttons := make([]Button, 0, maxPeople+1)
	for i := 1; i <= maxPeople; i++ {
		buttons = append(buttons, Button{Label: PeopleLabel(i), Payload: Payload(InputPeople, strconv.Itoa(i))})
	}
	buttons = append(buttons, Button{Label: CancelLabel, Payload: Payload(InputCancel, "")})
	return &Reply{
		Text:     withNotice(notice, choosePeopleText),
		Keyboard: KeyboardInline,
		Buttons:  buttons,
		State:    StateAwaitingPeopleCount,
	}
}

func confirmPrompt(s *Session, notice string) *Reply {
	return &Reply{
		Text:     withNotice(notice, summaryText(s.Draft)),
		Keyboard: KeyboardInline,
		Buttons: []Button{
			{Label: ConfirmLabel, Payload: Payload(InputConfirm, "")},
			{Label: AbortLabel, Payload: Payload(InputCancel, "")},
		},
		State: StateAwaitingConfirmation,
	}
}

// matchDate accepts either the bare date or the label it was presented with.
func matchDate(options []DateOption, value string) (string, bool) {
	opt, ok := lo.Find(options, func(o DateOption) bool {
		return value == o.Date || value == o.Label
	})
	return opt.Date, ok
}

// parsePeople accepts "N" or the presented label "N человек(а)" for N in 1..6.
func parsePeople(value string) (int, error) {
	digits, _, _ := strings.Cut(value, " ")
	n, err := strconv.Atoi(digits)
	if err != nil || !models.IsDigits(digits) || n < 1 || n > maxPeople || (digits != value && value != PeopleLabel(n)) {
		return 0, newValidationError(CodeInvalidPeople, "party size must be 1-6, got "+strconv.Quote(value))
	}
	return n, nil
}
