// Package onboarding walks a new pharmacy through phone login, OTP
// verification, shop registration and pharmacist licence capture.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmadesk/m/domain"
)

type Step string

const (
	StepLogin          Step = "login"
	StepOTP            Step = "otp"
	StepRegistration   Step = "registration"
	StepPharmacistInfo Step = "pharmacist-info"
	StepAuthenticated  Step = "authenticated"
)

var (
	ErrSessionNotFound = errors.New("onboarding session not found")
	ErrInvalidOTP      = errors.New("invalid otp")
	ErrTooManyAttempts = errors.New("too many invalid otp attempts")
)

// StepError is returned when an action does not belong to the session's
// current step.
type StepError struct {
	Want Step
	Have Step
}

func (e *StepError) Error() string {
	return fmt.Sprintf("session is at step %q, expected %q", e.Have, e.Want)
}

// ResendError is returned when a new code is requested before the cooldown ends.
type ResendError struct {
	Wait time.Duration
}

func (e *ResendError) Error() string {
	return fmt.Sprintf("otp resend available in %s", e.Wait)
}

// Session is a snapshot of one onboarding attempt.
type Session struct {
	ID           string                 `json:"session_id"`
	Step         Step                   `json:"step"`
	Phone        string                 `json:"phone_number,omitempty"`
	Registration *domain.Registration   `json:"registration,omitempty"`
	Pharmacist   *domain.PharmacistInfo `json:"pharmacist,omitempty"`
	CodeSentAt   time.Time              `json:"-"`
	UpdatedAt    time.Time              `json:"-"`
}

type session struct {
	Session
	otpHash  []byte
	attempts int
}

func (s *session) snapshot() Session {
	out := s.Session
	if s.Registration != nil {
		reg := *s.Registration
		out.Registration = &reg
	}
	if s.Pharmacist != nil {
		info := *s.Pharmacist
		out.Pharmacist = &info
	}
	return out
}

type Options struct {
	Sender         Sender
	Codes          CodeSource
	ResendCooldown time.Duration
	MaxAttempts    int
	SessionTTL     time.Duration
	HashCost       int
	Now            func() time.Time
	Logger         *zap.Logger
}

const (
	DefaultResendCooldown = 30 * time.Second
	DefaultMaxAttempts    = 5
	DefaultSessionTTL     = 24 * time.Hour
)

type Flow struct {
	mu       sync.Mutex
	sessions map[string]*session
	opts     Options
}

func New(opts Options) *Flow {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sender == nil {
		opts.Sender = LogSender{Logger: opts.Logger}
	}
	if opts.Codes == nil {
		opts.Codes = RandomCode
	}
	if opts.ResendCooldown <= 0 {
		opts.ResendCooldown = DefaultResendCooldown
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Flow{sessions: make(map[string]*session), opts: opts}
}

// issue generates, hashes and delivers a code. It runs without the lock held.
func (f *Flow) issue(ctx context.Context, phone string) ([]byte, error) {
	code, err := f.opts.Codes()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), f.opts.HashCost)
	if err != nil {
		return nil, fmt.Errorf("hash otp: %w", err)
	}
	if err := f.opts.Sender.SendOTP(ctx, phone, code); err != nil {
		return nil, fmt.Errorf("send otp: %w", err)
	}
	return hash, nil
}

// Start begins a session for phone and sends the first code.
func (f *Flow) Start(ctx context.Context, rawPhone string) (Session, error) {
	phone := NormalizePhone(rawPhone)
	if err := ValidatePhone(phone); err != nil {
		return Session{}, err
	}
	hash, err := f.issue(ctx, phone)
	if err != nil {
		return Session{}, err
	}

	now := f.opts.Now()
	s := &session{
		Session: Session{
			ID:         uuid.NewString(),
			Step:       StepOTP,
			Phone:      phone,
			CodeSentAt: now,
			UpdatedAt:  now,
		},
		otpHash: hash,
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruneLocked(now)
	f.sessions[s.ID] = s
	f.opts.Logger.Info("onboarding started", zap.String("session", s.ID), zap.String("phone", FormatPhone(phone)))
	return s.snapshot(), nil
}

func (f *Flow) pruneLocked(now time.Time) {
	for id, s := range f.sessions {
		if now.Sub(s.UpdatedAt) > f.opts.SessionTTL {
			delete(f.sessions, id)
		}
	}
}

func (f *Flow) lookupLocked(id string, want Step) (*session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if want != "" && s.Step != want {
		return nil, &StepError{Want: want, Have: s.Step}
	}
	return s, nil
}

// Get returns the current state of a session.
func (f *Flow) Get(id string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.lookupLocked(id, "")
	if err != nil {
		return Session{}, err
	}
	return s.snapshot(), nil
}

// VerifyOTP checks code against the last one sent. A wrong code counts as a
// failed attempt; once the limit is reached the session returns to login.
func (f *Flow) VerifyOTP(ctx context.Context, id, code string) (Session, error) {
	if err := validateOTPFormat(code); err != nil {
		return Session{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.lookupLocked(id, StepOTP)
	if err != nil {
		return Session{}, err
	}
	s.UpdatedAt = f.opts.Now()

	if bcrypt.CompareHashAndPassword(s.otpHash, []byte(code)) != nil {
		s.attempts++
		if s.attempts >= f.opts.MaxAttempts {
			f.opts.Logger.Warn("otp attempts exhausted", zap.String("session", id))
			s.resetLocked()
			return s.snapshot(), ErrTooManyAttempts
		}
		return s.snapshot(), ErrInvalidOTP
	}

	s.otpHash = nil
	s.attempts = 0
	s.Step = StepRegistration
	f.opts.Logger.Info("otp verified", zap.String("session", id))
	return s.snapshot(), nil
}

// Resend issues a fresh code once the cooldown since the last one has passed.
func (f *Flow) Resend(ctx context.Context, id string) (Session, error) {
	f.mu.Lock()
	s, err := f.lookupLocked(id, StepOTP)
	if err != nil {
		f.mu.Unlock()
		return Session{}, err
	}
	if wait := s.CodeSentAt.Add(f.opts.ResendCooldown).Sub(f.opts.Now()); wait > 0 {
		f.mu.Unlock()
		return Session{}, &ResendError{Wait: wait.Round(time.Second)}
	}
	phone := s.Phone
	f.mu.Unlock()

	hash, err := f.issue(ctx, phone)
	if err != nil {
		return Session{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	s, err = f.lookupLocked(id, StepOTP)
	if err != nil {
		return Session{}, err
	}
	now := f.opts.Now()
	s.otpHash = hash
	s.attempts = 0
	s.CodeSentAt = now
	s.UpdatedAt = now
	return s.snapshot(), nil
}

// Back abandons the OTP step and forgets the phone number.
func (f *Flow) Back(id string) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.lookupLocked(id, StepOTP)
	if err != nil {
		return Session{}, err
	}
	s.resetLocked()
	s.UpdatedAt = f.opts.Now()
	return s.snapshot(), nil
}

func (s *session) resetLocked() {
	s.Step = StepLogin
	s.Phone = ""
	s.otpHash = nil
	s.attempts = 0
	s.CodeSentAt = time.Time{}
}

// CheckRegistrationStep validates a single form group without advancing.
func (f *Flow) CheckRegistrationStep(id string, step int, reg domain.Registration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lookupLocked(id, StepRegistration); err != nil {
		return err
	}
	return ValidateRegistrationStep(reg, step)
}

// SubmitRegistration stores the shop profile. The phone number always comes
// from the verified session.
func (f *Flow) SubmitRegistration(id string, reg domain.Registration) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.lookupLocked(id, StepRegistration)
	if err != nil {
		return Session{}, err
	}
	reg.PhoneNumber = s.Phone
	if err := ValidateRegistration(reg); err != nil {
		return Session{}, err
	}
	s.Registration = &reg
	s.Step = StepPharmacistInfo
	s.UpdatedAt = f.opts.Now()
	return s.snapshot(), nil
}

// SubmitPharmacistInfo records the licence and completes onboarding.
func (f *Flow) SubmitPharmacistInfo(id string, info domain.PharmacistInfo) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, err := f.lookupLocked(id, StepPharmacistInfo)
	if err != nil {
		return Session{}, err
	}
	now := f.opts.Now()
	if err := ValidatePharmacist(info, now); err != nil {
		return Session{}, err
	}
	s.Pharmacist = &info
	s.Step = StepAuthenticated
	s.UpdatedAt = now
	f.opts.Logger.Info("onboarding complete", zap.String("session", id), zap.String("shop", s.Registration.ShopName))
	return s.snapshot(), nil
}

// ResendIn reports how long until s may request another code.
func (f *Flow) ResendIn(s Session) time.Duration {
	if s.Step != StepOTP {
		return 0
	}
	wait := s.CodeSentAt.Add(f.opts.ResendCooldown).Sub(f.opts.Now())
	if wait < 0 {
		return 0
	}
	return wait.Round(time.Second)
}
