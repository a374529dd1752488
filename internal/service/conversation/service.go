package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kickfinder/backend/internal/model/questionnaire"
	"github.com/kickfinder/backend/internal/service/criteria"
)

var (
	ErrUserRequired = errors.New("user id is required")
	ErrNoSession    = errors.New("no active session")
)

// Recommender produces the final user-facing result for completed answers.
type Recommender interface {
	Recommend(ctx context.Context, answers questionnaire.Answers) (string, error)
}

// Options tunes session eviction.
type Options struct {
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Now           func() time.Time
}

func (o Options) withDefaults() Options {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 30 * time.Minute
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// entry serializes all events of one user.
type entry struct {
	mu      sync.Mutex
	session *questionnaire.Session
}

// Service owns every active questionnaire session, keyed by user id.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	engine   Recommender
	opts     Options
}

// NewService builds a controller that hands completed answers to engine.
func NewService(engine Recommender, opts Options) *Service {
	return &Service{
		sessions: make(map[string]*entry),
		engine:   engine,
		opts:     opts.withDefaults(),
	}
}

// Handle processes one inbound event and writes the replies to out.
// Returned errors are informational; the session is never left mid-transition.
func (s *Service) Handle(ctx context.Context, ev questionnaire.Event, out questionnaire.Responder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[conversation] recovered panic user=%s: %v", ev.UserID, r)
			err = fmt.Errorf("conversation panic: %v", r)
		}
	}()

	if ev.UserID == "" {
		return ErrUserRequired
	}

	if ev.Kind == questionnaire.EventCommand {
		switch ev.Command() {
		case questionnaire.CommandStart:
			return s.handleStart(ctx, ev, out)
		case questionnaire.CommandHelp:
			_, err := out.Send(ctx, questionnaire.Reply{Text: questionnaire.TextHelp})
			return err
		case questionnaire.CommandStop, questionnaire.CommandCancel:
			return s.handleCancel(ctx, ev, out)
		default:
			if _, err := out.Send(ctx, questionnaire.Reply{Text: questionnaire.TextHelp}); err != nil {
				return err
			}
			return fmt.Errorf("%w: unknown command %q", questionnaire.ErrMalformedInput, ev.Value)
		}
	}

	var e *entry
	if ev.Kind == questionnaire.EventChoice && ev.Value == questionnaire.ChoiceStartSelection {
		e = s.getOrCreate(ev.UserID)
	} else {
		e = s.lookup(ev.UserID)
	}
	if e == nil {
		return ErrNoSession
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Terminal() {
		return ErrNoSession
	}
	e.session.UpdatedAt = s.opts.Now()

	return s.advance(ctx, e, ev, out)
}

func (s *Service) handleStart(ctx context.Context, ev questionnaire.Event, out questionnaire.Responder) error {
	e := &entry{session: questionnaire.NewSession(ev.UserID, s.opts.Now())}
	e.mu.Lock()
	defer e.mu.Unlock()

	s.mu.Lock()
	s.sessions[ev.UserID] = e
	s.mu.Unlock()

	log.Printf("[conversation] session started user=%s", ev.UserID)
	return s.prompt(ctx, e.session.State, out)
}

func (s *Service) handleCancel(ctx context.Context, ev questionnaire.Event, out questionnaire.Responder) error {
	e := s.lookup(ev.UserID)
	if e == nil {
		_, err := out.Send(ctx, questionnaire.Reply{Text: questionnaire.TextNoSession})
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Terminal() {
		_, err := out.Send(ctx, questionnaire.Reply{Text: questionnaire.TextNoSession})
		return err
	}

	log.Printf("[conversation] session cancelled user=%s state=%s", ev.UserID, e.session.State)
	e.session.State = questionnaire.Terminated
	s.evict(ev.UserID, e)

	_, err := out.Send(ctx, questionnaire.Reply{Text: questionnaire.TextCancelled})
	return err
}

// advance runs one transition. Caller holds e.mu.
func (s *Service) advance(ctx context.Context, e *entry, ev questionnaire.Event, out questionnaire.Responder) error {
	sess := e.session

	switch sess.State {
	case questionnaire.AwaitStart:
		if ev.Kind != questionnaire.EventChoice || ev.Value != questionnaire.ChoiceStartSelection {
			return s.reject(ctx, sess.State, out, ev)
		}
		sess.State = questionnaire.AwaitMetrics
		return s.prompt(ctx, sess.State, out)

	case questionnaire.AwaitMetrics:
		if ev.Kind != questionnaire.EventText {
			return s.reject(ctx, sess.State, out, ev)
		}
		height, weight, err := questionnaire.ParseMetrics(ev.Value)
		if err != nil {
			if _, sendErr := out.Send(ctx, questionnaire.Reply{Text: questionnaire.TextMetricsInvalid}); sendErr != nil {
				return errors.Join(err, sendErr)
			}
			return err
		}
		if err := sess.Answers.SetMetrics(height, weight); err != nil {
			return err
		}
		sess.State = questionnaire.AwaitEnvironment
		return s.prompt(ctx, sess.State, out)

	case questionnaire.AwaitEnvironment:
		env, err := questionnaire.ParseEnvironment(ev.Value)
		if ev.Kind != questionnaire.EventChoice || err != nil {
			return s.reject(ctx, sess.State, out, ev)
		}
		if err := sess.Answers.SetEnvironment(env); err != nil {
			return err
		}
		sess.State = questionnaire.AwaitPosition
		return s.prompt(ctx, sess.State, out)

	case questionnaire.AwaitPosition:
		pos, err := questionnaire.ParsePosition(ev.Value)
		if ev.Kind != questionnaire.EventChoice || err != nil {
			return s.reject(ctx, sess.State, out, ev)
		}
		if err := sess.Answers.SetPosition(pos); err != nil {
			return err
		}
		sess.State = questionnaire.AwaitBudget
		return s.prompt(ctx, sess.State, out)

	case questionnaire.AwaitBudget:
		budget, err := questionnaire.ParseBudget(ev.Value)
		if ev.Kind != questionnaire.EventChoice || err != nil {
			return s.reject(ctx, sess.State, out, ev)
		}
		if err := sess.Answers.SetBudget(budget); err != nil {
			return err
		}
		sess.State = questionnaire.AwaitResult

		placeholderID, err := out.Send(ctx, questionnaire.Reply{Text: questionnaire.TextSearching})
		if err != nil {
			log.Printf("[conversation] searching placeholder failed user=%s: %v", sess.UserID, err)
			placeholderID = ""
		}
		// The budget choice doubles as the confirmation for AwaitResult.
		return s.finish(ctx, e, placeholderID, out)

	case questionnaire.AwaitResult:
		return s.finish(ctx, e, "", out)
	}

	return ErrNoSession
}

// finish runs the engine and always leaves the session terminated.
func (s *Service) finish(ctx context.Context, e *entry, placeholderID string, out questionnaire.Responder) error {
	sess := e.session
	text, recErr := s.recommend(ctx, sess.Answers)

	sess.State = questionnaire.Terminated
	s.evict(sess.UserID, e)
	log.Printf("[conversation] session finished user=%s ok=%t", sess.UserID, recErr == nil)

	if placeholderID != "" {
		editErr := out.Edit(ctx, placeholderID, text)
		if editErr == nil {
			return recErr
		}
		log.Printf("[conversation] edit placeholder failed user=%s: %v", sess.UserID, editErr)
	}

	if _, err := out.Send(ctx, questionnaire.Reply{Text: text}); err != nil {
		return errors.Join(recErr, err)
	}
	return recErr
}

func (s *Service) recommend(ctx context.Context, answers questionnaire.Answers) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[conversation] recommender panic: %v", r)
			text, err = criteria.TextFailure, fmt.Errorf("recommender panic: %v", r)
		}
	}()

	if s.engine == nil {
		return criteria.TextFailure, errors.New("recommender not configured")
	}
	return s.engine.Recommend(ctx, answers)
}

func (s *Service) prompt(ctx context.Context, state questionnaire.State, out questionnaire.Responder) error {
	reply, ok := questionnaire.PromptFor(state)
	if !ok {
		return nil
	}
	_, err := out.Send(ctx, reply)
	return err
}

// reject re-prompts the current state after input of the wrong kind or value.
func (s *Service) reject(ctx context.Context, state questionnaire.State, out questionnaire.Responder, ev questionnaire.Event) error {
	err := fmt.Errorf("%w: %s %q in %s", questionnaire.ErrMalformedInput, ev.Kind, ev.Value, state)

	reply, ok := questionnaire.PromptFor(state)
	if !ok {
		return err
	}
	if len(reply.Choices) > 0 {
		reply.Text = questionnaire.TextInvalidChoice + "\n" + reply.Text
	}
	if _, sendErr := out.Send(ctx, reply); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

func (s *Service) lookup(userID string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

func (s *Service) getOrCreate(userID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[userID]; ok {
		return e
	}
	e := &entry{session: questionnaire.NewSession(userID, s.opts.Now())}
	s.sessions[userID] = e
	log.Printf("[conversation] session started user=%s", userID)
	return e
}

// evict removes e unless a newer session already replaced it.
func (s *Service) evict(userID string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[userID] == e {
		delete(s.sessions, userID)
	}
}

// Snapshot returns a copy of the user's active session.
func (s *Service) Snapshot(userID string) (questionnaire.Session, bool) {
	e := s.lookup(userID)
	if e == nil {
		return questionnaire.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.session, true
}

// ActiveSessions reports how many sessions are currently tracked.
func (s *Service) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts sessions idle since before now-IdleTimeout. Sessions busy
// processing an event are skipped.
func (s *Service) Sweep(now time.Time) int {
	cutoff := now.Add(-s.opts.IdleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for userID, e := range s.sessions {
		if !e.mu.TryLock() {
			continue
		}
		if e.session.UpdatedAt.Before(cutoff) {
			e.session.State = questionnaire.Terminated
			delete(s.sessions, userID)
			evicted++
		}
		e.mu.Unlock()
	}
	return evicted
}

// Run sweeps idle sessions until ctx is done.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(s.opts.Now()); n > 0 {
				log.Printf("[conversation] evicted %d idle sessions", n)
			}
		}
	}
}
