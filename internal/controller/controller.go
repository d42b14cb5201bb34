// Package controller implements the view-state controller of the Nia client:
// session, navigation, chat and dashboard flows over an immutable state
// snapshot.
//
// Every action validates its preconditions against the current snapshot,
// issues its requests without holding the state lock, and commits the result
// as a new snapshot. Responses are committed only if the view they were
// issued for is still current.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashureev/nia-console/internal/domain"
	"github.com/ashureev/nia-console/internal/store"
)

// API is the remote tutoring service.
type API interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResult, error)
	Register(ctx context.Context, fullName, email, password string) (*domain.AuthResult, error)
	ListChildren(ctx context.Context, token string) ([]domain.ChildProfile, error)
	CreateChild(ctx context.Context, token string, in domain.ChildInput) (*domain.ChildProfile, error)
	ListFolders(ctx context.Context, token string, childID int64) ([]string, error)
	ListConversations(ctx context.Context, token string, childID int64, folder string) ([]domain.ConversationSummary, error)
	LoadMessages(ctx context.Context, token string, conversationID int64) ([]domain.StoredMessage, error)
	SendMessage(ctx context.Context, token string, req domain.SendRequest) (*domain.SendResult, error)
	SubmitFeedback(ctx context.Context, token string, req domain.FeedbackRequest) error
	DashboardOverview(ctx context.Context, token string) (*domain.Overview, error)
	ChildDashboard(ctx context.Context, token string, childID int64, days int) (*domain.ChildDashboard, error)
	FullConversation(ctx context.Context, token string, conversationID int64) (*domain.FullConversation, error)
}

// Options configures a Controller.
type Options struct {
	API    API
	Store  store.Repository
	Logger *slog.Logger

	// NotificationTTL is the auto-dismiss delay of notifications.
	NotificationTTL time.Duration

	QuickStatsDays   int
	DetailDays       int
	StatsConcurrency int

	// Now overrides the clock used for session expiry.
	Now func() time.Time
}

// Controller owns the client state. It is safe for concurrent use.
type Controller struct {
	api        API
	store      store.Repository
	logger     *slog.Logger
	ttl        time.Duration
	quickDays  int
	detailDays int
	statsLimit int
	now        func() time.Time

	mu      sync.Mutex
	state   State
	locked  map[int64]domain.Feedback
	subs    map[int]chan State
	nextSub int

	// sending is set while a message-send call is outstanding. It outlives
	// the chat buffer the call was issued from.
	sending bool

	// themeMu serializes theme changes with their persistence.
	themeMu sync.Mutex
}

// New creates a controller in the Auth section. Call Restore to pick up a
// persisted session.
func New(opts Options) (*Controller, error) {
	if opts.API == nil {
		return nil, errors.New("controller: API is required")
	}
	if opts.Store == nil {
		return nil, errors.New("controller: Store is required")
	}

	c := &Controller{
		api:        opts.API,
		store:      opts.Store,
		logger:     opts.Logger,
		ttl:        opts.NotificationTTL,
		quickDays:  opts.QuickStatsDays,
		detailDays: opts.DetailDays,
		statsLimit: opts.StatsConcurrency,
		now:        opts.Now,
		locked:     make(map[int64]domain.Feedback),
		subs:       make(map[int]chan State),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.ttl <= 0 {
		c.ttl = 3 * time.Second
	}
	if c.quickDays <= 0 {
		c.quickDays = 7
	}
	if c.detailDays <= 0 {
		c.detailDays = 30
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.state = initialState(newViewID())
	return c, nil
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe returns a channel receiving the latest snapshot after every
// update. Slow receivers only see the most recent snapshot. The returned
// function unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		_, ok := c.subs[id]
		delete(c.subs, id)
		c.mu.Unlock()
		if ok {
			close(ch)
		}
	}
}

// mutate applies fn to a copy of the state and commits it unless fn fails.
func (c *Controller) mutate(fn func(s *State) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	next.Version = c.state.Version + 1
	c.state = next
	c.publishLocked()
	return nil
}

func (c *Controller) update(fn func(s *State)) {
	_ = c.mutate(func(s *State) error {
		fn(s)
		return nil
	})
}

func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		snapshot := c.state.clone()
		select {
		case ch <- snapshot:
		default:
			// Drop the unread snapshot; only the latest matters.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

// session returns the token and current view id, or ErrNotAuthenticated.
func (c *Controller) session() (token, viewID string, err error) {
	return c.sessionIn("")
}

// sessionIn is session restricted to the given sections. The section is
// read together with the token and view id.
func (c *Controller) sessionIn(action string, sections ...domain.ViewSection) (token, viewID string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Authenticated() {
		return "", "", ErrNotAuthenticated
	}
	if err := checkSection(&c.state, action, sections...); err != nil {
		return "", "", err
	}
	return c.state.token, c.state.ViewID, nil
}

// checkSection returns ErrInvalidTransition unless s is in one of sections.
// No sections means any section.
func checkSection(s *State, action string, sections ...domain.ViewSection) error {
	if len(sections) == 0 || slices.Contains(sections, s.Section) {
		return nil
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, s.Section)
}

// enter commits a section change and mints a new view id.
func (s *State) enter(section domain.ViewSection) {
	s.Section = section
	s.ViewID = newViewID()
}

// current checks that a response issued under viewID may still be applied.
func current(s *State, viewID string) error {
	if s.ViewID != viewID {
		return ErrStaleView
	}
	return nil
}

func newViewID() string {
	return uuid.NewString()
}

// notifyLocked appends a notification to s and schedules its dismissal.
func (c *Controller) notifyLocked(s *State, kind NotificationKind, message string) {
	id := uuid.NewString()
	s.Notifications = append(s.Notifications, Notification{ID: id, Kind: kind, Message: message})
	time.AfterFunc(c.ttl, func() { c.dismiss(id) })
}

func (c *Controller) notify(kind NotificationKind, message string) {
	c.update(func(s *State) { c.notifyLocked(s, kind, message) })
}

func (c *Controller) dismiss(id string) {
	_ = c.mutate(func(s *State) error {
		for i, n := range s.Notifications {
			if n.ID == id {
				s.Notifications = append(s.Notifications[:i], s.Notifications[i+1:]...)
				return nil
			}
		}
		// Already gone, nothing to publish.
		return errNoChange
	})
}

var errNoChange = errors.New("no change")

// stale logs a discarded response.
func (c *Controller) stale(action string, err error) error {
	if errors.Is(err, ErrStaleView) {
		c.logger.Debug("discarded response for replaced view", "action", action)
	}
	return err
}

// Close unsubscribes every subscriber.
func (c *Controller) Close() {
	c.mu.Lock()
	subs := c.subs
	c.subs = make(map[int]chan State)
	c.mu.Unlock()

	for _, ch := range subs {
		close(ch)
	}
}
