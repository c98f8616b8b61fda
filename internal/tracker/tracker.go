// Package tracker keeps each user's totals and meals panes in step with the
// meal API.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pageza/caltrack/web/internal/metrics"
	"github.com/pageza/caltrack/web/internal/models"
)

var (
	// ErrSubmissionInFlight rejects a submission while another one for the
	// same user has not settled.
	ErrSubmissionInFlight = errors.New("a meal submission is already in progress")
	ErrEmptyMeal          = errors.New("meal description is required")
)

// Events sent to a Notifier.
const (
	EventMealResult   = "meal_result"
	EventMealsChanged = "meals_changed"
)

// MealAPI is the subset of the meal API the tracker drives.
type MealAPI interface {
	DailyTotals(ctx context.Context, userID string) (*models.DailyTotals, error)
	DailyMeals(ctx context.Context, userID string) ([]models.Meal, error)
	CalorieCount(ctx context.Context, mealText, userID string) (*models.MealResult, error)
	DeleteMeal(ctx context.Context, mealID models.MealID, userID string) error
	HistoricalTotals(ctx context.Context, userID string, days int) ([]models.DayTotals, error)
}

// ImageResolver turns a stored image reference into a browser-loadable URL.
type ImageResolver interface {
	ResolveImageURL(ctx context.Context, ref string) string
}

// Notifier pushes change events to a user's open pages.
type Notifier interface {
	Notify(userID string, event string)
}

// TotalsPane is the last good totals snapshot plus the latest refresh error.
type TotalsPane struct {
	Totals    *models.DailyTotals `json:"totals"`
	Error     string              `json:"error,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// MealsPane lists meals newest first. Empty is only set after a successful
// fetch returned no meals.
type MealsPane struct {
	Meals     []models.Meal `json:"meals"`
	Empty     bool          `json:"empty"`
	Error     string        `json:"error,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// View is a snapshot of one user's panes.
type View struct {
	Totals      TotalsPane         `json:"totals"`
	Meals       MealsPane          `json:"meals"`
	LastResult  *models.MealResult `json:"last_result,omitempty"`
	SubmitError string             `json:"submit_error,omitempty"`
}

// DefaultIdleTTL is how long a user's panes are kept after their last use.
const DefaultIdleTTL = 30 * time.Minute

type userState struct {
	mu         sync.Mutex
	view       View
	submitting atomic.Bool
	lastSeen   atomic.Int64
}

type Tracker struct {
	api      MealAPI
	images   ImageResolver
	notifier Notifier
	now      func() time.Time
	idleTTL  time.Duration

	mu        sync.Mutex
	users     map[string]*userState
	lastSweep time.Time
}

type Option func(*Tracker)

func WithImageResolver(r ImageResolver) Option {
	return func(t *Tracker) { t.images = r }
}

func WithNotifier(n Notifier) Option {
	return func(t *Tracker) { t.notifier = n }
}

// WithIdleTTL sets how long idle user state is retained.
func WithIdleTTL(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.idleTTL = d
		}
	}
}

func New(api MealAPI, opts ...Option) *Tracker {
	t := &Tracker{
		api:     api,
		now:     time.Now,
		idleTTL: DefaultIdleTTL,
		users:   make(map[string]*userState),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) state(userID string) *userState {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.sweepLocked(now)
	st, ok := t.users[userID]
	if !ok {
		st = &userState{}
		t.users[userID] = st
	}
	st.lastSeen.Store(now.UnixNano())
	return st
}

// sweepLocked drops users idle for longer than idleTTL. Users with a
// submission in flight are kept. Runs at most once per idleTTL.
func (t *Tracker) sweepLocked(now time.Time) {
	if now.Sub(t.lastSweep) < t.idleTTL {
		return
	}
	t.lastSweep = now
	cutoff := now.Add(-t.idleTTL).UnixNano()
	for id, st := range t.users {
		if st.lastSeen.Load() < cutoff && !st.submitting.Load() {
			delete(t.users, id)
		}
	}
}

// activeUsers reports how many users currently have state.
func (t *Tracker) activeUsers() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.users)
}

// View returns a copy of the user's current panes.
func (t *Tracker) View(userID string) View {
	st := t.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()

	v := st.view
	if v.Totals.Totals != nil {
		totals := *v.Totals.Totals
		v.Totals.Totals = &totals
	}
	v.Meals.Meals = append([]models.Meal(nil), v.Meals.Meals...)
	if v.LastResult != nil {
		result := *v.LastResult
		v.LastResult = &result
	}
	return v
}

// Submitting reports whether a submission for userID is in flight.
func (t *Tracker) Submitting(userID string) bool {
	return t.state(userID).submitting.Load()
}

// RefreshTotals fetches today's totals. On failure the previous totals stay
// visible next to the error.
func (t *Tracker) RefreshTotals(ctx context.Context, userID string) error {
	totals, err := t.api.DailyTotals(ctx, userID)

	st := t.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err != nil {
		log.Printf("[Tracker] Failed to refresh totals for user %s: %v", userID, err)
		st.view.Totals.Error = "Failed to load daily totals"
		return fmt.Errorf("failed to refresh totals: %w", err)
	}
	st.view.Totals = TotalsPane{Totals: totals, UpdatedAt: t.now()}
	return nil
}

// RefreshMeals fetches today's meals, newest first. On failure the previous
// list stays visible next to the error.
func (t *Tracker) RefreshMeals(ctx context.Context, userID string) error {
	meals, err := t.api.DailyMeals(ctx, userID)
	if err == nil {
		sortNewestFirst(meals)
		t.resolveImages(ctx, meals)
	}

	st := t.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if err != nil {
		log.Printf("[Tracker] Failed to refresh meals for user %s: %v", userID, err)
		st.view.Meals.Error = "Failed to load meals"
		return fmt.Errorf("failed to refresh meals: %w", err)
	}
	st.view.Meals = MealsPane{Meals: meals, Empty: len(meals) == 0, UpdatedAt: t.now()}
	return nil
}

// Refresh reloads totals and then meals.
func (t *Tracker) Refresh(ctx context.Context, userID string) error {
	return errors.Join(t.RefreshTotals(ctx, userID), t.RefreshMeals(ctx, userID))
}

// Submit estimates and logs a meal. Only one submission per user runs at a
// time. The result is recorded before the panes are refreshed; refresh
// failures are left on the panes and do not fail the submission.
// Cancelling ctx does not abort the chain once started, so the guard is held
// until the upstream call settles.
func (t *Tracker) Submit(ctx context.Context, userID, mealText string) (*models.MealResult, error) {
	ctx = context.WithoutCancel(ctx)
	mealText = strings.TrimSpace(mealText)
	if mealText == "" {
		return nil, ErrEmptyMeal
	}

	st := t.state(userID)
	if !st.submitting.CompareAndSwap(false, true) {
		metrics.IncSubmissionRejected("in_flight")
		return nil, ErrSubmissionInFlight
	}
	defer st.submitting.Store(false)

	result, err := t.api.CalorieCount(ctx, mealText, userID)
	if err != nil {
		log.Printf("[Tracker] Meal submission failed for user %s: %v", userID, err)
		st.mu.Lock()
		st.view.SubmitError = "Failed to analyze meal"
		st.mu.Unlock()
		return nil, fmt.Errorf("failed to submit meal: %w", err)
	}
	if t.images != nil && result.ImageURL != "" {
		result.ImageURL = t.images.ResolveImageURL(ctx, result.ImageURL)
	}

	st.mu.Lock()
	recorded := *result
	st.view.LastResult = &recorded
	st.view.SubmitError = ""
	st.mu.Unlock()
	t.notify(userID, EventMealResult)

	_ = t.Refresh(ctx, userID)
	t.notify(userID, EventMealsChanged)
	return result, nil
}

// DeleteMeal removes a meal upstream and then reloads both panes. A failed
// delete leaves the panes untouched. Like Submit it ignores cancellation of ctx.
func (t *Tracker) DeleteMeal(ctx context.Context, userID string, mealID models.MealID) error {
	ctx = context.WithoutCancel(ctx)
	if err := t.api.DeleteMeal(ctx, mealID, userID); err != nil {
		log.Printf("[Tracker] Failed to delete meal %s for user %s: %v", mealID, userID, err)
		return fmt.Errorf("failed to delete meal: %w", err)
	}

	_ = t.Refresh(ctx, userID)
	t.notify(userID, EventMealsChanged)
	return nil
}

// History fetches per-day totals for the trend charts.
func (t *Tracker) History(ctx context.Context, userID string, days int) ([]models.DayTotals, error) {
	history, err := t.api.HistoricalTotals(ctx, userID, days)
	if err != nil {
		log.Printf("[Tracker] Failed to load history for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return history, nil
}

func (t *Tracker) resolveImages(ctx context.Context, meals []models.Meal) {
	if t.images == nil {
		return
	}
	for i := range meals {
		if meals[i].ImageURL != "" {
			meals[i].ImageURL = t.images.ResolveImageURL(ctx, meals[i].ImageURL)
		}
	}
}

func (t *Tracker) notify(userID, event string) {
	if t.notifier != nil {
		t.notifier.Notify(userID, event)
	}
}

func sortNewestFirst(meals []models.Meal) {
	sort.SliceStable(meals, func(i, j int) bool {
		return meals[i].Timestamp > meals[j].Timestamp
	})
}
