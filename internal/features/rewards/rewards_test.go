package rewards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/roadwatch/internal/features/auth"
)

type memRewards struct {
	mu      sync.Mutex
	rewards map[string]*Reward
	seq     int
}

func newMemRewards() *memRewards {
	return &memRewards{rewards: map[string]*Reward{}}
}

func (m *memRewards) Insert(_ context.Context, r *Reward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = fmt.Sprintf("w%d", m.seq)
	r.CreatedAt = time.Date(2026, 3, 1, 9, m.seq, 0, 0, time.UTC)
	cp := *r
	m.rewards[r.ID] = &cp
	return nil
}

func (m *memRewards) ListByUser(_ context.Context, userID string) ([]Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Reward{}
	for _, r := range m.rewards {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRewards) SumRedeemed(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, r := range m.rewards {
		if r.UserID == userID {
			total += r.PointsRedeemed
		}
	}
	return total, nil
}

func (m *memRewards) CompleteIfPending(_ context.Context, id string) (*Reward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rewards[id]
	if !ok {
		return nil, ErrRewardNotFound
	}
	if r.Status != StatusPending {
		return nil, ErrNotPending
	}
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.CompletedAt = &now
	cp := *r
	return &cp, nil
}

type memProfiles struct {
	profiles map[string]*auth.Profile
}

func (m *memProfiles) Create(_ context.Context, p *auth.Profile) error {
	m.profiles[p.ID] = p
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*auth.Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, auth.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) BumpSessionVersion(_ context.Context, id string) (int, error) {
	p, ok := m.profiles[id]
	if !ok {
		return 0, auth.ErrProfileNotFound
	}
	p.SessionVersion++
	return p.SessionVersion, nil
}

var user = auth.CurrentUser{ID: "user-1", Email: "reporter@example.com"}

func newTestService(points int) (*Service, *memRewards, *memProfiles) {
	store := newMemRewards()
	profiles := &memProfiles{profiles: map[string]*auth.Profile{
		user.ID: {ID: user.ID, Email: user.Email, Points: points},
	}}
	return NewService(store, profiles, 100), store, profiles
}

func TestRedeemCreatesPendingRewardWithoutTouchingPoints(t *testing.T) {
	ctx := context.Background()
	svc, _, profiles := newTestService(250)

	reward, err := svc.Redeem(ctx, user, RedeemRequest{Points: 150, UPIID: " reporter@okbank "})
	require.NoError(t, err)
	require.Equal(t, StatusPending, reward.Status)
	require.Equal(t, "reporter@okbank", reward.UPIID)
	require.Equal(t, 150, reward.PointsRedeemed)
	require.Equal(t, 250, profiles.profiles[user.ID].Points)

	balance, err := svc.Balance(ctx, user)
	require.NoError(t, err)
	require.Equal(t, Balance{Points: 250, Redeemed: 150, Available: 100}, balance)
}

func TestRedeemRefusals(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(250)

	_, err := svc.Redeem(ctx, user, RedeemRequest{Points: 99, UPIID: "reporter@okbank"})
	require.ErrorIs(t, err, ErrBelowMinimum)

	_, err = svc.Redeem(ctx, user, RedeemRequest{Points: 300, UPIID: "reporter@okbank"})
	require.ErrorIs(t, err, ErrInsufficientPoints)

	_, err = svc.Redeem(ctx, user, RedeemRequest{Points: 150, UPIID: "reporter"})
	require.ErrorIs(t, err, ErrInvalidUPIID)

	_, err = svc.Redeem(ctx, user, RedeemRequest{Points: 200, UPIID: "reporter@okbank"})
	require.NoError(t, err)
	// only 50 left
	_, err = svc.Redeem(ctx, user, RedeemRequest{Points: 100, UPIID: "reporter@okbank"})
	require.ErrorIs(t, err, ErrInsufficientPoints)

	list, err := store.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestConcurrentRedeemsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(300)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Redeem(ctx, user, RedeemRequest{Points: 100, UPIID: "reporter@okbank"})
		}()
	}
	wg.Wait()

	total, err := store.SumRedeemed(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, 300, total)
}

func TestListNewestFirstAndComplete(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(500)

	first, err := svc.Redeem(ctx, user, RedeemRequest{Points: 100, UPIID: "reporter@okbank"})
	require.NoError(t, err)
	second, err := svc.Redeem(ctx, user, RedeemRequest{Points: 200, UPIID: "reporter@okbank"})
	require.NoError(t, err)

	list, err := svc.List(ctx, user)
	require.NoError(t, err)
	require.Equal(t, second.ID, list[0].ID)
	require.Equal(t, first.ID, list[1].ID)

	done, err := svc.Complete(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = svc.Complete(ctx, first.ID)
	require.ErrorIs(t, err, ErrNotPending)
	_, err = svc.Complete(ctx, "missing")
	require.ErrorIs(t, err, ErrRewardNotFound)

	// completing does not change the balance
	balance, err := svc.Balance(ctx, user)
	require.NoError(t, err)
	require.Equal(t, 200, balance.Available)
}

type envelope struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Code       string          `json:"code"`
	Data       json.RawMessage `json:"data"`
}

func call(t *testing.T, handler gin.HandlerFunc, withUser bool, method, target, body string, params ...gin.Param) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	if withUser {
		auth.SetCurrentUser(c, user)
	}
	handler(c)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestHandlers(t *testing.T) {
	svc, _, _ := newTestService(250)
	h := NewHandler(svc)

	w, env := call(t, h.GetBalance, false, http.MethodGet, "/rewards/balance", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, env = call(t, h.Redeem, true, http.MethodPost, "/rewards/redeem", `{"points":150,"upiId":"reporter@okbank"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var reward Reward
	require.NoError(t, json.Unmarshal(env.Data, &reward))
	require.Equal(t, StatusPending, reward.Status)

	w, env = call(t, h.Redeem, true, http.MethodPost, "/rewards/redeem", `{"points":150,"upiId":"reporter@okbank"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "INSUFFICIENT_POINTS", env.Code)

	w, env = call(t, h.Redeem, true, http.MethodPost, "/rewards/redeem", `{"points":100,"upiId":"nope"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Equal(t, "INVALID_UPI_ID", env.Code)

	w, env = call(t, h.GetBalance, true, http.MethodGet, "/rewards/balance", "")
	require.Equal(t, http.StatusOK, w.Code)
	var balance Balance
	require.NoError(t, json.Unmarshal(env.Data, &balance))
	require.Equal(t, Balance{Points: 250, Redeemed: 150, Available: 100}, balance)

	w, env = call(t, h.ListRewards, true, http.MethodGet, "/rewards", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []Reward
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	w, _ = call(t, h.CompleteReward, true, http.MethodPatch, "/admin/rewards/"+reward.ID+"/complete", "", gin.Param{Key: "id", Value: reward.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = call(t, h.CompleteReward, true, http.MethodPatch, "/admin/rewards/"+reward.ID+"/complete", "", gin.Param{Key: "id", Value: reward.ID})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, "NOT_PENDING", env.Code)

	w, env = call(t, h.CompleteReward, true, http.MethodPatch, "/admin/rewards/missing/complete", "", gin.Param{Key: "id", Value: "missing"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "REWARD_NOT_FOUND", env.Code)
}
