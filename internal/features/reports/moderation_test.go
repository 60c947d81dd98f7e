package reports

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	require.True(t, CanTransition(StatusReported, StatusInProgress))
	require.True(t, CanTransition(StatusInProgress, StatusResolved))

	require.False(t, CanTransition(StatusReported, StatusResolved))
	require.False(t, CanTransition(StatusResolved, StatusInProgress))
	require.False(t, CanTransition(StatusResolved, StatusReported))
	require.False(t, CanTransition(StatusInProgress, StatusReported))
	require.False(t, CanTransition(StatusReported, StatusReported))

	require.Equal(t, Actions{CanMarkInProgress: true}, ActionsFor(StatusReported))
	require.Equal(t, Actions{CanMarkResolved: true}, ActionsFor(StatusInProgress))
	require.Equal(t, Actions{}, ActionsFor(StatusResolved))
	require.Empty(t, AllowedTransitions(StatusResolved))
}

func TestModeratorListsNewestFirstWithFilters(t *testing.T) {
	store := newMemStore()
	first := store.seed(t, "u1", StatusReported)
	second := store.seed(t, "u2", StatusInProgress)
	third := store.seed(t, "u1", StatusResolved)
	fourth := store.seed(t, "u3", StatusReported)

	m := NewModerator(store)
	require.True(t, m.NeedsRefresh())
	require.True(t, m.State().Loading)

	list, err := m.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{fourth.ID, third.ID, second.ID, first.ID}, ids(list))
	require.False(t, m.State().Loading)
	require.Equal(t, 4, m.State().Count)

	cases := map[Filter][]string{
		FilterAll:                {fourth.ID, third.ID, second.ID, first.ID},
		Filter(StatusReported):   {fourth.ID, first.ID},
		Filter(StatusInProgress): {second.ID},
		Filter(StatusResolved):   {third.ID},
	}
	for filter, want := range cases {
		got, err := m.List(filter)
		require.NoError(t, err)
		require.Equal(t, want, ids(got), "filter %s", filter)
	}

	_, err = m.List("closed")
	var v *ValidationError
	require.ErrorAs(t, err, &v)

	_, err = ParseFilter("closed")
	require.ErrorAs(t, err, &v)
	f, err := ParseFilter("")
	require.NoError(t, err)
	require.Equal(t, FilterAll, f)
}

func ids(list []Report) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}

func TestAdvanceFollowsTheLifecycle(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := store.seed(t, "u1", StatusReported)
	m := NewModerator(store)

	updated, err := m.Advance(ctx, r.ID, StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)
	require.False(t, m.NeedsRefresh())

	list, err := m.List(Filter(StatusInProgress))
	require.NoError(t, err)
	require.Equal(t, []string{r.ID}, ids(list))

	updated, err = m.Advance(ctx, r.ID, StatusResolved)
	require.NoError(t, err)
	require.Equal(t, StatusResolved, updated.Status)

	_, err = m.Advance(ctx, r.ID, StatusInProgress)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, StatusResolved, te.From)
}

func TestAdvanceRejectsSkippingAStep(t *testing.T) {
	store := newMemStore()
	r := store.seed(t, "u1", StatusReported)
	m := NewModerator(store)

	_, err := m.Advance(context.Background(), r.ID, StatusResolved)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, StatusReported, te.From)
	require.Equal(t, StatusResolved, te.To)
	require.ErrorIs(t, err, ErrIllegalTransition)

	require.Zero(t, store.casCalls)
	stored, err := store.GetByID(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, StatusReported, stored.Status)
}

func TestAdvanceLosesRaceWithConcurrentModerator(t *testing.T) {
	store := newMemStore()
	r := store.seed(t, "u1", StatusReported)
	m := NewModerator(store)

	// another moderator moved it between our read and our write
	store.casOverride = StatusInProgress

	_, err := m.Advance(context.Background(), r.ID, StatusInProgress)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	require.Equal(t, StatusInProgress, te.From)
	require.Equal(t, 1, store.casCalls)
}

func TestAdvanceUnknownReport(t *testing.T) {
	m := NewModerator(newMemStore())
	_, err := m.Advance(context.Background(), "missing", StatusInProgress)
	require.ErrorIs(t, err, ErrReportNotFound)

	_, err = m.Advance(context.Background(), "missing", "closed")
	var v *ValidationError
	require.ErrorAs(t, err, &v)
}

func TestRefreshFailureEmptiesView(t *testing.T) {
	store := newMemStore()
	store.seed(t, "u1", StatusReported)
	m := NewModerator(store)

	_, err := m.Refresh(context.Background())
	require.NoError(t, err)

	store.listErr = errors.New("store offline")
	_, err = m.Refresh(context.Background())
	require.EqualError(t, err, "store offline")

	state := m.State()
	require.True(t, state.Loading)
	require.Equal(t, "store offline", state.Error)
	require.Zero(t, state.Count)
	require.True(t, m.NeedsRefresh())

	list, err := m.List(FilterAll)
	require.NoError(t, err)
	require.Empty(t, list)

	store.listErr = nil
	_, err = m.Refresh(context.Background())
	require.NoError(t, err)
	require.Empty(t, m.State().Error)
}

func TestItemsCarryActions(t *testing.T) {
	items := Items([]Report{{ID: "a", Status: StatusReported}, {ID: "b", Status: StatusResolved}})
	require.True(t, items[0].Actions.CanMarkInProgress)
	require.False(t, items[0].Actions.CanMarkResolved)
	require.Equal(t, Actions{}, items[1].Actions)
}

func TestAdvanceEveryPairThroughTheStore(t *testing.T) {
	statuses := []Status{StatusReported, StatusInProgress, StatusResolved}
	legal := map[[2]Status]bool{
		{StatusReported, StatusInProgress}: true,
		{StatusInProgress, StatusResolved}: true,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				store := newMemStore()
				r := store.seed(t, "u1", from)
				m := NewModerator(store)

				ok := legal[[2]Status{from, to}]
				require.Equal(t, ok, CanTransition(from, to))

				_, err := m.Advance(context.Background(), r.ID, to)
				stored, getErr := store.GetByID(context.Background(), r.ID)
				require.NoError(t, getErr)

				if ok {
					require.NoError(t, err)
					require.Equal(t, 1, store.casCalls)
					require.Equal(t, to, stored.Status)
					return
				}
				var te *TransitionError
				require.ErrorAs(t, err, &te)
				require.Equal(t, from, te.From)
				require.Equal(t, to, te.To)
				require.Zero(t, store.casCalls)
				require.Equal(t, from, stored.Status)
			})
		}
	}
}

// blockFirstList holds the first ListNewestFirst after its snapshot until release is closed
func blockFirstList(store *memStore) (snapshotted, release chan struct{}) {
	snapshotted = make(chan struct{})
	release = make(chan struct{})
	var calls atomic.Int32
	store.listHook = func() {
		if calls.Add(1) == 1 {
			close(snapshotted)
			<-release
		}
	}
	return snapshotted, release
}

func TestSlowRefreshDoesNotOverwriteAdvance(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	r := store.seed(t, "u1", StatusReported)
	m := NewModerator(store)
	snapshotted, release := blockFirstList(store)

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(ctx)
		done <- err
	}()
	<-snapshotted

	_, err := m.Advance(ctx, r.ID, StatusInProgress)
	require.NoError(t, err)

	close(release)
	require.NoError(t, <-done)

	list, err := m.List(FilterAll)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, StatusInProgress, list[0].Status)
	require.Equal(t, Actions{CanMarkResolved: true}, ActionsFor(list[0].Status))
	require.False(t, m.NeedsRefresh())
}

func TestMarkStaleDuringRefreshKeepsViewStale(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.seed(t, "u1", StatusReported)
	m := NewModerator(store)
	snapshotted, release := blockFirstList(store)

	done := make(chan error, 1)
	go func() {
		_, err := m.Refresh(ctx)
		done <- err
	}()
	<-snapshotted

	fresh := store.seed(t, "u2", StatusReported)
	m.MarkStale()

	close(release)
	require.NoError(t, <-done)
	require.True(t, m.NeedsRefresh())

	list, err := m.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, fresh.ID, list[0].ID)
	require.False(t, m.NeedsRefresh())
}
