package periods

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudoshq/kudos/internal/shared"
)

// fakeRepo keeps periods in memory, id-ordered by insertion.
type fakeRepo struct {
	items  map[int64]Period
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[int64]Period)}
}

func (f *fakeRepo) seed(p Period) {
	if p.ID >= f.nextID {
		f.nextID = p.ID
	}
	f.items[p.ID] = p
}

func (f *fakeRepo) sorted() []Period {
	out := make([]Period, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out
}

func (f *fakeRepo) Insert(_ context.Context, name string, endDate time.Time) (Period, error) {
	f.nextID++
	p := Period{ID: f.nextID, Name: name, Status: StatusOpen, EndDate: endDate}
	f.items[p.ID] = p
	return p, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (Period, error) {
	p, ok := f.items[id]
	if !ok {
		return Period{}, fmt.Errorf("periods: period %d: %w", id, shared.ErrNotFound)
	}
	return p, nil
}

func (f *fakeRepo) ExistsByName(_ context.Context, name string) (bool, error) {
	for _, p := range f.items {
		if p.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRepo) FindLatest(_ context.Context) (Period, bool, error) {
	all := f.sorted()
	if len(all) == 0 {
		return Period{}, false, nil
	}
	return all[len(all)-1], true, nil
}

func (f *fakeRepo) List(_ context.Context) ([]Period, error) {
	return f.sorted(), nil
}

func (f *fakeRepo) PreviousEndDate(_ context.Context, endDate time.Time) (time.Time, bool, error) {
	var prev time.Time
	found := false
	for _, p := range f.items {
		if p.EndDate.Before(endDate) && (!found || p.EndDate.After(prev)) {
			prev = p.EndDate
			found = true
		}
	}
	return prev, found, nil
}

func (f *fakeRepo) FindContaining(_ context.Context, t time.Time) (Period, bool, error) {
	for _, p := range f.sorted() {
		if !p.EndDate.Before(t) {
			return p, true, nil
		}
	}
	return Period{}, false, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, in UpdateInput) (Period, error) {
	p := f.items[id]
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.EndDate != nil {
		p.EndDate = *in.EndDate
	}
	f.items[id] = p
	return p, nil
}

func (f *fakeRepo) SetStatus(_ context.Context, id int64, from, to Status) (bool, error) {
	p, ok := f.items[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	f.items[id] = p
	return true, nil
}

type fakeEnqueuer struct {
	exported []int64
	err      error
}

func (f *fakeEnqueuer) EnqueuePeriodExport(_ context.Context, periodID int64) error {
	if f.err != nil {
		return f.err
	}
	f.exported = append(f.exported, periodID)
	return nil
}

var testClock = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo *fakeRepo, enqueuer TaskEnqueuer) *Service {
	s := NewService(repo, nil, enqueuer, nil)
	s.WithNow(func() time.Time { return testClock })
	return s
}

func TestCreateFirstPeriod(t *testing.T) {
	repo := newFakeRepo()
	s := newTestService(repo, nil)

	p, err := s.Create(context.Background(), CreateInput{Name: "  march  ", EndDate: testClock.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, "march", p.Name)
	assert.Equal(t, StatusOpen, p.Status)
}

func TestCreateRejectsShortName(t *testing.T) {
	s := newTestService(newFakeRepo(), nil)

	_, err := s.Create(context.Background(), CreateInput{Name: "ab", EndDate: testClock})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusOpen, EndDate: testClock})
	s := newTestService(repo, nil)

	_, err := s.Create(context.Background(), CreateInput{Name: "march", EndDate: testClock.Add(30 * 24 * time.Hour)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestCreateEnforcesEndDateGap(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusOpen, EndDate: testClock})
	s := newTestService(repo, nil)

	_, err := s.Create(context.Background(), CreateInput{Name: "april", EndDate: testClock.Add(MinEndDateGap - time.Hour)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	p, err := s.Create(context.Background(), CreateInput{Name: "april", EndDate: testClock.Add(MinEndDateGap)})
	require.NoError(t, err)
	assert.Equal(t, "april", p.Name)
}

func TestUpdateRequiresAField(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusOpen, EndDate: testClock})
	s := newTestService(repo, nil)

	_, err := s.Update(context.Background(), 1, UpdateInput{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestUpdateName(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusClosed, EndDate: testClock})
	s := newTestService(repo, nil)

	// Renaming is allowed in any status.
	name := "march-final"
	p, err := s.Update(context.Background(), 1, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "march-final", p.Name)
}

func TestUpdateEndDateOnlyOnLatest(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusClosed, EndDate: testClock.Add(-60 * 24 * time.Hour)})
	repo.seed(Period{ID: 2, Name: "april", Status: StatusOpen, EndDate: testClock})
	s := newTestService(repo, nil)

	end := testClock.Add(24 * time.Hour)
	_, err := s.Update(context.Background(), 1, UpdateInput{EndDate: &end})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	p, err := s.Update(context.Background(), 2, UpdateInput{EndDate: &end})
	require.NoError(t, err)
	assert.True(t, p.EndDate.Equal(end))
}

func TestUpdateEndDateOnlyWhileOpen(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusQuantify, EndDate: testClock})
	s := newTestService(repo, nil)

	end := testClock.Add(24 * time.Hour)
	_, err := s.Update(context.Background(), 1, UpdateInput{EndDate: &end})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestUpdateEndDateKeepsGapToPrevious(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusClosed, EndDate: testClock.Add(-10 * 24 * time.Hour)})
	repo.seed(Period{ID: 2, Name: "april", Status: StatusOpen, EndDate: testClock})
	s := newTestService(repo, nil)

	// Pulling april's end within 7 days of march's end is rejected.
	end := testClock.Add(-5 * 24 * time.Hour)
	_, err := s.Update(context.Background(), 2, UpdateInput{EndDate: &end})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestCloseEnqueuesExport(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusQuantify, EndDate: testClock.Add(-time.Hour)})
	enq := &fakeEnqueuer{}
	s := newTestService(repo, enq)

	p, err := s.Close(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, p.Status)
	assert.Equal(t, StatusClosed, repo.items[1].Status)
	assert.Equal(t, []int64{1}, enq.exported)
}

func TestCloseRejectsAlreadyClosed(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusClosed, EndDate: testClock.Add(-time.Hour)})
	s := newTestService(repo, nil)

	_, err := s.Close(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestCloseRejectsUnendedPeriod(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusOpen, EndDate: testClock.Add(time.Hour)})
	s := newTestService(repo, nil)

	_, err := s.Close(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestCloseSurvivesEnqueueFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(Period{ID: 1, Name: "march", Status: StatusQuantify, EndDate: testClock.Add(-time.Hour)})
	enq := &fakeEnqueuer{err: errors.New("redis down")}
	s := newTestService(repo, enq)

	// The close commits even if the export job cannot be scheduled.
	p, err := s.Close(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, p.Status)
}

func TestWindowDerivation(t *testing.T) {
	repo := newFakeRepo()
	first := Period{ID: 1, Name: "march", Status: StatusClosed, EndDate: testClock.Add(-30 * 24 * time.Hour)}
	second := Period{ID: 2, Name: "april", Status: StatusOpen, EndDate: testClock}
	repo.seed(first)
	repo.seed(second)
	s := newTestService(repo, nil)

	w, err := s.Window(context.Background(), second)
	require.NoError(t, err)
	assert.True(t, w.Start.Equal(first.EndDate))
	assert.True(t, w.End.Equal(second.EndDate))

	// Boundary semantics: exclusive start, inclusive end.
	assert.False(t, w.Contains(first.EndDate))
	assert.True(t, w.Contains(first.EndDate.Add(time.Nanosecond)))
	assert.True(t, w.Contains(second.EndDate))
	assert.False(t, w.Contains(second.EndDate.Add(time.Nanosecond)))
}

func TestWindowFirstPeriodStartsAtEpoch(t *testing.T) {
	repo := newFakeRepo()
	first := Period{ID: 1, Name: "march", Status: StatusOpen, EndDate: testClock}
	repo.seed(first)
	s := newTestService(repo, nil)

	w, err := s.Window(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, w.Start.Equal(time.Unix(0, 0)))
}
