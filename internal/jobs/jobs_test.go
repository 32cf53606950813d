package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gymdesk/internal/metrics"
	"gymdesk/internal/owner"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type MockCounter struct{ mock.Mock }
type MockExpiring struct{ mock.Mock }
type MockMailer struct{ mock.Mock }

func (m *MockCounter) StatusCounts(ctx context.Context) (int, int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockExpiring) ExpiringBetween(ctx context.Context, from, to time.Time) ([]owner.Owner, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]owner.Owner), args.Error(1)
}

func (m *MockMailer) SendExpiryReminder(ctx context.Context, to, gymName string, subscriptionEnd time.Time) error {
	return m.Called(ctx, to, gymName, subscriptionEnd).Error(0)
}

func (m *MockMailer) QueueLength(ctx context.Context) int64 {
	return int64(m.Called(ctx).Int(0))
}

func newTestJobs(members, owners *MockCounter, expiry *MockExpiring, mailer *MockMailer) *Jobs {
	j := NewJobs(members, owners, expiry, mailer)
	j.now = func() time.Time { return fixedNow }
	return j
}

func TestRefreshGauges(t *testing.T) {
	members, owners, mailer := new(MockCounter), new(MockCounter), new(MockMailer)
	members.On("StatusCounts", mock.Anything).Return(12, 5, nil)
	owners.On("StatusCounts", mock.Anything).Return(3, 1, nil)
	mailer.On("QueueLength", mock.Anything).Return(7)

	j := newTestJobs(members, owners, new(MockExpiring), mailer)
	require.NoError(t, j.RefreshGauges(context.Background()))

	assert.Equal(t, 12.0, testutil.ToFloat64(metrics.Members.WithLabelValues("active")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.Members.WithLabelValues("expired")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.Owners.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Owners.WithLabelValues("expired")))
	mailer.AssertExpectations(t)
}

func TestRefreshGauges_CountFailureLeavesGauges(t *testing.T) {
	metrics.SetStatusCounts(9, 9, 9, 9)

	members, owners := new(MockCounter), new(MockCounter)
	members.On("StatusCounts", mock.Anything).Return(1, 1, nil)
	owners.On("StatusCounts", mock.Anything).Return(0, 0, errors.New("db down"))

	j := newTestJobs(members, owners, new(MockExpiring), new(MockMailer))
	assert.Error(t, j.RefreshGauges(context.Background()))

	assert.Equal(t, 9.0, testutil.ToFloat64(metrics.Members.WithLabelValues("active")))
}

func TestRemindExpiring(t *testing.T) {
	expiry, mailer := new(MockExpiring), new(MockMailer)
	endA := fixedNow.Add(24 * time.Hour)
	endB := fixedNow.Add(60 * time.Hour)

	expiry.On("ExpiringBetween", mock.Anything, fixedNow, fixedNow.Add(72*time.Hour)).Return([]owner.Owner{
		{UID: "o-1", Email: "a@example.com", GymName: "A", SubscriptionEnd: endA},
		{UID: "o-2", Email: "b@example.com", GymName: "B", SubscriptionEnd: endB},
	}, nil)
	mailer.On("SendExpiryReminder", mock.Anything, "a@example.com", "A", endA).Return(nil)
	mailer.On("SendExpiryReminder", mock.Anything, "b@example.com", "B", endB).Return(errors.New("redis down"))

	j := newTestJobs(new(MockCounter), new(MockCounter), expiry, mailer)
	sent, err := j.RemindExpiring(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	mailer.AssertExpectations(t)
}

func TestRemindExpiring_LookupFails(t *testing.T) {
	expiry := new(MockExpiring)
	expiry.On("ExpiringBetween", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	mailer := new(MockMailer)
	j := newTestJobs(new(MockCounter), new(MockCounter), expiry, mailer)

	sent, err := j.RemindExpiring(context.Background())
	assert.Error(t, err)
	assert.Zero(t, sent)
	mailer.AssertNotCalled(t, "SendExpiryReminder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestScheduler_StartStopsOnCancel(t *testing.T) {
	members, owners, mailer := new(MockCounter), new(MockCounter), new(MockMailer)
	refreshed := make(chan struct{})
	var once sync.Once
	members.On("StatusCounts", mock.Anything).Return(0, 0, nil)
	owners.On("StatusCounts", mock.Anything).Return(0, 0, nil)
	mailer.On("QueueLength", mock.Anything).Return(0).Run(func(mock.Arguments) {
		once.Do(func() { close(refreshed) })
	})

	s := NewScheduler(newTestJobs(members, owners, new(MockExpiring), mailer))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case <-refreshed:
	case <-time.After(2 * time.Second):
		t.Fatal("gauges were not refreshed on start")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 2, s.Entries())
}
