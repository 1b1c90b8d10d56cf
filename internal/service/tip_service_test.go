package service_test

import (
	"context"
	"strings"
	"testing"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/mocks"
	"SubletHubPlatform/internal/service"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const tipID = "9e3c1f0a-7b2d-4a61-8f55-2d9b6c4e1a10"

type tipFixture struct {
	tips      *mocks.MockTipRepository
	listings  *mocks.MockListingRepository
	publisher *mocks.MockTipEventPublisher
	metrics   *metrics.Metrics
	svc       *service.Tips
}

func newTipFixture() *tipFixture {
	f := &tipFixture{
		tips:      new(mocks.MockTipRepository),
		listings:  new(mocks.MockListingRepository),
		publisher: new(mocks.MockTipEventPublisher),
		metrics:   metrics.NewMetrics("test"),
	}
	f.svc = service.NewTipService(f.tips, f.listings, f.publisher, f.metrics, mocks.FixedClock(fixedNow), logger.NewNop())
	return f
}

var payer = domain.Identity{UserID: "payer", Role: domain.RoleUser}

func TestTipService_CreateTip(t *testing.T) {
	f := newTipFixture()
	f.listings.On("GetByID", mock.Anything, listingID).Return(&domain.Listing{ID: listingID, OwnerID: "owner"}, nil)
	f.tips.On("Create", mock.Anything, mock.MatchedBy(func(tip *domain.Tip) bool {
		return tip.Status == domain.TipPending && tip.FromUserID == "payer" && tip.ToUserID == "owner" && tip.Amount == 10.5
	})).Return(nil)
	f.publisher.On("PublishTipEvent", mock.Anything, mock.MatchedBy(func(e *domain.TipEvent) bool {
		return e.Type == domain.TipEventCreated && e.Amount == 10.5
	})).Return(nil)

	tip, err := f.svc.CreateTip(context.Background(), payer, service.CreateTipRequest{ListingID: listingID, Amount: 10.5})
	require.NoError(t, err)
	assert.Equal(t, domain.TipPending, tip.Status)
	assert.Equal(t, fixedNow, tip.CreatedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TipTransitions.WithLabelValues("pending")))

	f.tips.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestTipService_CreateTipCheckOrder(t *testing.T) {
	t.Run("missing listing wins over bad amount", func(t *testing.T) {
		f := newTipFixture()
		f.listings.On("GetByID", mock.Anything, listingID).Return(nil, errors.New(errors.ErrNotFound, "listing not found"))

		_, err := f.svc.CreateTip(context.Background(), payer, service.CreateTipRequest{ListingID: listingID, Amount: -1})
		assert.True(t, errors.HasCode(err, errors.ErrNotFound))
	})

	t.Run("self tip wins over bad amount", func(t *testing.T) {
		f := newTipFixture()
		f.listings.On("GetByID", mock.Anything, listingID).Return(&domain.Listing{ID: listingID, OwnerID: "payer"}, nil)

		_, err := f.svc.CreateTip(context.Background(), payer, service.CreateTipRequest{ListingID: listingID, Amount: 0})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrInvalidOperation))
		assert.Contains(t, err.Error(), "cannot tip own listing")
		f.tips.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	for _, amount := range []float64{0, -3, 10.555} {
		f := newTipFixture()
		f.listings.On("GetByID", mock.Anything, listingID).Return(&domain.Listing{ID: listingID, OwnerID: "owner"}, nil)

		_, err := f.svc.CreateTip(context.Background(), payer, service.CreateTipRequest{ListingID: listingID, Amount: amount})
		assert.True(t, errors.HasCode(err, errors.ErrValidation), "amount %v", amount)
		f.tips.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	}
}

func TestTipService_CreateTipMessage(t *testing.T) {
	f := newTipFixture()
	f.listings.On("GetByID", mock.Anything, listingID).Return(&domain.Listing{ID: listingID, OwnerID: "owner"}, nil)
	f.tips.On("Create", mock.Anything, mock.MatchedBy(func(tip *domain.Tip) bool {
		return tip.Message == "thanks for the stay"
	})).Return(nil)
	f.publisher.On("PublishTipEvent", mock.Anything, mock.Anything).Return(nil)

	tip, err := f.svc.CreateTip(context.Background(), payer, service.CreateTipRequest{
		ListingID: listingID,
		Amount:    3,
		Message:   "  thanks for the stay ",
	})
	require.NoError(t, err)
	assert.Equal(t, "thanks for the stay", tip.Message)
	f.tips.AssertExpectations(t)
}

func TestTipService_CreateTipMessageTooLong(t *testing.T) {
	f := newTipFixture()
	f.listings.On("GetByID", mock.Anything, listingID).Return(&domain.Listing{ID: listingID, OwnerID: "owner"}, nil)

	_, err := f.svc.CreateTip(context.Background(), payer, service.CreateTipRequest{
		ListingID: listingID,
		Amount:    3,
		Message:   strings.Repeat("я", service.MaxTipMessageLength+1),
	})
	assert.True(t, errors.HasCode(err, errors.ErrValidation))
	f.tips.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTipService_PublishFailureDoesNotFail(t *testing.T) {
	f := newTipFixture()
	f.listings.On("GetByID", mock.Anything, listingID).Return(&domain.Listing{ID: listingID, OwnerID: "owner"}, nil)
	f.tips.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishTipEvent", mock.Anything, mock.Anything).Return(errors.New(errors.ErrUnavailable, "broker down"))

	tip, err := f.svc.CreateTip(context.Background(), payer, service.CreateTipRequest{ListingID: listingID, Amount: 5})
	require.NoError(t, err)
	assert.NotNil(t, tip)
}

func TestTipService_CompleteTip(t *testing.T) {
	f := newTipFixture()
	pending := &domain.Tip{ID: tipID, Status: domain.TipPending, Amount: 10}
	completed := &domain.Tip{ID: tipID, Status: domain.TipCompleted, Amount: 10, TransactionID: "tx-1"}

	txID := "tx-1"
	f.tips.On("GetByID", mock.Anything, tipID).Return(pending, nil).Once()
	f.tips.On("Transition", mock.Anything, tipID, domain.TipPending, domain.TipCompleted,
		domain.TipPatch{TransactionID: &txID, UpdatedAt: fixedNow}).Return(completed, nil).Once()
	f.publisher.On("PublishTipEvent", mock.Anything, mock.MatchedBy(func(e *domain.TipEvent) bool {
		return e.Type == domain.TipEventCompleted && e.TransactionID == "tx-1"
	})).Return(nil)

	tip, err := f.svc.CompleteTip(context.Background(), tipID, " tx-1 ")
	require.NoError(t, err)
	assert.Equal(t, domain.TipCompleted, tip.Status)

	// Повторное завершение отклоняется
	f.tips.On("GetByID", mock.Anything, tipID).Return(completed, nil)
	_, err = f.svc.CompleteTip(context.Background(), tipID, "tx-2")
	assert.True(t, errors.HasCode(err, errors.ErrInvalidOperation))

	_, err = f.svc.FailTip(context.Background(), tipID, "late failure")
	assert.True(t, errors.HasCode(err, errors.ErrInvalidOperation))

	f.tips.AssertNumberOfCalls(t, "Transition", 1)
}

func TestTipService_CompleteTipValidation(t *testing.T) {
	f := newTipFixture()

	_, err := f.svc.CompleteTip(context.Background(), tipID, "  ")
	assert.True(t, errors.HasCode(err, errors.ErrValidation))

	f.tips.On("GetByID", mock.Anything, "missing").Return(nil, errors.New(errors.ErrNotFound, "tip not found"))
	_, err = f.svc.CompleteTip(context.Background(), "missing", "tx")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestTipService_FailTipLostRace(t *testing.T) {
	f := newTipFixture()
	f.tips.On("GetByID", mock.Anything, tipID).Return(&domain.Tip{ID: tipID, Status: domain.TipPending}, nil)

	reason := "card declined"
	f.tips.On("Transition", mock.Anything, tipID, domain.TipPending, domain.TipFailed,
		domain.TipPatch{FailureReason: &reason, UpdatedAt: fixedNow}).
		Return(nil, errors.New(errors.ErrInvalidOperation, "tip is not pending"))

	_, err := f.svc.FailTip(context.Background(), tipID, reason)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidOperation))
	f.publisher.AssertNotCalled(t, "PublishTipEvent", mock.Anything, mock.Anything)
}

func TestTipService_GetTip(t *testing.T) {
	tip := &domain.Tip{ID: tipID, FromUserID: "payer", ToUserID: "owner"}

	testCases := []struct {
		name     string
		identity domain.Identity
		allowed  bool
	}{
		{"payer", domain.Identity{UserID: "payer", Role: domain.RoleUser}, true},
		{"payee", domain.Identity{UserID: "owner", Role: domain.RoleUser}, true},
		{"admin", domain.Identity{UserID: "root", Role: domain.RoleAdmin}, true},
		{"stranger", domain.Identity{UserID: "other", Role: domain.RoleUser}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newTipFixture()
			f.tips.On("GetByID", mock.Anything, tipID).Return(tip, nil)

			got, err := f.svc.GetTip(context.Background(), tc.identity, tipID)
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, tip, got)
				return
			}
			assert.True(t, errors.HasCode(err, errors.ErrForbidden))
		})
	}
}

func TestTipService_Totals(t *testing.T) {
	f := newTipFixture()
	f.tips.On("SumAmount", mock.Anything, domain.TipFilter{ListingID: listingID, Status: domain.TipCompleted}).Return(35.75, nil)
	f.tips.On("SumAmount", mock.Anything, domain.TipFilter{FromUserID: "payer", Status: domain.TipCompleted}).Return(0.0, nil)

	total, err := f.svc.TotalForListing(context.Background(), listingID)
	require.NoError(t, err)
	assert.Equal(t, 35.75, total)

	total, err = f.svc.TotalForUser(context.Background(), "payer")
	require.NoError(t, err)
	assert.Zero(t, total)
}
