package matching_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/payrecon/internal/event"
	"github.com/MrJamesThe3rd/payrecon/internal/matching"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
	"github.com/MrJamesThe3rd/payrecon/internal/provider"
)

func TestService_Locate(t *testing.T) {
	recA := &payable.Record{ID: uuid.New(), ExternalReference: "ref-1"}
	recB := &payable.Record{ID: uuid.New(), ExternalReference: "ref-2"}

	type testCase struct {
		name         string
		ev           *event.Event
		setupMock    func(repo *matching.MockRepository, res *matching.MockResolver)
		wantTier     matching.Tier
		wantRecord   *payable.Record
		wantResolved string
		wantErr      error
		wantAmbig    bool
	}

	tests := []testCase{
		{
			name: "BoundPaymentIDWins",
			ev:   &event.Event{ProviderPaymentID: "pay-1", ExternalReference: "ref-2"},
			setupMock: func(repo *matching.MockRepository, _ *matching.MockResolver) {
				repo.EXPECT().FindByProviderPaymentID(gomock.Any(), "pay-1").Return([]*payable.Record{recA}, nil)
			},
			wantTier:   matching.TierPaymentID,
			wantRecord: recA,
		},
		{
			name: "FallsBackToReference",
			ev:   &event.Event{ProviderPaymentID: "pay-1", ExternalReference: "ref-1"},
			setupMock: func(repo *matching.MockRepository, _ *matching.MockResolver) {
				repo.EXPECT().FindByProviderPaymentID(gomock.Any(), "pay-1").Return(nil, nil)
				repo.EXPECT().FindByExternalReference(gomock.Any(), "ref-1").Return([]*payable.Record{recA}, nil)
			},
			wantTier:   matching.TierReference,
			wantRecord: recA,
		},
		{
			name: "FallsBackToProvider",
			ev:   &event.Event{ProviderPaymentID: "pay-9", MerchantOrderID: "mo-1"},
			setupMock: func(repo *matching.MockRepository, res *matching.MockResolver) {
				repo.EXPECT().FindByProviderPaymentID(gomock.Any(), "pay-9").Return(nil, nil)
				res.EXPECT().ResolveReference(gomock.Any(), gomock.Any()).Return("ref-2", nil)
				repo.EXPECT().FindByExternalReference(gomock.Any(), "ref-2").Return([]*payable.Record{recB}, nil)
			},
			wantTier:     matching.TierIndirection,
			wantRecord:   recB,
			wantResolved: "ref-2",
		},
		{
			name: "AmbiguousPaymentID",
			ev:   &event.Event{ProviderPaymentID: "pay-1"},
			setupMock: func(repo *matching.MockRepository, _ *matching.MockResolver) {
				repo.EXPECT().FindByProviderPaymentID(gomock.Any(), "pay-1").Return([]*payable.Record{recA, recB}, nil)
			},
			wantAmbig: true,
		},
		{
			name: "AmbiguousReferenceStopsBeforeProvider",
			ev:   &event.Event{ProviderPaymentID: "pay-1", ExternalReference: "ref-1"},
			setupMock: func(repo *matching.MockRepository, _ *matching.MockResolver) {
				repo.EXPECT().FindByProviderPaymentID(gomock.Any(), "pay-1").Return(nil, nil)
				repo.EXPECT().FindByExternalReference(gomock.Any(), "ref-1").Return([]*payable.Record{recA, recB}, nil)
			},
			wantAmbig: true,
		},
		{
			name: "NoIndirection",
			ev:   &event.Event{ProviderPaymentID: "pay-9"},
			setupMock: func(repo *matching.MockRepository, res *matching.MockResolver) {
				repo.EXPECT().FindByProviderPaymentID(gomock.Any(), "pay-9").Return(nil, nil)
				res.EXPECT().ResolveReference(gomock.Any(), gomock.Any()).Return("", provider.ErrNoIndirection)
			},
			wantErr: matching.ErrLookupFailed,
		},
		{
			name: "ResolvedReferenceUnknown",
			ev:   &event.Event{ProviderPaymentID: "pay-9", MerchantOrderID: "mo-1"},
			setupMock: func(repo *matching.MockRepository, res *matching.MockResolver) {
				repo.EXPECT().FindByProviderPaymentID(gomock.Any(), "pay-9").Return(nil, nil)
				res.EXPECT().ResolveReference(gomock.Any(), gomock.Any()).Return("ref-404", nil)
				repo.EXPECT().FindByExternalReference(gomock.Any(), "ref-404").Return(nil, nil)
			},
			wantErr: matching.ErrNotFound,
		},
		{
			name: "RepositoryError",
			ev:   &event.Event{ProviderPaymentID: "pay-1"},
			setupMock: func(repo *matching.MockRepository, _ *matching.MockResolver) {
				repo.EXPECT().FindByProviderPaymentID(gomock.Any(), "pay-1").Return(nil, errors.New("conn refused"))
			},
			wantErr: errors.New("conn refused"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := matching.NewMockRepository(ctrl)
			res := matching.NewMockResolver(ctrl)
			tt.setupMock(repo, res)

			got, err := matching.NewService(repo, res).Locate(context.Background(), tt.ev)

			if tt.wantAmbig {
				var amb *matching.AmbiguousMatchError
				require.True(t, errors.As(err, &amb))
				assert.ElementsMatch(t, []uuid.UUID{recA.ID, recB.ID}, amb.RecordIDs)
				assert.Nil(t, got)

				return
			}

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)

				if errors.Is(tt.wantErr, matching.ErrNotFound) || errors.Is(tt.wantErr, matching.ErrLookupFailed) {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, got.Tier)
			assert.Same(t, tt.wantRecord, got.Record)
			assert.Equal(t, tt.wantResolved, got.ResolvedReference)
		})
	}
}

func TestService_LocateWithoutResolver(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := matching.NewMockRepository(ctrl)
	repo.EXPECT().FindByExternalReference(gomock.Any(), "ref-x").Return(nil, nil)

	_, err := matching.NewService(repo, nil).Locate(context.Background(), &event.Event{ExternalReference: "ref-x"})
	assert.ErrorIs(t, err, matching.ErrNotFound)
}

func TestAmbiguousMatchError_Message(t *testing.T) {
	id := uuid.MustParse("8b0f1c1e-1111-4a4a-9d9d-000000000001")
	err := &matching.AmbiguousMatchError{Tier: matching.TierReference, Key: "ref-1", RecordIDs: []uuid.UUID{id}}

	assert.Contains(t, err.Error(), "external_reference")
	assert.Contains(t, err.Error(), id.String())
}
