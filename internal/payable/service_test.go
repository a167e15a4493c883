package payable_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

func validOrder() payable.CreateParams {
	return payable.CreateParams{
		Kind:       payable.KindOrder,
		CheckoutID: "chk-1",
		Amount:     decimal.RequireFromString("349.90"),
		Currency:   "mxn",
		Customer:   payable.Customer{Email: "ana@example.com", Name: "Ana"},
	}
}

func TestService_Create(t *testing.T) {
	type args struct {
		params payable.CreateParams
	}

	type testCase struct {
		name      string
		args      args
		setupMock func(m *payable.MockRepository)
		wantRef   string
		wantErr   error
	}

	existing := &payable.Record{
		ID:                uuid.New(),
		Kind:              payable.KindOrder,
		ExternalReference: "ORDER-chk-1",
		Status:            payable.StatusPending,
		Amount:            decimal.RequireFromString("349.9"),
		Currency:          "MXN",
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{params: validOrder()},
			setupMock: func(m *payable.MockRepository) {
				m.EXPECT().
					CreateRecord(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, rec *payable.Record) error {
						assert.Equal(t, payable.StatusPending, rec.Status)
						assert.Equal(t, "MXN", rec.Currency)
						assert.Empty(t, rec.BillingInterval)
						rec.ID = uuid.New()
						return nil
					})
			},
			wantRef: "ORDER-chk-1",
		},
		{
			name: "RetriedCheckoutReturnsExisting",
			args: args{params: validOrder()},
			setupMock: func(m *payable.MockRepository) {
				m.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).Return(payable.ErrDuplicateReference)
				m.EXPECT().GetRecordByReference(gomock.Any(), "ORDER-chk-1").Return(existing, nil)
			},
			wantRef: "ORDER-chk-1",
		},
		{
			name: "CheckoutReusedWithDifferentAmount",
			args: args{params: func() payable.CreateParams {
				p := validOrder()
				p.Amount = decimal.NewFromInt(10)
				return p
			}()},
			setupMock: func(m *payable.MockRepository) {
				m.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).Return(payable.ErrDuplicateReference)
				m.EXPECT().GetRecordByReference(gomock.Any(), "ORDER-chk-1").Return(existing, nil)
			},
			wantErr: payable.ErrReferenceAlreadyBound,
		},
		{
			name: "SubscriptionNeedsInterval",
			args: args{params: func() payable.CreateParams {
				p := validOrder()
				p.Kind = payable.KindSubscription
				return p
			}()},
			wantErr: payable.ErrInvalidRecord,
		},
		{
			name: "MissingEmail",
			args: args{params: func() payable.CreateParams {
				p := validOrder()
				p.Customer.Email = " "
				return p
			}()},
			wantErr: payable.ErrInvalidRecord,
		},
		{
			name: "RepoError",
			args: args{params: validOrder()},
			setupMock: func(m *payable.MockRepository) {
				m.EXPECT().CreateRecord(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			wantErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := payable.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			svc := payable.NewService(repo)
			got, err := svc.Create(context.Background(), tt.args.params)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Nil(t, got)

				if errors.Is(tt.wantErr, payable.ErrInvalidRecord) || errors.Is(tt.wantErr, payable.ErrReferenceAlreadyBound) {
					assert.ErrorIs(t, err, tt.wantErr)
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, got.ExternalReference)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestReference(t *testing.T) {
	assert.Equal(t, "SUB-chk-9", payable.Reference(payable.KindSubscription, "chk-9"))
	assert.Equal(t, "ORDER-chk-9", payable.Reference(payable.KindOrder, "chk-9"))

	a := payable.Reference(payable.KindOrder, "")
	b := payable.Reference(payable.KindOrder, "")
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "ORDER-")
}

func TestService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	filter := payable.ListFilter{Status: new(payable.StatusPending)}

	repo := payable.NewMockRepository(ctrl)
	repo.EXPECT().ListRecords(gomock.Any(), filter).Return([]*payable.Record{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	got, err := payable.NewService(repo).List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestService_Purge(t *testing.T) {
	id := uuid.New()

	type testCase struct {
		name      string
		status    payable.Status
		setupMock func(tx *payable.MockApplyTx)
		wantErr   error
	}

	tests := []testCase{
		{
			name:   "PurgesDuplicate",
			status: payable.StatusPending,
			setupMock: func(tx *payable.MockApplyTx) {
				tx.EXPECT().LedgerCount(gomock.Any()).Return(0, nil)
				tx.EXPECT().AppendAudit(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, e *payable.AuditEntry) error {
						assert.Equal(t, payable.AuditPurge, e.Action)
						assert.Equal(t, "ops@shop", e.Actor)
						return nil
					})
				tx.EXPECT().Delete(gomock.Any()).Return(nil)
				tx.EXPECT().Commit().Return(nil)
			},
		},
		{
			name:    "RefusesSettled",
			status:  payable.StatusCompleted,
			wantErr: payable.ErrPurgeRefused,
		},
		{
			name:   "RefusesWithLedger",
			status: payable.StatusCancelled,
			setupMock: func(tx *payable.MockApplyTx) {
				tx.EXPECT().LedgerCount(gomock.Any()).Return(2, nil)
			},
			wantErr: payable.ErrPurgeRefused,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			tx := payable.NewMockApplyTx(ctrl)
			tx.EXPECT().Record().Return(&payable.Record{ID: id, Status: tt.status, UpdatedAt: time.Now()})
			tx.EXPECT().Rollback().Return(nil)

			if tt.setupMock != nil {
				tt.setupMock(tx)
			}

			repo := payable.NewMockRepository(ctrl)
			repo.EXPECT().BeginApply(gomock.Any(), id).Return(tx, nil)

			err := payable.NewService(repo).Purge(context.Background(), id, "ops@shop", "duplicate of ORDER-chk-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_PurgeNeedsReason(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	err := payable.NewService(payable.NewMockRepository(ctrl)).Purge(context.Background(), uuid.New(), "ops", "")
	assert.ErrorIs(t, err, payable.ErrInvalidRecord)
}

func TestInterval_Advance(t *testing.T) {
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), payable.IntervalMonth.Advance(start))
	assert.Equal(t, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC), payable.IntervalYear.Advance(start))
	assert.True(t, payable.KindSubscription.Allows(payable.StatusActive))
	assert.False(t, payable.KindOrder.Allows(payable.StatusActive))
}
