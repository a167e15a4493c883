package admin_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/payrecon/internal/http/admin"
	"github.com/MrJamesThe3rd/payrecon/internal/payable"
)

func TestClient(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	client := admin.NewClient(srv.URL+"/", f.token)
	ctx := context.Background()

	order := f.seed(payable.KindOrder, payable.StatusPending)

	got, err := client.Record(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, payable.StatusPending, got.Status)

	list, err := client.Records(ctx, payable.KindOrder, payable.StatusPending)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	forced, err := client.ForceTransition(ctx, order.ID, payable.StatusCompleted, "paid in store")
	require.NoError(t, err)
	assert.Equal(t, "applied", forced.Status)
	assert.Equal(t, payable.StatusCompleted, forced.Record.Status)

	ledger, err := client.Ledger(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, "250.00", ledger[0].Amount)

	audit, err := client.Audit(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "ops@example.com", audit[0].Actor)

	err = client.Purge(ctx, order.ID, "duplicate")

	var apiErr *admin.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestClient_DeadLetters(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	client := admin.NewClient(srv.URL, f.token)
	ctx := context.Background()

	letter := f.park(t, "ORDER-later")

	open, err := client.DeadLetters(ctx, "unresolved", false, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, letter.ID, open[0].ID)

	detail, err := client.DeadLetter(ctx, letter.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, detail.Payload)

	f.store.Seed(&payable.Record{
		Kind:              payable.KindOrder,
		ExternalReference: "ORDER-later",
		Status:            payable.StatusPending,
		Amount:            decimal.NewFromInt(250),
		Currency:          "MXN",
	})

	retried, err := client.RetryDeadLetter(ctx, letter.ID)
	require.NoError(t, err)
	assert.NotNil(t, retried.ResolvedAt)

	n, err := client.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := client.DeadLetters(ctx, "", true, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = client.DeadLetter(ctx, uuid.New())

	var apiErr *admin.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
