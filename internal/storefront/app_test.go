package storefront

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway/gatewaytest"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/scheduler"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
)

type fixture struct {
	gw     *gatewaytest.Fake
	sched  *scheduler.Manual
	rec    *notify.Recorder
	app    *App
	lineID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{gw: gatewaytest.New(), sched: scheduler.NewManual(), rec: &notify.Recorder{}, lineID: uuid.New()}
	f.gw.SetCart(models.Cart{Lines: []models.CartLine{{
		LineID:     f.lineID,
		ProductID:  uuid.New(),
		SellerID:   uuid.New(),
		SellerName: "Green Leaf",
		UnitPrice:  decimal.RequireFromString("12.50"),
		Quantity:   2,
	}}})
	f.gw.Addresses = []models.Address{{ID: uuid.New(), Recipient: "Ada", IsDefault: true}}

	app, err := New(Params{
		Gateway:    f.gw,
		Notifier:   f.rec,
		Registerer: prometheus.NewRegistry(),
		Scheduler:  f.sched,
	})
	require.NoError(t, err)
	f.app = app
	return f
}

func TestNewRequiresGatewayAndNotifier(t *testing.T) {
	_, err := New(Params{Notifier: &notify.Recorder{}})
	assert.Error(t, err)
	_, err = New(Params{Gateway: gatewaytest.New()})
	assert.Error(t, err)
}

func TestEverySectionIsRegistered(t *testing.T) {
	f := newFixture(t)
	snapshot := f.app.Sections.Snapshot()
	require.Len(t, snapshot, 6)
	for _, status := range snapshot {
		assert.Equal(t, enums.LoadStatusUnloaded, status.Status, status.Section)
	}
}

func TestNavigateShopLoadsProductsAndCart(t *testing.T) {
	f := newFixture(t)
	f.gw.Products = []models.Product{{ID: uuid.New(), Name: "Gummies"}}

	ran, err := f.app.Navigate(context.Background(), enums.SectionShop)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.True(t, f.app.Sections.CanRender(enums.SectionShop))
	assert.Len(t, f.app.Store.Products(), 1)
	assert.Equal(t, 2, f.app.Store.Cart().ItemCount())
}

func TestOpenCheckoutFlushesPendingQuantityFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.app.Navigate(ctx, enums.SectionCart)
	require.NoError(t, err)

	require.NoError(t, f.app.Cart.UpdateQuantity(ctx, f.lineID, 1))
	require.True(t, f.sched.Pending(f.lineID.String()))

	require.NoError(t, f.app.OpenCheckout(ctx))

	assert.False(t, f.sched.Pending(f.lineID.String()))
	require.Len(t, f.gw.Quantities(), 1)
	assert.Equal(t, 3, f.gw.Quantities()[0].Quantity)

	session, open := f.app.Checkout.Session()
	require.True(t, open)
	assert.Equal(t, f.gw.Addresses[0].ID, session.SelectedAddressID)
	groups := f.app.Checkout.SellerGroups()
	require.Len(t, groups, 1)
	assert.True(t, groups[0].Total.Equal(decimal.RequireFromString("37.50")))
}

func TestOpenCheckoutOnEmptyCartFails(t *testing.T) {
	f := newFixture(t)
	f.gw.SetCart(models.Cart{})
	_, err := f.app.Navigate(context.Background(), enums.SectionCart)
	require.NoError(t, err)

	assert.Error(t, f.app.OpenCheckout(context.Background()))
	assert.False(t, f.app.Checkout.IsOpen())
}
