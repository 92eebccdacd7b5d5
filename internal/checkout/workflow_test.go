package checkout

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway/gatewaytest"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
)

var (
	pngBytes  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegBytes = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
)

type sectionSpy struct {
	mu          sync.Mutex
	invalidated []enums.Section
	activated   []enums.Section
	reloaded    []enums.Section
}

func (s *sectionSpy) Invalidate(sections ...enums.Section) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidated = append(s.invalidated, sections...)
}

func (s *sectionSpy) Activate(section enums.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activated = append(s.activated, section)
	return nil
}

func (s *sectionSpy) Reload(_ context.Context, section enums.Section) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloaded = append(s.reloaded, section)
	return true, nil
}

type fixture struct {
	gw       *gatewaytest.Fake
	store    *readmodel.Store
	spy      *sectionSpy
	rec      *notify.Recorder
	workflow *Workflow
	sellerA  uuid.UUID
	sellerB  uuid.UUID
	lineA    models.CartLine
	lineB    models.CartLine
	address  models.Address
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gw:      gatewaytest.New(),
		store:   readmodel.NewStore(),
		spy:     &sectionSpy{},
		rec:     &notify.Recorder{},
		sellerA: uuid.New(),
		sellerB: uuid.New(),
		address: models.Address{ID: uuid.New(), IsDefault: true},
	}
	f.lineA = models.CartLine{LineID: uuid.New(), SellerID: f.sellerA, SellerName: "Seller A", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2}
	f.lineB = models.CartLine{LineID: uuid.New(), SellerID: f.sellerB, SellerName: "Seller B", UnitPrice: decimal.RequireFromString("3.50"), Quantity: 1}
	f.store.SetCart(models.Cart{Lines: []models.CartLine{f.lineA, f.lineB}})
	f.store.SetAddresses([]models.Address{f.address})

	wf, err := NewWorkflow(WorkflowParams{
		Gateway:  f.gw,
		Store:    f.store,
		Sections: f.spy,
		Notifier: f.rec,
	})
	require.NoError(t, err)
	f.workflow = wf
	require.NoError(t, wf.Open())
	return f
}

func png(t *testing.T) Image {
	t.Helper()
	img, err := NewImage("proof.png", pngBytes)
	require.NoError(t, err)
	return img
}

// toReview walks a direct-transfer session with proofs for every seller to step 4.
func (f *fixture) toReview(t *testing.T) {
	t.Helper()
	wf := f.workflow
	require.NoError(t, wf.Next())
	require.NoError(t, wf.SetPaymentMethod(enums.PaymentMethodDirectTransfer))
	require.NoError(t, wf.AttachProof(f.sellerA, png(t)))
	require.NoError(t, wf.AttachProof(f.sellerB, png(t)))
	require.NoError(t, wf.Next())
	require.NoError(t, wf.CaptureVerification(Image{Name: "id.jpg", Data: jpegBytes}))
	require.NoError(t, wf.Next())
	session, _ := wf.Session()
	require.Equal(t, StepReview, session.Step)
}

func TestOpenPreselectsDefaultAddress(t *testing.T) {
	f := newFixture(t)
	session, ok := f.workflow.Session()
	require.True(t, ok)
	assert.Equal(t, StepAddress, session.Step)
	assert.Equal(t, f.address.ID, session.SelectedAddressID)
	assert.Equal(t, enums.PaymentMethodCashOnDelivery, session.PaymentMethod)
}

func TestOpenRefusesEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.store.SetCart(models.Cart{})
	err := f.workflow.Open()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCannotLeaveAddressStepWithoutAddress(t *testing.T) {
	f := newFixture(t)
	f.store.SetAddresses(nil)
	require.NoError(t, f.workflow.Open())

	err := f.workflow.Next()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "address_id", typed.Field())

	session, _ := f.workflow.Session()
	assert.Equal(t, StepAddress, session.Step)
	assert.NotEmpty(t, session.InlineError)
	assert.Zero(t, f.gw.Calls("PlaceOrder"))
}

func TestSellerProofGateNamesMissingSeller(t *testing.T) {
	f := newFixture(t)
	wf := f.workflow
	require.NoError(t, wf.Next())
	require.NoError(t, wf.SetPaymentMethod(enums.PaymentMethodDirectTransfer))
	require.NoError(t, wf.AttachProof(f.sellerA, png(t)))

	err := wf.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Seller B")
	assert.NotContains(t, pkgerrors.As(err).Message(), "Seller A")
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{f.sellerB.String()}, details["missing_sellers"])

	session, _ := wf.Session()
	assert.Equal(t, StepPayment, session.Step)

	require.NoError(t, wf.AttachProof(f.sellerB, png(t)))
	require.NoError(t, wf.Next())
	session, _ = wf.Session()
	assert.Equal(t, StepVerification, session.Step)
	assert.Empty(t, session.InlineError)
}

func TestCashOnDeliveryNeedsNoProofs(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.workflow.Next())
	require.NoError(t, f.workflow.Next())
	assert.Empty(t, f.workflow.MissingProofs())
}

func TestVerificationGate(t *testing.T) {
	f := newFixture(t)
	wf := f.workflow
	require.NoError(t, wf.Next())
	require.NoError(t, wf.Next())

	err := wf.Next()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	session, _ := wf.Session()
	assert.Equal(t, StepVerification, session.Step)

	require.NoError(t, wf.CaptureVerification(png(t)))
	require.NoError(t, wf.Next())
	session, _ = wf.Session()
	assert.Equal(t, StepReview, session.Step)
}

func TestBackKeepsCollectedData(t *testing.T) {
	f := newFixture(t)
	f.toReview(t)
	require.NoError(t, f.workflow.Back())
	require.NoError(t, f.workflow.Back())

	session, _ := f.workflow.Session()
	assert.Equal(t, StepPayment, session.Step)
	assert.Len(t, session.ProofsBySeller, 2)
	assert.NotNil(t, session.Verification)
}

func TestSubmitSkipsProofForSellerRemovedFromCart(t *testing.T) {
	f := newFixture(t)
	f.toReview(t)
	require.NoError(t, f.workflow.RemoveProof(f.sellerB))
	f.store.SetCart(models.Cart{Lines: []models.CartLine{f.lineA}})

	require.NoError(t, f.workflow.Submit(context.Background()))
	placed := f.gw.PlacedOrders()
	require.Len(t, placed, 1)
	assert.Len(t, placed[0].ProofsBySeller, 1)
	assert.Contains(t, placed[0].ProofsBySeller, f.sellerA)
}

func TestSubmitDropsProofsOfSellersNoLongerInCart(t *testing.T) {
	f := newFixture(t)
	f.toReview(t)
	f.store.SetCart(models.Cart{Lines: []models.CartLine{f.lineA}})

	require.NoError(t, f.workflow.Submit(context.Background()))
	placed := f.gw.PlacedOrders()
	require.Len(t, placed, 1)
	assert.NotContains(t, placed[0].ProofsBySeller, f.sellerB)
}

func TestSubmitRechecksProofsAgainstLiveCart(t *testing.T) {
	f := newFixture(t)
	f.toReview(t)
	sellerC := uuid.New()
	lineC := models.CartLine{LineID: uuid.New(), SellerID: sellerC, SellerName: "Seller C", UnitPrice: decimal.NewFromInt(1), Quantity: 1}
	f.store.SetCart(models.Cart{Lines: []models.CartLine{f.lineA, f.lineB, lineC}})

	err := f.workflow.Submit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Seller C")
	assert.Zero(t, f.gw.Calls("PlaceOrder"))

	session, _ := f.workflow.Session()
	assert.Equal(t, StepReview, session.Step)
	assert.False(t, session.Submitting)
	require.Len(t, f.rec.Kinds(enums.NotificationKindError), 1)
}

func TestSubmitBlockedWhenVerificationClearedOrCartEmptied(t *testing.T) {
	f := newFixture(t)
	f.toReview(t)

	require.NoError(t, f.workflow.ClearVerification())
	assert.True(t, pkgerrors.IsCode(f.workflow.Submit(context.Background()), pkgerrors.CodeValidation))

	require.NoError(t, f.workflow.CaptureVerification(png(t)))
	f.store.SetCart(models.Cart{})
	assert.True(t, pkgerrors.IsCode(f.workflow.Submit(context.Background()), pkgerrors.CodeValidation))
	assert.Zero(t, f.gw.Calls("PlaceOrder"))
}

func TestSuccessfulSubmitResetsSessionAndRefreshesSections(t *testing.T) {
	f := newFixture(t)
	f.toReview(t)
	require.NoError(t, f.workflow.SetInstructions("  leave at the gate  "))

	require.NoError(t, f.workflow.Submit(context.Background()))

	placed := f.gw.PlacedOrders()
	require.Len(t, placed, 1)
	req := placed[0]
	assert.Equal(t, f.address.ID, req.AddressID)
	assert.Equal(t, enums.PaymentMethodDirectTransfer, req.PaymentMethod)
	assert.Equal(t, "leave at the gate", req.SpecialInstructions)
	assert.Equal(t, "image/jpeg", req.Verification.ContentType)
	assert.Len(t, req.Cart.Lines, 2)

	_, open := f.workflow.Session()
	assert.False(t, open)
	assert.ElementsMatch(t, []enums.Section{enums.SectionCart, enums.SectionOrders}, f.spy.invalidated)
	assert.Equal(t, []enums.Section{enums.SectionOrders}, f.spy.activated)
	assert.ElementsMatch(t, []enums.Section{enums.SectionCart, enums.SectionOrders}, f.spy.reloaded)
	require.Len(t, f.rec.Kinds(enums.NotificationKindSuccess), 1)

	require.NoError(t, f.workflow.Open())
	session, _ := f.workflow.Session()
	assert.Equal(t, StepAddress, session.Step)
	assert.Empty(t, session.ProofsBySeller)
	assert.Nil(t, session.Verification)
	assert.Empty(t, session.SpecialInstructions)
}

func TestFailedSubmitKeepsSessionIntact(t *testing.T) {
	f := newFixture(t)
	f.toReview(t)
	before, _ := f.workflow.Session()
	f.gw.PlaceOrderErr = pkgerrors.New(pkgerrors.CodeDependency, "Payment proof rejected").WithField("proofs_by_seller")

	err := f.workflow.Submit(context.Background())
	require.Error(t, err)

	after, open := f.workflow.Session()
	require.True(t, open)
	assert.Equal(t, StepReview, after.Step)
	assert.False(t, after.Submitting)
	assert.Equal(t, before.ProofsBySeller, after.ProofsBySeller)
	assert.Equal(t, before.Verification, after.Verification)
	assert.Equal(t, before.SelectedAddressID, after.SelectedAddressID)
	assert.Empty(t, f.spy.reloaded)

	errs := f.rec.Kinds(enums.NotificationKindError)
	require.Len(t, errs, 1)
	assert.Equal(t, "Payment proof rejected", errs[0].Message)
	assert.Equal(t, "proofs_by_seller", errs[0].Field)
}

func TestSubmitIsNotReentrant(t *testing.T) {
	f := newFixture(t)
	f.toReview(t)
	f.gw.Block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- f.workflow.Submit(context.Background()) }()
	require.Eventually(t, func() bool {
		session, _ := f.workflow.Session()
		return session.Submitting
	}, eventuallyTimeout, eventuallyTick)

	err := f.workflow.Submit(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(f.workflow.Close(), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(f.workflow.RemoveProof(f.sellerA), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(f.workflow.Back(), pkgerrors.CodeStateConflict))

	close(f.gw.Block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.gw.Calls("PlaceOrder"))
}

func TestSellerGroupsFollowLiveCart(t *testing.T) {
	f := newFixture(t)
	groups := f.workflow.SellerGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, f.sellerA, groups[0].SellerID)
	assert.True(t, groups[0].Total.Equal(decimal.RequireFromString("20")))
	assert.Equal(t, 2, groups[0].ItemCount)

	f.store.SetCart(models.Cart{Lines: []models.CartLine{f.lineB}})
	groups = f.workflow.SellerGroups()
	require.Len(t, groups, 1)
	assert.Equal(t, f.sellerB, groups[0].SellerID)
}

func TestAttachProofValidatesImageAndSeller(t *testing.T) {
	f := newFixture(t)
	err := f.workflow.AttachProof(f.sellerA, Image{Name: "notes.txt", Data: []byte("hello there")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = f.workflow.AttachProof(uuid.New(), png(t))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, f.workflow.AttachProof(f.sellerA, Image{Name: "p", ContentType: "text/plain", Data: pngBytes}))
	session, _ := f.workflow.Session()
	assert.Equal(t, "image/png", session.ProofsBySeller[f.sellerA].ContentType)
}

func TestEditsRequireOpenSession(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.workflow.Close())
	assert.True(t, pkgerrors.IsCode(f.workflow.Next(), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(f.workflow.SetInstructions("x"), pkgerrors.CodeStateConflict))
	assert.True(t, pkgerrors.IsCode(f.workflow.Submit(context.Background()), pkgerrors.CodeStateConflict))
}
