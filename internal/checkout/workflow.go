// Package checkout runs the four-step checkout wizard and its single order submission.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/internal/gateway"
	"github.com/angelmondragon/packfinderz-storefront/internal/notify"
	"github.com/angelmondragon/packfinderz-storefront/internal/readmodel"
	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/logger"
	"github.com/angelmondragon/packfinderz-storefront/pkg/metrics"
	"github.com/angelmondragon/packfinderz-storefront/pkg/models"
	"github.com/angelmondragon/packfinderz-storefront/pkg/validation"
)

// MaxInstructionsLength bounds the free-text delivery instructions.
const MaxInstructionsLength = 500

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	guardSubmit    = "submit"
)

type sectionControl interface {
	Invalidate(sections ...enums.Section)
	Activate(section enums.Section) error
	Reload(ctx context.Context, section enums.Section) (bool, error)
}

// WorkflowParams configure the checkout workflow.
type WorkflowParams struct {
	Gateway  gateway.OrderGateway
	Store    *readmodel.Store
	Sections sectionControl
	Notifier notify.Notifier
	Logger   *logger.Logger
	Metrics  *metrics.CheckoutMetrics
}

// Workflow owns the checkout session. Nothing else reads or writes it.
type Workflow struct {
	gw       gateway.OrderGateway
	store    *readmodel.Store
	sections sectionControl
	notifier notify.Notifier
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics

	mu      sync.Mutex
	open    bool
	session Session
}

// NewWorkflow builds a checkout workflow.
func NewWorkflow(params WorkflowParams) (*Workflow, error) {
	if params.Gateway == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("read model store required")
	}
	if params.Sections == nil {
		return nil, fmt.Errorf("section control required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Workflow{
		gw:       params.Gateway,
		store:    params.Store,
		sections: params.Sections,
		notifier: params.Notifier,
		logg:     logg,
		metrics:  params.Metrics,
	}, nil
}

// Open starts a fresh session on the address step, preselecting the default address.
func (w *Workflow) Open() error {
	if w.store.Cart().IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session.Submitting {
		return errSubmitting()
	}
	w.session = newSession()
	if addr, ok := w.store.DefaultAddress(); ok {
		w.session.SelectedAddressID = addr.ID
	}
	w.open = true
	return nil
}

// Close discards the session. It is refused while an order is being submitted.
func (w *Workflow) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session.Submitting {
		return errSubmitting()
	}
	w.open = false
	w.session = Session{}
	return nil
}

func (w *Workflow) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// Session returns a copy of the current session.
func (w *Workflow) Session() (Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.open {
		return Session{}, false
	}
	return w.session.clone(), true
}

func (w *Workflow) SelectAddress(addressID uuid.UUID) error {
	if _, ok := w.store.Address(addressID); !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found").WithField("address_id")
	}
	return w.edit(func(s *Session) error {
		s.SelectedAddressID = addressID
		return nil
	})
}

func (w *Workflow) SetPaymentMethod(method enums.PaymentMethod) error {
	if !method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", method)).WithField("payment_method")
	}
	return w.edit(func(s *Session) error {
		s.PaymentMethod = method
		return nil
	})
}

// AttachProof stores the transfer proof for a seller that currently has lines in the cart.
func (w *Workflow) AttachProof(sellerID uuid.UUID, img Image) error {
	normalized, err := NewImage(img.Name, img.Data)
	if err != nil {
		return err
	}
	if !w.sellerInCart(sellerID) {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller has no items in your cart").WithField("proofs_by_seller")
	}
	return w.edit(func(s *Session) error {
		s.ProofsBySeller[sellerID] = normalized
		return nil
	})
}

func (w *Workflow) RemoveProof(sellerID uuid.UUID) error {
	return w.edit(func(s *Session) error {
		delete(s.ProofsBySeller, sellerID)
		return nil
	})
}

func (w *Workflow) CaptureVerification(img Image) error {
	normalized, err := NewImage(img.Name, img.Data)
	if err != nil {
		return err
	}
	return w.edit(func(s *Session) error {
		s.Verification = &normalized
		return nil
	})
}

func (w *Workflow) ClearVerification() error {
	return w.edit(func(s *Session) error {
		s.Verification = nil
		return nil
	})
}

func (w *Workflow) SetInstructions(text string) error {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > MaxInstructionsLength {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("instructions must be at most %d characters", MaxInstructionsLength)).WithField("special_instructions")
	}
	return w.edit(func(s *Session) error {
		s.SpecialInstructions = text
		return nil
	})
}

// SellerGroups partitions the live cart by seller.
func (w *Workflow) SellerGroups() []SellerGroup {
	return GroupBySeller(w.store.Cart())
}

// MissingProofs lists the sellers in the live cart that still need a transfer proof.
// It is empty when the payment method needs no proofs.
func (w *Workflow) MissingProofs() []SellerGroup {
	w.mu.Lock()
	method := w.session.PaymentMethod
	proofs := w.session.clone().ProofsBySeller
	w.mu.Unlock()
	if !method.RequiresSellerProof() {
		return nil
	}
	return missingProofs(w.SellerGroups(), proofs)
}

// Next advances one step when the current step's guard holds.
func (w *Workflow) Next() error {
	w.mu.Lock()
	if err := w.editableLocked(); err != nil {
		w.mu.Unlock()
		return err
	}
	var guardErr *pkgerrors.Error
	switch w.session.Step {
	case StepAddress:
		guardErr = addressGuard(w.session)
	case StepPayment:
		guardErr = proofGuard(w.session, GroupBySeller(w.store.Cart()))
	case StepVerification:
		guardErr = verificationGuard(w.session)
	default:
		w.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "already on the review step")
	}
	step := w.session.Step
	if guardErr != nil {
		w.session.InlineError = guardErr.Message()
		w.mu.Unlock()
		w.metrics.IncGuardRejection(step.String())
		w.logg.Warn(w.logg.WithField(context.Background(), "step", step.String()), "checkout.guard.rejected")
		return guardErr
	}
	w.session.InlineError = ""
	w.session.Step++
	w.mu.Unlock()
	return nil
}

// Back moves one step back without clearing anything.
func (w *Workflow) Back() error {
	return w.edit(func(s *Session) error {
		if s.Step > StepAddress {
			s.Step--
		}
		s.InlineError = ""
		return nil
	})
}

// Submit places the order. Every guard is checked again against the live cart first,
// and proofs are sent only for sellers still in it.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return errClosed()
	}
	if w.session.Submitting {
		w.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "your order is already being placed")
	}
	if w.session.Step != StepReview {
		w.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeStateConflict, "finish the previous steps first")
	}

	cart := w.store.Cart()
	groups := GroupBySeller(cart)
	guardErr := submitGuard(w.session, groups)
	var req gateway.PlaceOrderRequest
	if guardErr == nil {
		req = buildRequest(w.session, cart, groups)
		if err := validation.Struct(req); err != nil {
			if guardErr = pkgerrors.As(err); guardErr == nil {
				guardErr = pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order details are incomplete")
			}
		}
	}
	if guardErr != nil {
		w.session.InlineError = guardErr.Message()
		w.mu.Unlock()
		w.metrics.IncGuardRejection(guardSubmit)
		w.notifier.Enqueue(notify.FromError(guardErr))
		w.logg.Warn(w.logg.WithField(ctx, "step", guardSubmit), "checkout.guard.rejected")
		return guardErr
	}
	w.session.Submitting = true
	w.session.InlineError = ""
	w.mu.Unlock()

	ctx = w.logg.WithFields(ctx, map[string]any{
		"sellers":        len(groups),
		"payment_method": req.PaymentMethod.String(),
	})
	w.logg.Info(ctx, "checkout.submit.start")
	result, err := w.gw.PlaceOrder(ctx, req)
	if err != nil {
		w.mu.Lock()
		w.session.Submitting = false
		w.session.InlineError = pkgerrors.UserMessage(err)
		w.mu.Unlock()
		w.metrics.IncSubmission(outcomeFailure)
		w.logg.Error(ctx, "checkout.submit.failed", err)
		w.notifier.Enqueue(notify.FromError(err))
		return err
	}

	w.mu.Lock()
	w.session = Session{}
	w.open = false
	w.mu.Unlock()
	w.metrics.IncSubmission(outcomeSuccess)
	w.logg.Info(w.logg.WithField(ctx, "orders", len(result.OrderIDs)), "checkout.submit.complete")

	w.sections.Invalidate(enums.SectionCart, enums.SectionOrders)
	if err := w.sections.Activate(enums.SectionOrders); err != nil {
		w.logg.Warn(ctx, "checkout.activate_orders.failed")
	}
	w.notifier.Enqueue(notify.Notification{Message: placedMessage(len(result.OrderIDs)), Kind: enums.NotificationKindSuccess})
	for _, section := range []enums.Section{enums.SectionCart, enums.SectionOrders} {
		if _, err := w.sections.Reload(ctx, section); err != nil {
			w.logg.Warn(w.logg.WithSection(ctx, section.String()), "checkout.reload.failed")
		}
	}
	return nil
}

func (w *Workflow) edit(fn func(s *Session) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.editableLocked(); err != nil {
		return err
	}
	return fn(&w.session)
}

func (w *Workflow) editableLocked() error {
	if !w.open {
		return errClosed()
	}
	if w.session.Submitting {
		return errSubmitting()
	}
	return nil
}

func (w *Workflow) sellerInCart(sellerID uuid.UUID) bool {
	for _, id := range w.store.Cart().SellerIDs() {
		if id == sellerID {
			return true
		}
	}
	return false
}

func addressGuard(s Session) *pkgerrors.Error {
	if s.SelectedAddressID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "select a delivery address").WithField("address_id")
	}
	return nil
}

func proofGuard(s Session, groups []SellerGroup) *pkgerrors.Error {
	if !s.PaymentMethod.RequiresSellerProof() {
		return nil
	}
	missing := missingProofs(groups, s.ProofsBySeller)
	if len(missing) == 0 {
		return nil
	}
	labels := make([]string, 0, len(missing))
	ids := make([]string, 0, len(missing))
	for _, g := range missing {
		labels = append(labels, g.Label())
		ids = append(ids, g.SellerID.String())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "upload a transfer proof for "+strings.Join(labels, ", ")).
		WithField("proofs_by_seller").
		WithDetails(map[string]any{"missing_sellers": ids})
}

func verificationGuard(s Session) *pkgerrors.Error {
	if s.Verification == nil || s.Verification.empty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "capture your identity verification photo").WithField("verification")
	}
	return nil
}

func submitGuard(s Session, groups []SellerGroup) *pkgerrors.Error {
	if len(groups) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "your cart is empty")
	}
	if err := addressGuard(s); err != nil {
		return err
	}
	if err := verificationGuard(s); err != nil {
		return err
	}
	return proofGuard(s, groups)
}

func buildRequest(s Session, cart models.Cart, groups []SellerGroup) gateway.PlaceOrderRequest {
	req := gateway.PlaceOrderRequest{
		Cart:                cart,
		AddressID:           s.SelectedAddressID,
		PaymentMethod:       s.PaymentMethod,
		Verification:        attachment(*s.Verification),
		SpecialInstructions: s.SpecialInstructions,
	}
	if s.PaymentMethod.RequiresSellerProof() {
		req.ProofsBySeller = make(map[uuid.UUID]gateway.Attachment, len(groups))
		for _, g := range groups {
			if proof, ok := s.ProofsBySeller[g.SellerID]; ok {
				req.ProofsBySeller[g.SellerID] = attachment(proof)
			}
		}
	}
	return req
}

func attachment(img Image) gateway.Attachment {
	return gateway.Attachment{Name: img.Name, ContentType: img.ContentType, Data: img.Data}
}

func placedMessage(orders int) string {
	if orders > 1 {
		return fmt.Sprintf("%d orders placed", orders)
	}
	return "order placed"
}

func errClosed() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not open")
}

func errSubmitting() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "your order is being placed")
}
