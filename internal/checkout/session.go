package checkout

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

// Step is a position in the checkout wizard.
type Step int

const (
	StepAddress Step = iota + 1
	StepPayment
	StepVerification
	StepReview
)

func (s Step) String() string {
	switch s {
	case StepAddress:
		return "address"
	case StepPayment:
		return "payment"
	case StepVerification:
		return "verification"
	case StepReview:
		return "review"
	default:
		return "unknown"
	}
}

// Session is the transient state collected while checkout is open.
type Session struct {
	Step                Step
	SelectedAddressID   uuid.UUID
	PaymentMethod       enums.PaymentMethod
	ProofsBySeller      map[uuid.UUID]Image
	Verification        *Image
	SpecialInstructions string
	Submitting          bool
	// InlineError is the last guard failure shown at the current step.
	InlineError string
}

func newSession() Session {
	return Session{
		Step:           StepAddress,
		PaymentMethod:  enums.PaymentMethodCashOnDelivery,
		ProofsBySeller: map[uuid.UUID]Image{},
	}
}

func (s Session) clone() Session {
	out := s
	out.ProofsBySeller = make(map[uuid.UUID]Image, len(s.ProofsBySeller))
	for k, v := range s.ProofsBySeller {
		out.ProofsBySeller[k] = v
	}
	if s.Verification != nil {
		v := *s.Verification
		out.Verification = &v
	}
	return out
}
