package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"icupa-ordering/internal/cart"
	"icupa-ordering/internal/models"
)

var (
	// ErrSubmitInFlight rejects re-entrant Submit calls while a previous
	// submission has not returned.
	ErrSubmitInFlight = errors.New("checkout: submission already in flight")

	// ErrEmptyCart rejects checkout over an empty cart.
	ErrEmptyCart = errors.New("checkout: cart is empty")

	// ErrWrongStep is returned when an action is attempted from a step
	// that does not allow it.
	ErrWrongStep = errors.New("checkout: action not allowed in current step")
)

// ValidationError carries a field-level message so the UI can surface it
// next to the offending input.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Step is one stage of the checkout wizard.
type Step int

const (
	StepCustomerInfo Step = iota
	StepPaymentMethod
	StepConfirmation
)

func (s Step) String() string {
	switch s {
	case StepCustomerInfo:
		return "customer_info"
	case StepPaymentMethod:
		return "payment_method"
	case StepConfirmation:
		return "confirmation"
	}
	return "unknown"
}

// SubmitResult is what a successful submission hands back to the UI.
// RedirectURL is set for wallet and card payments; the caller is expected
// to send the customer there.
type SubmitResult struct {
	Reference   string
	RedirectURL string
}

// OrderSubmitter materializes a cart into a persisted order. A nil result
// with an error means nothing was created and the submission may be retried
// as-is. A non-nil result alongside an error means the order exists but a
// post-creation step (payment setup) failed: the reference is valid and
// resubmitting the cart would duplicate the order.
type OrderSubmitter interface {
	Submit(ctx context.Context, snapshot cart.Snapshot, customer models.CustomerInfo, method models.PaymentMethod) (*SubmitResult, error)
}

// Orchestrator drives the linear customer-info / payment-method /
// confirmation wizard. Forward transitions are guarded by the current
// step's validation; backward navigation is always allowed.
type Orchestrator struct {
	cart      *cart.Store
	submitter OrderSubmitter
	validate  *validator.Validate

	step          Step
	customer      models.CustomerInfo
	method        models.PaymentMethod
	termsAccepted bool
	inFlight      bool
}

// New creates an orchestrator over the given cart.
func New(cartStore *cart.Store, submitter OrderSubmitter) *Orchestrator {
	return &Orchestrator{
		cart:      cartStore,
		submitter: submitter,
		validate:  validator.New(),
		step:      StepCustomerInfo,
	}
}

// Step returns the wizard's current step.
func (o *Orchestrator) Step() Step {
	return o.step
}

// SetCustomerInfo records the customer block. Field formats are checked
// immediately so the UI can surface errors while typing; the step guard in
// Next re-checks the required fields.
func (o *Orchestrator) SetCustomerInfo(info models.CustomerInfo) error {
	if err := o.validate.Struct(info); err != nil {
		return asFieldError(err)
	}
	o.customer = info
	return nil
}

// SelectPaymentMethod records the chosen payment path.
func (o *Orchestrator) SelectPaymentMethod(method models.PaymentMethod) error {
	if !method.Valid() {
		return ValidationError{Field: "payment_method", Message: "unknown payment method"}
	}
	o.method = method
	return nil
}

// AcceptTerms records the terms-acceptance checkbox.
func (o *Orchestrator) AcceptTerms(accepted bool) {
	o.termsAccepted = accepted
}

// Next advances one step forward after passing the current step's guard.
// A guard failure keeps the wizard where it is.
func (o *Orchestrator) Next() error {
	switch o.step {
	case StepCustomerInfo:
		if err := o.guardCustomerInfo(); err != nil {
			return err
		}
		o.step = StepPaymentMethod
	case StepPaymentMethod:
		if err := o.guardPaymentMethod(); err != nil {
			return err
		}
		o.step = StepConfirmation
	case StepConfirmation:
		return ErrWrongStep
	}
	return nil
}

// Back moves one step backward. Going back from the first step is a no-op.
func (o *Orchestrator) Back() {
	if o.step > StepCustomerInfo {
		o.step--
	}
}

// Submit runs the terminal action from the confirmation step. On success
// the cart is cleared and the wizard resets. When nothing was created the
// wizard stays on confirmation and the error is retryable in place; when
// the order was created but its payment setup failed, the cart is cleared
// anyway and the result carries the reference so payment can be retried
// without duplicating the order.
func (o *Orchestrator) Submit(ctx context.Context) (*SubmitResult, error) {
	if o.step != StepConfirmation {
		return nil, ErrWrongStep
	}
	if o.inFlight {
		return nil, ErrSubmitInFlight
	}
	if o.cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	o.inFlight = true
	defer func() { o.inFlight = false }()

	result, err := o.submitter.Submit(ctx, o.cart.Cart(), o.customer, o.method)
	if err != nil {
		if result == nil {
			return nil, fmt.Errorf("order submission failed: %w", err)
		}
		// The order was created; only its payment setup failed. Clear the
		// cart and reset so a retry pays for the existing order instead of
		// submitting a duplicate.
		if clearErr := o.cart.Clear(); clearErr != nil {
			return result, fmt.Errorf("order %s created but cart cleanup failed: %w", result.Reference, clearErr)
		}
		o.reset()
		return result, err
	}

	if err := o.cart.Clear(); err != nil {
		// The order exists; a stale local cart must not hide that.
		return result, fmt.Errorf("order %s created but cart cleanup failed: %w", result.Reference, err)
	}

	o.reset()
	return result, nil
}

func (o *Orchestrator) guardCustomerInfo() error {
	if strings.TrimSpace(o.customer.Name) == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if strings.TrimSpace(o.customer.Phone) == "" {
		return ValidationError{Field: "phone", Message: "phone is required"}
	}
	if !o.customer.HasContact() {
		return ValidationError{Field: "contact", Message: "at least one contact method is required"}
	}
	return nil
}

func (o *Orchestrator) guardPaymentMethod() error {
	if o.method == "" {
		return ValidationError{Field: "payment_method", Message: "a payment method must be selected"}
	}
	if !o.termsAccepted {
		return ValidationError{Field: "terms", Message: "terms must be accepted"}
	}
	return nil
}

func (o *Orchestrator) reset() {
	o.step = StepCustomerInfo
	o.customer = models.CustomerInfo{}
	o.method = ""
	o.termsAccepted = false
}

// asFieldError converts a validator error into the field-level form.
func asFieldError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		field := strings.ToLower(first.Field())

		var message string
		switch first.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", field)
		case "max":
			message = fmt.Sprintf("%s is too long", field)
		case "min":
			message = fmt.Sprintf("%s is too small", field)
		default:
			message = fmt.Sprintf("%s is invalid", field)
		}

		return ValidationError{Field: field, Message: message}
	}
	return err
}
