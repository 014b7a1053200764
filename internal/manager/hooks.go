package manager

import (
	"context"
	"fmt"

	"github.com/oggyb/polysms/internal/domain/message"
	"github.com/oggyb/polysms/internal/hook"
	"github.com/oggyb/polysms/internal/sms"
)

// Hook point names. They are part of the public surface: hosts register
// against them directly on the bus as well as through the Manager.
const (
	// BeforeSmsSent is a filter. It receives the envelope and the gateway
	// name and returns the envelope to send.
	BeforeSmsSent = "polysms.beforeSmsSent"
	// AfterSmsSent is an action. It receives the *sms.Result and the
	// envelope that was sent.
	AfterSmsSent = "polysms.afterSmsSent"
)

// BeforeSmsSentFilter is the capability instance targets must implement to
// be registered through OnBeforeSmsSent.
type BeforeSmsSentFilter interface {
	hook.Handler
	FilterSms(ctx context.Context, msg message.Envelope, gateway string) (message.Envelope, error)
}

// BeforeSmsSentContract is the strict contract applied to instance targets
// of BeforeSmsSent.
var BeforeSmsSentContract = hook.ContractFor[BeforeSmsSentFilter]("polysms.BeforeSmsSentFilter")

// FilterFunc is the typed shape of a before-send filter.
type FilterFunc func(ctx context.Context, msg message.Envelope, gateway string) (message.Envelope, error)

// Filter adapts a FilterFunc into a BeforeSmsSentFilter instance.
type Filter struct {
	fn FilterFunc
}

// NewFilter wraps fn.
func NewFilter(fn FilterFunc) *Filter {
	return &Filter{fn: fn}
}

// FilterSms implements BeforeSmsSentFilter.
func (f *Filter) FilterSms(ctx context.Context, msg message.Envelope, gateway string) (message.Envelope, error) {
	return f.fn(ctx, msg, gateway)
}

// Handle implements hook.Handler.
func (f *Filter) Handle(ctx context.Context, args ...any) (any, error) {
	msg, gateway, err := FilterArgs(args)
	if err != nil {
		return nil, err
	}
	return f.FilterSms(ctx, msg, gateway)
}

// FilterArgs unpacks the arguments the bus passes to a BeforeSmsSent entry.
// Custom BeforeSmsSentFilter types use it in their Handle method.
func FilterArgs(args []any) (message.Envelope, string, error) {
	if len(args) < 1 {
		return nil, "", fmt.Errorf("%s: missing envelope argument: %w", BeforeSmsSent, hook.ErrHookValidation)
	}
	msg, ok := args[0].(message.Envelope)
	if !ok {
		return nil, "", fmt.Errorf("%s: got %T, want message.Envelope: %w", BeforeSmsSent, args[0], hook.ErrHookValidation)
	}
	var gateway string
	if len(args) > 1 {
		gateway, _ = args[1].(string)
	}
	return msg, gateway, nil
}

// ActionFunc is the typed shape of an after-send action.
type ActionFunc func(ctx context.Context, result *sms.Result, msg message.Envelope) error

// Action adapts an ActionFunc into a hook.Handler.
type Action struct {
	fn ActionFunc
}

// NewAction wraps fn.
func NewAction(fn ActionFunc) *Action {
	return &Action{fn: fn}
}

// Handle implements hook.Handler.
func (a *Action) Handle(ctx context.Context, args ...any) (any, error) {
	result, msg := ActionArgs(args)
	if result == nil {
		return nil, fmt.Errorf("%s: missing result argument: %w", AfterSmsSent, hook.ErrHookValidation)
	}
	return nil, a.fn(ctx, result, msg)
}

// ActionArgs unpacks the arguments the bus passes to an AfterSmsSent entry.
func ActionArgs(args []any) (*sms.Result, message.Envelope) {
	var (
		result *sms.Result
		msg    message.Envelope
	)
	if len(args) > 0 {
		result, _ = args[0].(*sms.Result)
	}
	if len(args) > 1 {
		msg, _ = args[1].(message.Envelope)
	}
	return result, msg
}
