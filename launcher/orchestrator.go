// Package launcher drives a validated deeplink through metadata composition, call encoding, gas
// estimation and submission, and exposes the resulting transaction state.
//
// The Orchestrator owns its State. Callers observe it through [WithObserver] or [Orchestrator.State]
// and never mutate it.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"golang.org/x/sync/errgroup"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
	"github.com/cogni-dao/proposal-launcher/deeplink"
	"github.com/cogni-dao/proposal-launcher/metadata"
	"github.com/cogni-dao/proposal-launcher/pkg/logger"
	"github.com/cogni-dao/proposal-launcher/proposal"
)

var (
	// ErrNotReady is returned by Submit when params, client or sender are missing.
	ErrNotReady = errors.New("submission preconditions not met")
	// ErrWrongChain is returned by Submit when the active chain is not the chain the deeplink
	// requires. Nothing is uploaded, encoded or estimated.
	ErrWrongChain = errors.New("wallet is connected to the wrong chain")
	// ErrInFlight is returned by Submit while a previous submission is pending.
	ErrInFlight = errors.New("a submission is already pending")
)

// MetadataComposer composes and pins proposal metadata. It never fails; see metadata.Composer.
type MetadataComposer interface {
	ComposeAndUpload(ctx context.Context, in metadata.Input) metadata.Result
}

var _ MetadataComposer = (*metadata.Composer)(nil)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithComposer sets the metadata composer. Kinds that need metadata are not ready without one.
func WithComposer(c MetadataComposer) Option {
	return func(o *Orchestrator) {
		o.composer = c
	}
}

// WithLogger sets the logger.
func WithLogger(lggr logger.Logger) Option {
	return func(o *Orchestrator) {
		o.lggr = lggr
	}
}

// WithClock overrides the clock used for proposal timing.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithObserver registers an observer of state transitions.
func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observers = append(o.observers, fn)
	}
}

// WithEncodeOptions passes options to the kind's action encoder.
func WithEncodeOptions(opts ...proposal.EncodeOption) Option {
	return func(o *Orchestrator) {
		o.encodeOpts = append(o.encodeOpts, opts...)
	}
}

// WithMetrics records submission outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// Orchestrator submits one deeplink's transaction. It may be re-triggered after it reached a
// terminal state.
type Orchestrator struct {
	def    proposal.Definition
	params deeplink.Params
	chain  evm.Chain

	composer   MetadataComposer
	lggr       logger.Logger
	now        func() time.Time
	encodeOpts []proposal.EncodeOption
	metrics    *Metrics
	observers  []Observer

	mu    sync.Mutex
	state State
}

// New returns an Orchestrator in StateIdle for params validated against def.
func New(def proposal.Definition, params deeplink.Params, chain evm.Chain, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		def:    def,
		params: params,
		chain:  chain,
		lggr:   logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.lggr = o.lggr.Named("launcher")

	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Ready reports whether Submit would start a submission, and why not. The active chain is the one
// the client reported when the chain was connected; Ready does no I/O.
func (o *Orchestrator) Ready() error {
	if len(o.params) == 0 || o.def.Kind == "" {
		return fmt.Errorf("%w: no validated params", ErrNotReady)
	}
	if !o.chain.Ready() {
		return fmt.Errorf("%w: no client or sender account", ErrNotReady)
	}
	if o.def.NeedsMetadata() && o.composer == nil {
		return fmt.Errorf("%w: no metadata composer", ErrNotReady)
	}

	required, err := o.def.ChainID(o.params)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	if !evm.IsCorrectChain(o.chain.ChainID, required) {
		return fmt.Errorf("%w: connected to %s, deeplink requires %s",
			ErrWrongChain, o.chain, evm.ChainName(required))
	}

	return nil
}

// Submit runs the pipeline: metadata and actions, proposal timing, gas estimation, then a single
// transaction carrying exactly the estimated calldata, then confirmation when the chain has a
// confirm function.
//
// Precondition failures return ErrNotReady or ErrWrongChain without touching the state or doing
// any I/O. Pipeline errors move the state to StateFailed and are returned as a *Failure.
func (o *Orchestrator) Submit(ctx context.Context) error {
	if err := o.Ready(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.state.Kind == StatePending {
		o.mu.Unlock()
		return ErrInFlight
	}
	o.state = State{Kind: StatePending}
	o.mu.Unlock()
	o.notify(State{Kind: StatePending})

	o.lggr.Infow("Submitting", "kind", o.def.Kind, "chain", o.chain.String(), "sender", o.chain.Sender.From.Hex())

	tx, block, err := o.run(ctx)
	if err != nil {
		failure := Classify(err)
		next := State{Kind: StateFailed, Failure: failure}
		if tx != nil {
			next.TxHash = tx.Hash()
		}
		o.lggr.Errorw("Submission failed", "kind", o.def.Kind, "category", failure.Category, "err", err)
		o.metrics.observe(o.def.Kind, StateFailed)
		o.transition(next)

		return failure
	}

	o.lggr.Infow("Submission succeeded", "kind", o.def.Kind, "tx", tx.Hash().Hex(), "block", block)
	o.metrics.observe(o.def.Kind, StateSuccess)
	o.transition(State{Kind: StateSuccess, TxHash: tx.Hash(), Block: block})

	return nil
}

// run executes the pipeline. The returned transaction is non-nil once it was sent.
func (o *Orchestrator) run(ctx context.Context) (*types.Transaction, uint64, error) {
	var (
		meta    metadata.Result
		actions []proposal.Action
	)

	// Metadata and actions are independent; the call that embeds both is built after both finish.
	g, gctx := errgroup.WithContext(ctx)
	if o.def.NeedsMetadata() {
		g.Go(func() error {
			meta = o.composer.ComposeAndUpload(gctx, o.def.Metadata(o.params))
			return nil
		})
	}
	g.Go(func() error {
		var err error
		actions, err = o.def.Encode(o.params, o.encodeOpts...)

		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, &StageError{Stage: StageEncode, Err: err}
	}

	var metaBytes []byte
	if o.def.NeedsMetadata() {
		b, err := meta.Bytes()
		if err != nil {
			return nil, 0, &StageError{Stage: StageEncode, Err: err}
		}
		metaBytes = b
	}

	timing := proposal.NewTiming(o.now())
	call := o.def.Call(o.params, metaBytes, actions, timing)
	spec := evm.CallSpec{
		From:   o.chain.Sender.From,
		To:     call.To,
		ABI:    call.ABI,
		Method: call.Method,
		Args:   call.Args,
	}

	// Packed once; estimation and submission use the same bytes.
	data, err := spec.Calldata()
	if err != nil {
		return nil, 0, &StageError{Stage: StageEncode, Err: err}
	}

	plan, err := evm.EstimateCalldata(ctx, o.chain.Client, spec, data)
	if err != nil {
		return nil, 0, &StageError{Stage: StageEstimate, Err: err}
	}
	o.lggr.Debugw("Estimated gas", "estimate", plan.Estimate, "withBuffer", plan.WithBuffer, "gasLimit", plan.Capped)

	tx, err := o.send(ctx, spec, data, plan)
	if err != nil {
		return nil, 0, &StageError{Stage: StageSubmit, Err: err}
	}

	if o.chain.Confirm == nil {
		return tx, 0, nil
	}

	block, err := o.chain.Confirm(tx)
	if err != nil {
		return tx, 0, &StageError{Stage: StageConfirm, Err: err}
	}

	return tx, block, nil
}

// send signs and sends data with the capped gas limit. The gas limit is set so the binding does
// not estimate again.
func (o *Orchestrator) send(ctx context.Context, spec evm.CallSpec, data []byte, plan evm.GasPlan) (*types.Transaction, error) {
	opts := *o.chain.Sender
	opts.Context = ctx
	opts.From = spec.From
	opts.GasLimit = plan.Capped
	opts.Value = spec.Value

	contract := bind.NewBoundContract(spec.To, spec.ABI, o.chain.Client, o.chain.Client, o.chain.Client)

	tx, err := contract.RawTransact(&opts, data)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s to %s: %w", spec.Method, spec.To.Hex(), err)
	}

	return tx, nil
}

func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()

	o.notify(s)
}

func (o *Orchestrator) notify(s State) {
	for _, fn := range o.observers {
		fn(s)
	}
}
