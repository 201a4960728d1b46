package gallery

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"clipshare/internal/config"
	"clipshare/internal/domain"
	"clipshare/internal/metrics"

	"go.uber.org/zap"
)

// ErrDiscarded is returned for toggles whose view closed before they settled.
var ErrDiscarded = errors.New("view closed before toggle settled")

// Policy bounds remote calls and the undo of a half-applied toggle.
type Policy struct {
	CompensationAttempts int
	CompensationBackoff  time.Duration
	RemoteTimeout        time.Duration
}

func PolicyFromConfig(cfg config.ReconcilerConfig) Policy {
	return Policy{
		CompensationAttempts: cfg.CompensationAttempts,
		CompensationBackoff:  cfg.CompensationBackoff,
		RemoteTimeout:        cfg.RemoteTimeout,
	}
}

// Result is how one toggle settled.
type Result struct {
	Intent    domain.ToggleIntent `json:"intent"`
	State     domain.ToggleState  `json:"-"`
	Member    bool                `json:"member"`
	LikeCount int64               `json:"like_count"`
	Changed   bool                `json:"changed"`
	Err       error               `json:"-"`
}

// Reconciler turns toggle intents into remote writes with optimistic local state.
// One Reconciler (and its queue) can serve any number of views.
type Reconciler struct {
	backend Backend
	queue   *KeyedQueue
	policy  Policy
	log     *zap.Logger
	metrics *metrics.Metrics

	bg sync.WaitGroup
}

func NewReconciler(backend Backend, queue *KeyedQueue, policy Policy, log *zap.Logger) *Reconciler {
	if queue == nil {
		queue = NewKeyedQueue()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if policy.CompensationAttempts < 1 {
		policy.CompensationAttempts = 1
	}
	return &Reconciler{
		backend: backend,
		queue:   queue,
		policy:  policy,
		log:     log,
		metrics: metrics.Get(),
	}
}

// Toggle flips the relation relative to the latest intent submitted on the view.
func (r *Reconciler) Toggle(ctx context.Context, v *View, itemID string, rel domain.Relation) (Result, error) {
	res := <-r.submit(ctx, v, domain.ToggleIntent{ItemID: itemID, Relation: rel}, true)
	return res, res.Err
}

// Apply submits the intent and waits for it to settle.
func (r *Reconciler) Apply(ctx context.Context, v *View, intent domain.ToggleIntent) (Result, error) {
	res := <-r.Submit(ctx, v, intent)
	return res, res.Err
}

// Submit reserves the intent's place in its key's queue and settles it in the
// background. The returned channel yields exactly one Result.
func (r *Reconciler) Submit(ctx context.Context, v *View, intent domain.ToggleIntent) <-chan Result {
	return r.submit(ctx, v, intent, false)
}

func (r *Reconciler) submit(ctx context.Context, v *View, intent domain.ToggleIntent, flip bool) <-chan Result {
	out := make(chan Result, 1)
	k := toggleKey{intent.ItemID, intent.Relation}
	if flip {
		intent.Target = v.nextTarget(k)
	}

	if !intent.Relation.Valid() {
		out <- Result{Intent: intent, Err: domain.E(domain.KindInvalid, "toggle", fmt.Errorf("unknown relation %q", intent.Relation))}
		return out
	}

	session := v.Session()
	if !session.Authenticated() {
		v.notifier.Notify(signInNotice(intent.Relation))
		r.metrics.ToggleOutcomes.WithLabelValues(string(intent.Relation), "unauthenticated").Inc()
		out <- Result{
			Intent:    intent,
			State:     v.State(intent.ItemID, intent.Relation),
			Member:    v.IsMember(intent.ItemID, intent.Relation),
			LikeCount: v.likeCount(intent.ItemID),
			Err:       domain.E(domain.KindUnauthenticated, "toggle", nil),
		}
		return out
	}

	if _, ok := v.Item(intent.ItemID); !ok {
		out <- Result{Intent: intent, Err: domain.E(domain.KindNotFound, "toggle", fmt.Errorf("item %s is not in view", intent.ItemID))}
		return out
	}

	var ticket *Ticket
	intent.Target, ticket = v.reserve(k, intent.Target, flip, func() *Ticket {
		return r.queue.Enqueue(queueKey(session.UserID, k))
	})

	go func() {
		defer v.finished(k)
		defer ticket.Done()
		out <- r.run(ctx, v, ticket, intent)
	}()
	return out
}

// Wait blocks until background owner notifications have been handed off.
func (r *Reconciler) Wait() {
	r.bg.Wait()
}

func queueKey(userID string, k toggleKey) string {
	return userID + "|" + k.itemID + "|" + string(k.rel)
}

func (r *Reconciler) run(ctx context.Context, v *View, ticket *Ticket, intent domain.ToggleIntent) Result {
	start := time.Now()
	rel := intent.Relation
	k := toggleKey{intent.ItemID, rel}

	ctx, stop := bindToView(ctx, v)
	defer stop()

	if err := ticket.Wait(ctx); err != nil {
		return r.abandoned(v, intent, err)
	}

	a := v.begin(k, intent.Target)
	if a.noop {
		r.metrics.ToggleOutcomes.WithLabelValues(string(rel), "noop").Inc()
		return r.result(v, intent, false, nil)
	}

	err := r.mutate(ctx, v.Session().UserID, intent)
	r.metrics.ToggleDuration.WithLabelValues(string(rel)).Observe(time.Since(start).Seconds())

	if v.Closed() {
		r.log.Debug("discarding toggle result for closed view",
			zap.String("item_id", intent.ItemID),
			zap.String("relation", string(rel)),
			zap.Error(err),
		)
		r.metrics.ToggleOutcomes.WithLabelValues(string(rel), "discarded").Inc()
		return Result{Intent: intent, Err: ErrDiscarded}
	}

	switch {
	case err == nil:
		v.confirm(a)
		r.metrics.ToggleOutcomes.WithLabelValues(string(rel), "success").Inc()
		if n := settledNotice(rel, intent.Target); n != nil {
			v.notifier.Notify(*n)
		}
		if rel == domain.RelationLiked && intent.Target {
			r.notifyOwner(ctx, v, intent.ItemID)
		}
		return r.result(v, intent, true, nil)

	case errors.Is(err, domain.ErrDuplicateMembership), errors.Is(err, domain.ErrMissingMembership):
		v.alreadySettled(a)
		r.metrics.ToggleOutcomes.WithLabelValues(string(rel), "already_settled").Inc()
		return r.result(v, intent, false, nil)

	default:
		v.rollback(a)
		v.notifier.Notify(failureNotice(rel))
		r.metrics.ToggleOutcomes.WithLabelValues(string(rel), "rollback").Inc()
		r.log.Warn("toggle rolled back",
			zap.String("user_id", v.Session().UserID),
			zap.String("item_id", intent.ItemID),
			zap.String("relation", string(rel)),
			zap.Bool("target", intent.Target),
			zap.Error(err),
		)
		return r.result(v, intent, false, domain.E(domain.KindRemoteMutation, "toggle "+string(rel), err))
	}
}

func (r *Reconciler) abandoned(v *View, intent domain.ToggleIntent, err error) Result {
	if v.Closed() {
		r.metrics.ToggleOutcomes.WithLabelValues(string(intent.Relation), "discarded").Inc()
		return Result{Intent: intent, Err: ErrDiscarded}
	}
	return r.result(v, intent, false, domain.E(domain.KindRemoteMutation, "toggle "+string(intent.Relation), err))
}

func (r *Reconciler) result(v *View, intent domain.ToggleIntent, changed bool, err error) Result {
	return Result{
		Intent:    intent,
		State:     v.State(intent.ItemID, intent.Relation),
		Member:    v.IsMember(intent.ItemID, intent.Relation),
		LikeCount: v.likeCount(intent.ItemID),
		Changed:   changed,
		Err:       err,
	}
}

// mutate writes the membership row and, for likes, the counter. The two calls
// are one logical step: a failed counter call undoes the membership write.
func (r *Reconciler) mutate(ctx context.Context, userID string, intent domain.ToggleIntent) error {
	if err := r.writeMembership(ctx, userID, intent.ItemID, intent.Relation, intent.Target); err != nil {
		return err
	}
	if !intent.Relation.AdjustsCounter() {
		return nil
	}

	delta := 1
	if !intent.Target {
		delta = -1
	}
	cctx, cancel := r.callContext(ctx)
	err := r.backend.AdjustCounter(cctx, intent.ItemID, delta)
	cancel()
	if err == nil {
		return nil
	}

	r.compensate(ctx, userID, intent)
	return fmt.Errorf("adjust counter: %w", err)
}

func (r *Reconciler) writeMembership(ctx context.Context, userID, itemID string, rel domain.Relation, member bool) error {
	cctx, cancel := r.callContext(ctx)
	defer cancel()
	if member {
		return r.backend.InsertMembership(cctx, userID, itemID, rel)
	}
	return r.backend.DeleteMembership(cctx, userID, itemID, rel)
}

// compensate reverses a membership write whose counter call failed. It keeps
// trying after the view closes; what it cannot undo is logged as drift.
func (r *Reconciler) compensate(ctx context.Context, userID string, intent domain.ToggleIntent) {
	ctx = context.WithoutCancel(ctx)
	rel := string(intent.Relation)

	var err error
	for attempt := 1; attempt <= r.policy.CompensationAttempts; attempt++ {
		err = r.writeMembership(ctx, userID, intent.ItemID, intent.Relation, !intent.Target)
		if err == nil || errors.Is(err, domain.ErrDuplicateMembership) || errors.Is(err, domain.ErrMissingMembership) {
			r.metrics.CompensationRetries.WithLabelValues(rel, "success").Inc()
			return
		}
		r.metrics.CompensationRetries.WithLabelValues(rel, "failure").Inc()

		if attempt < r.policy.CompensationAttempts && r.policy.CompensationBackoff > 0 {
			time.Sleep(r.policy.CompensationBackoff * time.Duration(attempt))
		}
	}

	r.metrics.CompensationDrift.WithLabelValues(rel).Inc()
	r.log.Error("membership and counter drifted apart",
		zap.String("user_id", userID),
		zap.String("item_id", intent.ItemID),
		zap.String("relation", rel),
		zap.Bool("membership_written", intent.Target),
		zap.Int("attempts", r.policy.CompensationAttempts),
		zap.Error(err),
	)
}

func (r *Reconciler) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.policy.RemoteTimeout > 0 {
		return context.WithTimeout(ctx, r.policy.RemoteTimeout)
	}
	return context.WithCancel(ctx)
}

// notifyOwner tells the item's owner about a new like without holding up the toggle.
func (r *Reconciler) notifyOwner(ctx context.Context, v *View, itemID string) {
	item, ok := v.Item(itemID)
	session := v.Session()
	if !ok || item.OwnerID == "" || item.OwnerID == session.UserID {
		return
	}

	who := session.Username
	if who == "" {
		who = "Alguém"
	}
	message := fmt.Sprintf("%s curtiu sua imagem \"%s\"", who, item.Title)

	ctx = context.WithoutCancel(ctx)
	r.bg.Add(1)
	go func() {
		defer r.bg.Done()
		cctx, cancel := r.callContext(ctx)
		defer cancel()
		if err := r.backend.CreateNotification(cctx, item.OwnerID, message, "like"); err != nil {
			r.log.Warn("failed to create like notification",
				zap.String("owner_id", item.OwnerID),
				zap.String("item_id", itemID),
				zap.Error(err),
			)
		}
	}()
}

// bindToView cancels ctx when the view closes.
func bindToView(ctx context.Context, v *View) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
