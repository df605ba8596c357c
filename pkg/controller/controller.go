package controller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/crypto"
	"github.com/sharego/core/pkg/protocol"
	"github.com/sharego/core/pkg/session"
	"github.com/sharego/core/pkg/transport"
)

// Options configures a Controller.
type Options struct {
	LoggerFactory logging.LoggerFactory
}

// Controller is the UI-facing façade: it holds at most one live Session,
// maintains the single mutable Snapshot, and fans updates out to
// subscribers. See spec.md §4.5.
type Controller struct {
	mu       sync.Mutex
	log      logging.LeveledLogger
	sess     *session.Session
	snap     Snapshot
	starting bool

	nextListenerID int
	listeners      map[int]func(Snapshot)
}

// New creates an idle Controller with no session.
func New(opts Options) *Controller {
	c := &Controller{listeners: map[int]func(Snapshot){}}
	if opts.LoggerFactory != nil {
		c.log = opts.LoggerFactory.NewLogger("controller")
	}
	return c
}

// Subscribe registers fn to receive a fresh Snapshot after every
// mutation, including one immediately with the current snapshot. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextListenerID
	c.nextListenerID++
	c.listeners[id] = fn
	snap := c.snap.clone()
	c.mu.Unlock()

	c.safeCall(fn, snap)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Snapshot returns the current snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.clone()
}

// safeCall invokes fn, recovering and logging any panic rather than
// letting one subscriber's bug take down the others or the caller.
func (c *Controller) safeCall(fn func(Snapshot), snap Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			if c.log != nil {
				c.log.Warnf("controller: listener panicked: %v", r)
			}
		}
	}()
	fn(snap)
}

// publish stores snap as the current snapshot and notifies every
// subscriber with a clone. It takes c.mu itself, so the caller must not
// hold it; listeners run after it is released.
func (c *Controller) publish(snap Snapshot) {
	c.mu.Lock()
	c.snap = snap
	fns := make([]func(Snapshot), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		c.safeCall(fn, snap.clone())
	}
}

// cleanup detaches and closes any live session. It leaves the snapshot
// as it is; callers publish the snapshot that should follow.
func (c *Controller) cleanup() {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()

	if sess != nil {
		sess.Close()
	}
}

// StartReceiver begins a new pairing attempt in the receiver role: a
// fresh Session listens on tr via port, and on success the controller
// publishes a Snapshot carrying the bootstrap QR payload. Re-entrant
// calls while a start is already in flight are logged and ignored, per
// spec.md §4.5.
func (c *Controller) StartReceiver(ctx context.Context, tr *transport.Transport, cfg session.Config, port int) error {
	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		if c.log != nil {
			c.log.Warnf("controller: StartReceiver called while a start is already in flight")
		}
		return nil
	}
	c.starting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	c.cleanup()

	sid, err := crypto.GenerateSessionId()
	if err != nil {
		return err
	}

	sess := session.New(session.RoleReceiver, config.SessionId(sid), session.Listeners{}, cfg)
	sess.AttachListeners(c.listenersFor(sess))

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	if err := sess.StartAsReceiver(ctx, tr, port); err != nil {
		c.cleanup()
		c.publish(Snapshot{State: session.StateClosed, Error: err})
		return err
	}

	c.mu.Lock()
	current := c.sess == sess
	c.mu.Unlock()
	if !current {
		return nil
	}

	pk, _ := sess.PublicKey()
	bootstrapTTL := cfg.BootstrapTTL
	if bootstrapTTL == 0 {
		bootstrapTTL = config.BootstrapTTL
	}

	qr := &protocol.QrPayload{
		V:    config.ProtocolVersion,
		Sid:  sess.Id(),
		Addr: config.NetworkAddress(tr.LocalAddress()),
		PK:   pk,
		Exp:  int(bootstrapTTL / time.Second),
	}
	qrStr, err := encodeQrPayload(qr)
	if err != nil {
		return err
	}

	c.publish(Snapshot{
		State:        sess.State(),
		SessionId:    sess.Id(),
		QrPayload:    qrStr,
		LocalAddress: tr.LocalAddress(),
	})
	return nil
}

// StartSender begins a new pairing attempt in the sender role, dialing
// addr via tr. sid is the session id read from the QR code or typed by
// the user; receiverPk, if known from the QR payload, skips learning it
// from CHALLENGE.
func (c *Controller) StartSender(ctx context.Context, tr *transport.Transport, cfg session.Config, addr config.NetworkAddress, receiverPk *[crypto.PublicKeyLength]byte, sid config.SessionId) error {
	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		if c.log != nil {
			c.log.Warnf("controller: StartSender called while a start is already in flight")
		}
		return nil
	}
	c.starting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
	}()

	c.cleanup()

	sess := session.New(session.RoleSender, sid, session.Listeners{}, cfg)
	sess.AttachListeners(c.listenersFor(sess))

	c.mu.Lock()
	c.sess = sess
	c.mu.Unlock()

	if err := sess.StartAsSender(ctx, tr, addr, receiverPk); err != nil {
		c.cleanup()
		c.publish(Snapshot{State: session.StateClosed, Error: err})
		return err
	}

	c.mu.Lock()
	current := c.sess == sess
	c.mu.Unlock()
	if !current {
		return nil
	}

	c.publish(Snapshot{State: sess.State(), SessionId: sess.Id()})
	return nil
}

// ApprovePairing approves the session's pending pairing request.
func (c *Controller) ApprovePairing() error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}
	return sess.ApprovePairing()
}

// RejectPairing rejects the session's pending pairing request.
func (c *Controller) RejectPairing(reason string) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}
	return sess.RejectPairing(reason)
}

// SendData encrypts and sends text, appending a SentItem to the
// snapshot's SentItems.
func (c *Controller) SendData(text string) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return ErrNoSession
	}

	seq, err := sess.SendData([]byte(text))
	if err != nil {
		return err
	}

	item := Item{ID: uuid.NewString(), Seq: seq, Text: text, Timestamp: timeNow()}

	c.mu.Lock()
	snap := c.snap.clone()
	snap.SentItems = append(snap.SentItems, item)
	c.mu.Unlock()

	c.publish(snap)
	return nil
}

// EndSession closes the live session and clears it from the snapshot.
func (c *Controller) EndSession() error {
	c.cleanup()
	c.publish(Snapshot{})
	return nil
}

// Destroy closes any live session and clears all listeners.
func (c *Controller) Destroy() {
	c.cleanup()
	c.mu.Lock()
	c.listeners = map[int]func(Snapshot){}
	c.mu.Unlock()
}

// listenersFor builds the session.Listeners table that translates
// session events into snapshot mutations for sess specifically; it
// checks identity before applying an update so a superseded session's
// late callbacks are dropped.
func (c *Controller) listenersFor(sess *session.Session) session.Listeners {
	isCurrent := func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.sess == sess
	}

	return session.Listeners{
		OnStateChanged: func(st session.State) {
			if !isCurrent() {
				return
			}
			c.mu.Lock()
			snap := c.snap.clone()
			c.mu.Unlock()
			snap.State = st
			if st == session.StateActive {
				snap.PairingRequest = nil
			}
			c.publish(snap)
		},
		OnPairingRequest: func(req session.PairingRequest) {
			if !isCurrent() {
				return
			}
			c.mu.Lock()
			snap := c.snap.clone()
			c.mu.Unlock()
			reqCopy := req
			snap.PairingRequest = &reqCopy
			c.publish(snap)
		},
		OnDataReceived: func(data []byte) {
			if !isCurrent() {
				return
			}
			item := Item{ID: uuid.NewString(), Text: string(data), Timestamp: timeNow()}
			c.mu.Lock()
			snap := c.snap.clone()
			c.mu.Unlock()
			snap.ReceivedItems = append(snap.ReceivedItems, item)
			c.publish(snap)
		},
		OnDataAcknowledged: func(seq config.SequenceNumber) {
			if !isCurrent() {
				return
			}
			c.mu.Lock()
			snap := c.snap.clone()
			c.mu.Unlock()
			for i := range snap.SentItems {
				if snap.SentItems[i].Seq == seq {
					snap.SentItems[i].Acked = true
				}
			}
			c.publish(snap)
		},
		OnError: func(err error) {
			if !isCurrent() {
				return
			}
			c.mu.Lock()
			snap := c.snap.clone()
			c.mu.Unlock()
			snap.Error = err
			c.publish(snap)
		},
	}
}

// timeNow is a thin indirection so tests can stub the clock if needed;
// production always uses the wall clock.
var timeNow = time.Now
