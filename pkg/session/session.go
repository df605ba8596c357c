package session

import (
	"context"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/crypto"
	"github.com/sharego/core/pkg/protocol"
	"github.com/sharego/core/pkg/transport"
	"github.com/sharego/core/pkg/zeroize"
)

// closeFlushDelay is how long Close waits after writing a CLOSE frame
// before tearing down the transport, so the frame has time to reach the
// peer. Distinct from config.RebindDelay, which governs listener rebind
// retries, not message flush.
const closeFlushDelay = 200 * time.Millisecond

// Config configures a new Session.
type Config struct {
	// DeviceName is sent in this side's HELLO (sender role only).
	DeviceName string

	// BootstrapTTL overrides config.BootstrapTTL. Zero means use the default.
	BootstrapTTL time.Duration

	// SessionTTL overrides config.SessionTTL. Zero means use the default.
	SessionTTL time.Duration

	LoggerFactory logging.LoggerFactory
}

// Session is a single pairing attempt's state machine. It owns its
// keypair, derived encryption key, challenge nonce, peer public key,
// transport handle, and listener set exclusively; see the Data Model
// ownership rules this mirrors.
type Session struct {
	mu  sync.Mutex
	log logging.LeveledLogger

	id    config.SessionId
	role  Role
	state State

	deviceName     string
	keyPair        *crypto.KeyPair
	encryptionKey  [crypto.KeyLength]byte
	hasKey         bool
	peerPublicKey  [crypto.PublicKeyLength]byte
	hasPeerKey     bool
	challengeNonce [32]byte
	peerDeviceName string
	helloReceived  bool

	outboundSeq    config.SequenceNumber
	highestSeenSeq config.SequenceNumber

	createdAt    time.Time
	bootstrapTtl time.Duration
	sessionTtl   time.Duration

	transport *transport.Transport
	listeners Listeners
}

// New creates a Session in StateCreated. It does not touch the network;
// call StartAsReceiver or StartAsSender to begin the handshake.
func New(role Role, id config.SessionId, listeners Listeners, cfg Config) *Session {
	bootstrapTTL := cfg.BootstrapTTL
	if bootstrapTTL == 0 {
		bootstrapTTL = config.BootstrapTTL
	}
	sessionTTL := cfg.SessionTTL
	if sessionTTL == 0 {
		sessionTTL = config.SessionTTL
	}

	s := &Session{
		id:           id,
		role:         role,
		state:        StateCreated,
		deviceName:   cfg.DeviceName,
		bootstrapTtl: bootstrapTTL,
		sessionTtl:   sessionTTL,
		createdAt:    time.Now(),
		listeners:    listeners,
	}
	if cfg.LoggerFactory != nil {
		s.log = cfg.LoggerFactory.NewLogger("session")
	}
	return s
}

// AttachListeners replaces the session's listener table. Intended for
// an owning controller to wire up snapshot translation right after
// New, before StartAsReceiver/StartAsSender is called.
func (s *Session) AttachListeners(l Listeners) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = l
}

// Id returns the session's identifier.
func (s *Session) Id() config.SessionId { return s.id }

// Role returns whether this session is acting as sender or receiver.
func (s *Session) Role() Role { return s.role }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// PublicKey returns this side's base64 X25519 public key, and false if
// the keypair has not been generated yet.
func (s *Session) PublicKey() (config.Base64PublicKey, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keyPair == nil {
		return "", false
	}
	return config.Base64PublicKey(crypto.ToBase64(s.keyPair.PublicKey[:])), true
}

// transitionLocked validates and applies a state change, firing
// StateChanged asynchronously so listeners never run while s.mu is
// held. Caller holds s.mu.
func (s *Session) transitionLocked(to State) error {
	if !canTransition(s.state, to) {
		return ErrInvalidTransition
	}
	s.state = to
	listeners := s.listeners
	go listeners.fireStateChanged(to)
	return nil
}

// mustNextSeqLocked returns the next outbound sequence number, or false
// if the counter has already reached MaxSequenceNumber. Caller holds s.mu.
func (s *Session) mustNextSeqLocked() (config.SequenceNumber, bool) {
	if s.outboundSeq >= config.MaxSequenceNumber {
		return 0, false
	}
	s.outboundSeq++
	return s.outboundSeq, true
}

func (s *Session) isExpiredLocked() bool {
	return time.Since(s.createdAt) > s.sessionTtl
}

func (s *Session) isBootstrapExpiredLocked() bool {
	return time.Since(s.createdAt) > s.bootstrapTtl
}

// acceptSeqLocked applies the replay/ordering rule to an inbound frame:
// a seq at or behind highestSeenSeq is a silent duplicate, a seq too far
// ahead closes the session. Caller holds s.mu; on a closing gap the
// teardown itself runs after s.mu is released by the invoking goroutine.
func (s *Session) acceptSeqLocked(seq config.SequenceNumber) bool {
	if seq <= s.highestSeenSeq {
		return false
	}
	if uint32(seq)-uint32(s.highestSeenSeq) > config.MaxSeqGap {
		listeners := s.listeners
		go func() {
			listeners.fireError(ErrSequenceGapTooLarge)
			s.teardown(false)
		}()
		return false
	}
	s.highestSeenSeq = seq
	return true
}

// StartAsReceiver generates a keypair, wires the transport, and listens
// on port. If a concurrent Close superseded this session while Listen
// was in flight, it returns ErrSuperseded without transitioning further.
func (s *Session) StartAsReceiver(ctx context.Context, tr *transport.Transport, port int) error {
	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.keyPair = kp
	s.transport = tr
	s.mu.Unlock()

	tr.OnData(s.handleInbound)
	tr.OnStateChange(s.handleTransportState)

	if _, err := tr.Listen(port); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrSuperseded
	}
	return s.transitionLocked(StateWaitingForSender)
}

// StartAsSender generates a keypair, connects to addr, and sends HELLO.
// receiverPk, if non-nil, is the receiver's public key already known
// from the QR payload; otherwise it is learned from CHALLENGE.
func (s *Session) StartAsSender(ctx context.Context, tr *transport.Transport, addr config.NetworkAddress, receiverPk *[crypto.PublicKeyLength]byte) error {
	s.mu.Lock()
	if s.state != StateCreated {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.keyPair = kp
	s.transport = tr
	if receiverPk != nil {
		s.peerPublicKey = *receiverPk
		s.hasPeerKey = true
	}
	s.mu.Unlock()

	tr.OnData(s.handleInbound)
	tr.OnStateChange(s.handleTransportState)

	if err := tr.Connect(ctx, addr); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err := s.transitionLocked(StateHandshaking); err != nil {
		s.mu.Unlock()
		return err
	}
	seq, ok := s.mustNextSeqLocked()
	if !ok {
		s.mu.Unlock()
		return ErrSequenceOverflow
	}
	pk := s.keyPair.PublicKey
	devName := s.deviceName
	peer := s.transport
	s.mu.Unlock()

	data, err := protocol.EncodeMessage(protocol.Hello(s.id, seq, config.Base64PublicKey(crypto.ToBase64(pk[:])), devName))
	if err != nil {
		return err
	}
	return peer.Send(data)
}

// ApprovePairing moves a PendingApproval session to Active and sends ACCEPT.
func (s *Session) ApprovePairing() error {
	s.mu.Lock()
	if s.state != StatePendingApproval {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if err := s.transitionLocked(StateActive); err != nil {
		s.mu.Unlock()
		return err
	}
	seq, ok := s.mustNextSeqLocked()
	if !ok {
		s.mu.Unlock()
		return ErrSequenceOverflow
	}
	tr := s.transport
	s.mu.Unlock()

	data, err := protocol.EncodeMessage(protocol.Accept(s.id, seq))
	if err != nil {
		return err
	}
	if tr == nil {
		return ErrNoTransport
	}
	return tr.Send(data)
}

// RejectPairing sends REJECT with reason, moves to Rejected, then tears
// down the session.
func (s *Session) RejectPairing(reason string) error {
	s.mu.Lock()
	if s.state != StatePendingApproval {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	tr := s.transport
	if seq, ok := s.mustNextSeqLocked(); ok && tr != nil {
		if data, err := protocol.EncodeMessage(protocol.Reject(s.id, seq, reason)); err == nil {
			tr.Send(data)
		}
	}
	if err := s.transitionLocked(StateRejected); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.teardown(false)
	return nil
}

// SendData encrypts plaintext under the session key and sends it as a
// binary DATA frame, returning the sequence number assigned to it.
func (s *Session) SendData(plaintext []byte) (config.SequenceNumber, error) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return 0, ErrNotActive
	}
	seq, ok := s.mustNextSeqLocked()
	if !ok {
		s.mu.Unlock()
		return 0, ErrSequenceOverflow
	}
	key := s.encryptionKey
	tr := s.transport
	s.mu.Unlock()

	if tr == nil {
		return 0, ErrNoTransport
	}

	env, err := crypto.Encrypt(plaintext, key[:])
	if err != nil {
		return 0, err
	}

	frame := &protocol.DataFrame{Seq: seq, Nonce: env.Nonce, Ciphertext: env.Ciphertext}
	if err := tr.Send(protocol.EncodeDataFrame(frame)); err != nil {
		return 0, err
	}
	return seq, nil
}

// Close idempotently tears down the session: if the transport is still
// connected, it writes a CLOSE frame and schedules cleanup after a short
// flush window; otherwise cleanup runs immediately.
func (s *Session) Close() error {
	s.teardown(true)
	return nil
}

// teardown moves the session to Closed, optionally writing a CLOSE
// frame first, then zeroizes secret state. Called directly for a plain
// close/expiry/disconnect, and after an explicit transition to Rejected
// for the rejection paths.
func (s *Session) teardown(sendCloseFrame bool) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	tr := s.transport
	connected := tr != nil && tr.State() == transport.StateConnected

	if sendCloseFrame && connected {
		if seq, ok := s.mustNextSeqLocked(); ok {
			if data, err := protocol.EncodeMessage(protocol.Close(s.id, seq)); err == nil {
				tr.Send(data)
			}
		}
	}
	s.transitionLocked(StateClosed)
	s.mu.Unlock()

	if sendCloseFrame && connected {
		go func() {
			time.Sleep(closeFlushDelay)
			s.cleanup()
		}()
		return
	}
	s.cleanup()
}

// cleanup zeroizes all secret buffers, releases the transport, and
// clears the listener set. Safe to call once state is already Closed.
func (s *Session) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keyPair != nil {
		zeroize.Array32(&s.keyPair.SecretKey)
	}
	zeroize.Array32(&s.encryptionKey)
	zeroize.Array32(&s.challengeNonce)
	zeroize.Array32(&s.peerPublicKey)
	s.hasKey = false
	s.hasPeerKey = false

	if s.transport != nil {
		s.transport.Close()
		s.transport = nil
	}
	s.listeners = Listeners{}
}

func (s *Session) handleTransportState(st transport.State) {
	if st != transport.StateDisconnected {
		return
	}

	s.mu.Lock()
	if s.state == StateRejected || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	listeners := s.listeners
	s.mu.Unlock()

	listeners.fireError(ErrTransportDisconnected)
	s.teardown(false)
}

// handleInbound is the transport's DataHandler: it applies the expiry
// check before any decoding, then dispatches on first-byte frame kind.
func (s *Session) handleInbound(data []byte) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	if s.isExpiredLocked() {
		listeners := s.listeners
		s.mu.Unlock()
		listeners.fireError(ErrSessionExpired)
		s.teardown(false)
		return
	}
	s.mu.Unlock()

	switch protocol.ClassifyFrame(data) {
	case protocol.FrameControl:
		s.handleControlFrame(data)
	case protocol.FrameData:
		s.handleDataFrame(data)
	default:
		// Unrecognized first byte: dropped per the frame discrimination rule.
	}
}

func (s *Session) handleControlFrame(data []byte) {
	msg, err := protocol.DecodeMessage(data)
	if err != nil {
		s.mu.Lock()
		listeners := s.listeners
		s.mu.Unlock()
		listeners.fireError(err)
		return
	}

	s.mu.Lock()
	if msg.Sid != s.id {
		s.mu.Unlock()
		return
	}
	if !s.acceptSeqLocked(msg.Seq) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	switch msg.Type {
	case protocol.MessageHello:
		s.onHello(msg)
	case protocol.MessageChallenge:
		s.onChallenge(msg)
	case protocol.MessageAuth:
		s.onAuth(msg)
	case protocol.MessageAccept:
		s.onAccept()
	case protocol.MessageReject:
		s.onReject()
	case protocol.MessageAck:
		s.onAck(msg)
	case protocol.MessageClose:
		s.teardown(false)
	}
}

func (s *Session) handleDataFrame(data []byte) {
	frame, err := protocol.DecodeDataFrame(data)
	if err != nil {
		return
	}

	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	if !s.acceptSeqLocked(frame.Seq) {
		s.mu.Unlock()
		return
	}
	key := s.encryptionKey
	s.mu.Unlock()

	plaintext, err := crypto.DecryptRaw(frame.Nonce[:], frame.Ciphertext, key[:])
	if err != nil {
		s.mu.Lock()
		listeners := s.listeners
		s.mu.Unlock()
		listeners.fireError(err)
		return
	}

	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()
	listeners.fireDataReceived(plaintext)

	s.sendAck(frame.Seq)
}

func (s *Session) sendAck(ackSeq config.SequenceNumber) {
	s.mu.Lock()
	tr := s.transport
	seq, ok := s.mustNextSeqLocked()
	s.mu.Unlock()
	if tr == nil || !ok {
		return
	}

	data, err := protocol.EncodeMessage(protocol.Ack(s.id, seq, ackSeq))
	if err != nil {
		return
	}
	tr.Send(data)
}

// onHello handles the receiver's first (and only accepted) HELLO.
func (s *Session) onHello(msg *protocol.Message) {
	s.mu.Lock()
	if s.role != RoleReceiver || s.helloReceived {
		s.mu.Unlock()
		return
	}

	pkBytes, err := crypto.FromBase64(string(msg.PK))
	if err != nil || len(pkBytes) != crypto.PublicKeyLength {
		s.mu.Unlock()
		return
	}

	if s.isBootstrapExpiredLocked() {
		listeners := s.listeners
		s.mu.Unlock()
		listeners.fireError(ErrBootstrapExpired)
		s.teardown(false)
		return
	}

	s.helloReceived = true
	copy(s.peerPublicKey[:], pkBytes)
	s.hasPeerKey = true
	s.peerDeviceName = msg.DeviceName

	key, err := crypto.DeriveSharedKey(s.keyPair, s.peerPublicKey[:], true)
	if err != nil {
		s.mu.Unlock()
		return
	}
	s.encryptionKey = key
	s.hasKey = true

	nonce, err := crypto.GenerateNonce32()
	if err != nil {
		s.mu.Unlock()
		return
	}
	s.challengeNonce = nonce

	if err := s.transitionLocked(StateHandshaking); err != nil {
		s.mu.Unlock()
		return
	}
	seq, ok := s.mustNextSeqLocked()
	if !ok {
		s.mu.Unlock()
		return
	}
	pk := s.keyPair.PublicKey
	tr := s.transport
	s.mu.Unlock()

	data, err := protocol.EncodeMessage(protocol.Challenge(
		s.id, seq,
		config.Base64Nonce(crypto.ToBase64(nonce[:])),
		config.Base64PublicKey(crypto.ToBase64(pk[:])),
	))
	if err != nil {
		return
	}
	tr.Send(data)
}

// onChallenge handles the sender's receipt of CHALLENGE.
func (s *Session) onChallenge(msg *protocol.Message) {
	s.mu.Lock()
	if s.role != RoleSender || s.state != StateHandshaking {
		s.mu.Unlock()
		return
	}

	if !s.hasPeerKey {
		pkBytes, err := crypto.FromBase64(string(msg.PK))
		if err != nil || len(pkBytes) != crypto.PublicKeyLength {
			s.mu.Unlock()
			return
		}
		copy(s.peerPublicKey[:], pkBytes)
		s.hasPeerKey = true
	}

	nonceBytes, err := crypto.FromBase64(string(msg.Nonce))
	if err != nil || len(nonceBytes) != 32 {
		s.mu.Unlock()
		return
	}

	key, err := crypto.DeriveSharedKey(s.keyPair, s.peerPublicKey[:], false)
	if err != nil {
		s.mu.Unlock()
		return
	}
	s.encryptionKey = key
	s.hasKey = true

	seq, ok := s.mustNextSeqLocked()
	if !ok {
		s.mu.Unlock()
		return
	}
	tr := s.transport
	s.mu.Unlock()

	env, err := crypto.Encrypt(nonceBytes, key[:])
	if err != nil {
		return
	}
	proof := make([]byte, 0, len(env.Nonce)+len(env.Ciphertext))
	proof = append(proof, env.Nonce[:]...)
	proof = append(proof, env.Ciphertext...)

	data, err := protocol.EncodeMessage(protocol.Auth(s.id, seq, config.Base64Proof(crypto.ToBase64(proof))))
	if err != nil {
		return
	}
	tr.Send(data)
}

// onAuth handles the receiver's verification of the sender's proof.
func (s *Session) onAuth(msg *protocol.Message) {
	s.mu.Lock()
	if s.role != RoleReceiver || s.state != StateHandshaking {
		s.mu.Unlock()
		return
	}

	proofBytes, err := crypto.FromBase64(string(msg.Proof))
	valid := err == nil && len(proofBytes) >= crypto.NonceLength+crypto.AEADTagLength

	var plaintext []byte
	if valid {
		nonce := proofBytes[:crypto.NonceLength]
		ciphertext := proofBytes[crypto.NonceLength:]
		plaintext, err = crypto.DecryptRaw(nonce, ciphertext, s.encryptionKey[:])
		valid = err == nil
	}
	if valid {
		valid = crypto.ConstantTimeEqual(plaintext, s.challengeNonce[:])
	}

	if !valid {
		tr := s.transport
		if seq, ok := s.mustNextSeqLocked(); ok && tr != nil {
			if data, encErr := protocol.EncodeMessage(protocol.Reject(s.id, seq, "authentication failed")); encErr == nil {
				tr.Send(data)
			}
		}
		listeners := s.listeners
		if err := s.transitionLocked(StateRejected); err != nil {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		listeners.fireError(ErrAuthenticationFailed)
		s.teardown(false)
		return
	}

	if err := s.transitionLocked(StatePendingApproval); err != nil {
		s.mu.Unlock()
		return
	}
	req := PairingRequest{DeviceName: s.peerDeviceName, PeerPublicKey: s.peerPublicKey}
	listeners := s.listeners
	s.mu.Unlock()

	listeners.firePairingRequest(req)
}

func (s *Session) onAccept() {
	s.mu.Lock()
	if s.role != RoleSender || s.state != StateHandshaking {
		s.mu.Unlock()
		return
	}
	s.transitionLocked(StateActive)
	s.mu.Unlock()
}

func (s *Session) onReject() {
	s.mu.Lock()
	if s.state != StateHandshaking && s.state != StatePendingApproval {
		s.mu.Unlock()
		return
	}
	if err := s.transitionLocked(StateRejected); err != nil {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.teardown(false)
}

func (s *Session) onAck(msg *protocol.Message) {
	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()
	listeners.fireDataAcknowledged(msg.AckSeq)
}
