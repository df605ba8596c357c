package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/controller"
	"github.com/sharego/core/pkg/crypto"
	"github.com/sharego/core/pkg/discovery"
	"github.com/sharego/core/pkg/protocol"
	"github.com/sharego/core/pkg/session"
	"github.com/sharego/core/pkg/transport"
	"github.com/sharego/core/pkg/wstransport"
)

var (
	sendAddr string
	sendQr   string
)

var sendCmd = &cobra.Command{
	Use:   "send <session-code>",
	Short: "Pair with a receiver and exchange a message",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVar(&sendAddr, "addr", "", "receiver address (ip:port), skips discovery")
	sendCmd.Flags().StringVar(&sendQr, "qr", "", "full QR payload text, skips discovery and the session code argument")
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sid, addr, receiverPk, err := resolveTarget(ctx, args)
	if err != nil {
		return err
	}

	tr := transport.New(transport.Config{
		ClientAdapter: wstransport.NewGorillaClientAdapter(),
		LoggerFactory: loggerFactory,
	})

	ctl := controller.New(controller.Options{LoggerFactory: loggerFactory})
	defer ctl.Destroy()

	printer := newSnapshotPrinter()
	unsubscribe := ctl.Subscribe(func(snap controller.Snapshot) { printer.onSnapshot(snap) })
	defer unsubscribe()

	fmt.Printf("Connecting to %s...\n", addr)
	cfg := session.Config{DeviceName: deviceName, LoggerFactory: loggerFactory}
	if err := ctl.StartSender(ctx, tr, cfg, addr, receiverPk, sid); err != nil {
		return fmt.Errorf("start sender: %w", err)
	}

	runInteractiveLoop(ctx, ctl)
	return nil
}

// resolveTarget decides the session id, peer address, and (if known
// from a full QR payload) the receiver's public key, from either --qr,
// --addr plus the session-code argument, or LAN discovery of the
// session-code argument alone.
func resolveTarget(ctx context.Context, args []string) (config.SessionId, config.NetworkAddress, *[crypto.PublicKeyLength]byte, error) {
	if sendQr != "" {
		payload, err := protocol.DecodeQrPayload([]byte(sendQr))
		if err != nil {
			return "", "", nil, fmt.Errorf("decode QR payload: %w", err)
		}
		pkBytes, err := crypto.FromBase64(string(payload.PK))
		if err != nil || len(pkBytes) != crypto.PublicKeyLength {
			return "", "", nil, fmt.Errorf("invalid QR payload public key")
		}
		var pk [crypto.PublicKeyLength]byte
		copy(pk[:], pkBytes)
		return payload.Sid, payload.Addr, &pk, nil
	}

	if len(args) != 1 {
		return "", "", nil, fmt.Errorf("a session code is required unless --qr is given")
	}
	sid := config.SessionId(args[0])
	if !sid.IsValid() {
		return "", "", nil, fmt.Errorf("invalid session code %q", args[0])
	}

	if sendAddr != "" {
		addr, err := transport.ValidateAddress(sendAddr)
		if err != nil {
			return "", "", nil, fmt.Errorf("invalid --addr: %w", err)
		}
		return sid, addr, nil, nil
	}

	fmt.Println("Searching the local network for the receiver...")
	found, err := discovery.DiscoverReceiver(ctx, discovery.Options{
		Adapter: discovery.NewZeroconfAdapter(discovery.ZeroconfConfig{LoggerFactory: loggerFactory}),
		SessionId: string(sid),
		Port:      config.DefaultPort,
		LocalIP:   wstransport.NewNetLocalIpResolver(),
		Dialer:    wstransport.NewGorillaClientAdapter(),
	})
	if err != nil {
		return "", "", nil, fmt.Errorf("discovery: %w", err)
	}
	if found == nil {
		return "", "", nil, fmt.Errorf("no receiver found for session code %s; pass --addr", sid)
	}
	addr, err := transport.ValidateAddress(found.Address)
	if err != nil {
		return "", "", nil, fmt.Errorf("discovered address %q: %w", found.Address, err)
	}
	return sid, addr, nil, nil
}
