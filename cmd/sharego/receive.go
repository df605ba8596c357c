package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sharego/core/pkg/config"
	"github.com/sharego/core/pkg/controller"
	"github.com/sharego/core/pkg/discovery"
	"github.com/sharego/core/pkg/protocol"
	"github.com/sharego/core/pkg/session"
	"github.com/sharego/core/pkg/transport"
	"github.com/sharego/core/pkg/wstransport"
)

var receivePort int

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Wait for a sender to connect and pair",
	RunE:  runReceive,
}

func init() {
	rootCmd.AddCommand(receiveCmd)
	receiveCmd.Flags().IntVar(&receivePort, "port", config.DefaultPort, "port to listen on")
}

func runReceive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tr := transport.New(transport.Config{
		ServerAdapter: wstransport.NewGorillaServerAdapter(),
		LoggerFactory: loggerFactory,
	})

	ctl := controller.New(controller.Options{LoggerFactory: loggerFactory})
	defer ctl.Destroy()

	approved := make(chan struct{}, 1)
	printer := newSnapshotPrinter()
	unsubscribe := ctl.Subscribe(func(snap controller.Snapshot) {
		printer.onSnapshot(snap)
		if snap.PairingRequest != nil {
			select {
			case approved <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	cfg := session.Config{DeviceName: deviceName, LoggerFactory: loggerFactory}
	if err := ctl.StartReceiver(ctx, tr, cfg, receivePort); err != nil {
		return fmt.Errorf("start receiver: %w", err)
	}

	snap := ctl.Snapshot()
	publicKey := ""
	if payload, err := protocol.DecodeQrPayload([]byte(snap.QrPayload)); err == nil {
		publicKey = string(payload.PK)
	}

	mdns := discovery.NewZeroconfAdapter(discovery.ZeroconfConfig{LoggerFactory: loggerFactory})
	if err := discovery.AdvertiseReceiver(mdns, receivePort, string(snap.SessionId), publicKey); err != nil {
		fmt.Fprintf(os.Stderr, "mDNS advertise unavailable, sender will need --addr: %v\n", err)
	} else {
		defer mdns.StopAdvertising()
	}

	fmt.Println("========================================")
	fmt.Println(" ShareGo receiver ready")
	fmt.Println("========================================")
	fmt.Printf("Session code: %s\n", snap.SessionId)
	fmt.Printf("Address:      %s\n", snap.LocalAddress)
	fmt.Println("QR payload:")
	fmt.Println(snap.QrPayload)
	fmt.Println("----------------------------------------")
	fmt.Println("Waiting for a sender...")

	go promptForApproval(ctl, approved)

	runInteractiveLoop(ctx, ctl)
	return nil
}

// promptForApproval asks the operator to accept or reject the first
// pairing request it sees.
func promptForApproval(ctl *controller.Controller, approved <-chan struct{}) {
	<-approved
	req := ctl.Snapshot().PairingRequest
	if req == nil {
		return
	}
	fmt.Printf("\nPairing request from %q. Accept? [y/N]: ", req.DeviceName)

	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	if line == "y\n" || line == "Y\n" {
		if err := ctl.ApprovePairing(); err != nil {
			fmt.Fprintf(os.Stderr, "approve failed: %v\n", err)
		}
		return
	}
	if err := ctl.RejectPairing("declined by user"); err != nil {
		fmt.Fprintf(os.Stderr, "reject failed: %v\n", err)
	}
}
