//go:build linux

// Command visiondump opens a streaming device and writes each delivered
// payload's block id, type, and size to stdout until interrupted,
// replacing the teacher's monopulse tracker CLI (cmd/monopulse/main.go)
// with an entry point over the new streaming core.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rjboer/govision/internal/registers"
	"github.com/rjboer/govision/internal/runtimeconfig"
	"github.com/rjboer/govision/internal/stream"
	"github.com/rjboer/govision/internal/usb"
)

func main() {
	devicePath := flag.String("device", "/dev/bus/usb/001/004", "usbfs device node")
	iface := flag.Uint("iface", 0, "USB interface number")
	controlOut := flag.Uint("control-out-ep", 0x01, "control-plane bulk OUT endpoint address")
	controlIn := flag.Uint("control-in-ep", 0x81, "control-plane bulk IN endpoint address")
	streamIn := flag.Uint("stream-ep", 0x82, "streaming bulk IN endpoint address")
	configPath := flag.String("config", "visiondump.json", "runtime configuration file")
	flag.Parse()

	cfg, err := runtimeconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := runtimeconfig.Save(*configPath, cfg); err != nil {
		log.Fatalf("save config: %v", err)
	}

	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}

	controlOutEp, err := usb.NewUSBFSEndpoint(*devicePath, uint32(*iface), uint8(*controlOut))
	if err != nil {
		log.Fatalf("open control-out endpoint: %v", err)
	}
	controlInEp, err := usb.NewUSBFSEndpoint(*devicePath, uint32(*iface), uint8(*controlIn))
	if err != nil {
		log.Fatalf("open control-in endpoint: %v", err)
	}
	streamEp, err := usb.NewUSBFSEndpoint(*devicePath, uint32(*iface), uint8(*streamIn))
	if err != nil {
		log.Fatalf("open stream endpoint: %v", err)
	}

	transport := usb.NewBulkTransport(controlOutEp, controlInEp)
	ctrl := registers.NewClient(transport, cfg.ReadTimeout())

	handle, err := stream.Open(streamEp, ctrl, cfg.MaxInFlightTransfers, logger)
	if err != nil {
		log.Fatalf("open stream handle: %v", err)
	}
	defer handle.Close()

	sender := make(chan *stream.Payload, cfg.SenderQueueDepth)
	if err := handle.StartStreamingLoop(sender); err != nil {
		log.Fatalf("start streaming: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case p, ok := <-sender:
			if !ok {
				return
			}
			printPayload(p)
			handle.ReturnBuffer(p.Data)
		case <-sigCh:
			if err := handle.StopStreamingLoop(); err != nil {
				log.Printf("stop streaming: %v", err)
			}
			return
		}
	}
}

func printPayload(p *stream.Payload) {
	if p.ImageInfo != nil {
		fmt.Printf("block=%d type=%s %dx%d image_size=%d valid=%d\n",
			p.ID, p.Type, p.ImageInfo.Width, p.ImageInfo.Height, p.ImageInfo.ImageSize, p.ValidPayloadSize)
		return
	}
	fmt.Printf("block=%d type=%s valid=%d\n", p.ID, p.Type, p.ValidPayloadSize)
}
