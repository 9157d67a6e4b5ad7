// Command portdemo runs the whole stack against a simulated register space:
// embedded config, hal service, diagnostic stream, and the write journal.
//
// With -devmem it maps the physical GPIO apertures via /dev/mem instead,
// which requires root and actual TM4C-compatible hardware at those
// addresses; without it any host can run the demo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portdrv-go/bus"
	"portdrv-go/det"
	"portdrv-go/drivers/tm4c123"
	"portdrv-go/port"
	"portdrv-go/services/config"
	"portdrv-go/services/hal"
	"portdrv-go/types"
	"portdrv-go/x/conv"
)

func main() {
	board := flag.String("board", "launchpad", "embedded config to load")
	useDevMem := flag.Bool("devmem", false, "map physical registers via /dev/mem")
	flag.Parse()

	if err := run(*board, *useDevMem); err != nil {
		fmt.Fprintln(os.Stderr, "portdemo:", err)
		os.Exit(1)
	}
}

func run(board string, useDevMem bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mem tm4c123.Memory
	var sim *tm4c123.Sim
	if useDevMem {
		// One window spanning the GPIO apertures through the clock gate.
		dm, err := tm4c123.OpenDevMem(tm4c123.PortABase,
			tm4c123.RCGCGPIOAddr+4-tm4c123.PortABase)
		if err != nil {
			return err
		}
		defer dm.Close()
		mem = dm
	} else {
		sim = tm4c123.NewSim()
		mem = sim
	}

	b := bus.NewBus(64)

	// Diagnostics go both onto the bus and into a recorder.
	rec := det.NewRecorder()
	drv := port.New(mem, det.Tee(rec, det.NewBusReporter(b.NewConnection("det"))))

	cli := b.NewConnection("portdemo")
	state := cli.Subscribe(bus.T("hal", "state"))
	faults := cli.Subscribe(det.TopicError)

	go hal.Run(ctx, b.NewConnection("hal"), drv)

	cfgCtx := context.WithValue(ctx, config.CtxBoardKey, board)
	config.NewConfigService().Start(cfgCtx, b.NewConnection("config"))

	if err := awaitReady(ctx, state); err != nil {
		return err
	}
	fmt.Println("hal ready, table applied")

	printVersion(cli)

	// Runtime direction change on the LED pin.
	fmt.Println("switching pin 0 to input and back")
	call(cli, bus.T("hal", "pin", 0, "control", "set_direction"), map[string]any{"direction": "in"})
	call(cli, bus.T("hal", "pin", 0, "control", "set_direction"), map[string]any{"direction": "out"})

	// A direction change on the fixed switch pin is refused and reported.
	fmt.Println("attempting direction change on the fixed pin 1")
	call(cli, bus.T("hal", "pin", 1, "control", "set_direction"), map[string]any{"direction": "out"})
	drainFaults(faults)

	if sim != nil {
		tamperAndRefresh(cli, sim)
		dumpJournal(sim)
	}

	return nil
}

func awaitReady(ctx context.Context, state *bus.Subscription) error {
	for {
		select {
		case msg := <-state.Channel():
			if st, ok := msg.Payload.(types.HALState); ok && st.Level == "ready" {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return fmt.Errorf("hal never became ready")
		}
	}
}

// call issues a control request and prints the reply.
func call(cli *bus.Connection, topic bus.Topic, payload any) {
	reply := cli.Subscribe(bus.T("portdemo", "reply"))
	defer cli.Unsubscribe(reply)

	msg := cli.NewMessage(topic, payload, false)
	msg.ReplyTo = bus.T("portdemo", "reply")
	cli.Publish(msg)

	select {
	case m := <-reply.Channel():
		fmt.Printf("  %v -> %v\n", topic, m.Payload)
	case <-time.After(2 * time.Second):
		fmt.Printf("  %v -> timeout\n", topic)
	}
}

func printVersion(cli *bus.Connection) {
	reply := cli.Subscribe(bus.T("portdemo", "reply"))
	defer cli.Unsubscribe(reply)

	msg := cli.NewMessage(bus.T("hal", "control", "version"), nil, false)
	msg.ReplyTo = bus.T("portdemo", "reply")
	cli.Publish(msg)

	select {
	case m := <-reply.Channel():
		pl, _ := m.Payload.(map[string]any)
		if vi, ok := pl["version"].(port.VersionInfo); ok {
			fmt.Printf("driver: vendor %d module %d v%d.%d.%d\n",
				vi.VendorID, vi.ModuleID, vi.Major, vi.Minor, vi.Patch)
		}
	case <-time.After(2 * time.Second):
		fmt.Println("version query timed out")
	}
}

func drainFaults(faults *bus.Subscription) {
	for {
		select {
		case msg := <-faults.Channel():
			if r, ok := msg.Payload.(det.Report); ok {
				fmt.Printf("  fault: module=%d service=%#02x code=%s\n",
					r.Module, r.Service, r.Code)
			}
		case <-time.After(100 * time.Millisecond):
			return
		}
	}
}

// tamperAndRefresh flips the fixed switch pin's direction behind the
// driver's back, then asks for a refresh and shows the repair.
func tamperAndRefresh(cli *bus.Connection, sim *tm4c123.Sim) {
	f := tm4c123.NewPortBlock(sim, tm4c123.PortFBase)
	dirAddr := f.Dir.Addr()

	sim.Poke(dirAddr, sim.Peek(dirAddr)|1<<4)
	fmt.Printf("tampered: DIR=%s\n", conv.U32HexString(sim.Peek(dirAddr)))

	call(cli, bus.T("hal", "control", "refresh"), nil)
	fmt.Printf("refreshed: DIR=%s\n", conv.U32HexString(sim.Peek(dirAddr)))
}

func dumpJournal(sim *tm4c123.Sim) {
	fmt.Println("register write journal:")
	for _, w := range sim.Writes() {
		fmt.Printf("  [%s] <- %s\n", conv.U32HexString(w.Addr), conv.U32HexString(w.Value))
	}
}
