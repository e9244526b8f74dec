package master

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// Run opens the slave and observer listeners and drives the frame
// dispatcher until the process receives an interrupt/terminate signal
// or ctx.Shutdown is otherwise called.
func Run(ctx *Context, cfg Config) error {
	if err := ctx.slaves.Listen(fmt.Sprintf(":%d", cfg.SlavePort)); err != nil {
		return err
	}
	if err := ctx.observers.Listen(fmt.Sprintf(":%d", cfg.ObserverPort)); err != nil {
		return err
	}
	log.Printf("master: listening for slaves on :%d, observers on :%d", cfg.SlavePort, cfg.ObserverPort)

	ctx.telemetry.Reset()
	ctx.telemetry.Update("master", 1)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Printf("master: signal received, draining current frame")
		ctx.Shutdown()
	}()

	RunDispatcher(ctx)

	ctx.observers.Close()
	ctx.telemetry.Close()
	return nil
}
