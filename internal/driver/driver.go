// Package driver orchestrates the edge driver's lifecycle: it wires the
// poll client, push server, queue, and hardware transport together and
// drives the main render loop.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/flipdot/driver/internal/config"
	"github.com/flipdot/driver/internal/frame"
	"github.com/flipdot/driver/internal/hardware"
	"github.com/flipdot/driver/internal/logging"
	"github.com/flipdot/driver/internal/pollclient"
	"github.com/flipdot/driver/internal/pushserver"
	"github.com/flipdot/driver/internal/queue"
	"golang.org/x/sync/errgroup"
)

// LoopSleep is the spec's default main-loop tick interval.
const LoopSleep = 20 * time.Millisecond

// Driver owns the process lifetime: it builds every component from Config
// and runs the main loop until its context is cancelled.
type Driver struct {
	cfg       *config.Config
	log       *logging.Logger
	panel     *hardware.Panel
	transport hardware.Transport
	queue     *queue.Queue
	client    *pollclient.Client
	push      *pushserver.Server
	lastGood  *frame.Response
}

// New builds every component per the startup sequence in spec.md section
// 4.5: load config (already done by the caller), build panel, open serial
// (or its dev-mode stub), build queue/client, and construct the push server
// if enabled. It does not yet bind a listener or enter the main loop.
func New(cfg *config.Config, log *logging.Logger) (*Driver, error) {
	panel, err := hardware.NewPanel(cfg.ModuleLayout, cfg.ModuleWidth, cfg.ModuleHeight)
	if err != nil {
		return nil, fmt.Errorf("driver: building panel: %w", err)
	}

	var transport hardware.Transport
	if cfg.DevMode {
		transport = hardware.NewDevTransport(logging.Component(log, "hardware"))
	} else {
		transport = hardware.NewSerialTransport(cfg.SerialDevice, cfg.SerialBaudRate, hardware.DefaultSerialBackoff, logging.Component(log, "hardware"))
	}

	q := queue.New(queue.DefaultLimits, logging.Component(log, "queue"))

	client := pollclient.New(cfg.PollEndpoint, cfg.Auth, 10*time.Second, cfg.PollIntervalMS, frame.DefaultLimits, logging.Component(log, "poll"))

	d := &Driver{
		cfg:       cfg,
		log:       logging.Component(log, "driver"),
		panel:     panel,
		transport: transport,
		queue:     q,
		client:    client,
	}

	if cfg.EnablePush {
		width, height := panel.Dimensions()
		d.push = pushserver.New(pushserver.Options{
			Host:          cfg.PushHost,
			Port:          cfg.PushPort,
			Auth:          cfg.Auth,
			DisplayWidth:  width,
			DisplayHeight: height,
			Limits:        frame.DefaultLimits,
			OnPush:        d.onPush,
			Queue:         d.queue,
			Log:           logging.Component(log, "push"),
		})
	}

	return d, nil
}

// onPush is the push server's callback: it admits the content into the
// queue and resets the poll client's timer so the next main-loop iteration
// doesn't wait out the rest of the current poll interval. Per the spec's
// reentrancy note, this never acquires the queue's lock and the client's
// internal lock at once - each call is independent and short.
func (d *Driver) onPush(c *frame.Content) {
	if !d.queue.ReplaceIfSameID(c) {
		d.queue.AddContent(c)
	}
	d.client.ResetPollTimer()
}

// Run blocks until ctx is cancelled, running the push server (if enabled)
// and the main render loop together via an errgroup, so a startup failure
// in either propagates to the other.
func (d *Driver) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if d.push != nil {
		g.Go(func() error {
			err := d.push.ListenAndServe()
			if err != nil && ctx.Err() != nil {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		d.mainLoop(ctx)
		return nil
	})

	<-ctx.Done()
	d.shutdown()

	return g.Wait()
}

func (d *Driver) mainLoop(ctx context.Context) {
	ticker := time.NewTicker(LoopSleep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.tick(ctx)
		}
	}
}

// tick implements one main-loop iteration per spec.md section 4.5.
func (d *Driver) tick(ctx context.Context) {
	if d.client.ShouldPoll() {
		resp := d.client.Fetch(ctx)
		if resp == nil {
			resp = pollclient.ApplyFallback(d.cfg.ErrorFallback, d.lastGood)
			if resp != nil {
				d.log.Debug().Str("policy", string(d.cfg.ErrorFallback)).Log("driver: applying error fallback")
			}
		} else {
			d.lastGood = resp
		}
		if resp != nil {
			d.routeResponse(resp)
		}
	}

	f := d.queue.Update()
	if f != nil {
		d.writeFrame(ctx, f)
	}
}

func (d *Driver) routeResponse(resp *frame.Response) {
	width, height := d.panel.Dimensions()
	switch resp.Status {
	case frame.StatusUpdated:
		if err := resp.Content.ValidateDisplayDimensions(width, height); err != nil {
			d.log.Warning().Str("content_id", resp.Content.ContentID).Err(err).Log("driver: dropping content, dimension mismatch")
			return
		}
		if !d.queue.ReplaceIfSameID(resp.Content) {
			d.queue.AddContent(resp.Content)
		}
	case frame.StatusClear:
		d.queue.Clear()
		d.writeBlank(context.Background())
	case frame.StatusNoChange:
	}
}

func (d *Driver) writeFrame(ctx context.Context, f *frame.Frame) {
	width, height := d.panel.Dimensions()
	cmd, err := d.panel.PackFromBits(f.Data, width, height, true)
	if err != nil {
		d.log.Warning().Err(err).Log("driver: dropping frame, pack failed")
		return
	}
	if err := d.transport.Write(ctx, cmd); err != nil {
		d.log.Warning().Err(err).Log("driver: transport write failed")
	}
}

func (d *Driver) writeBlank(ctx context.Context) {
	blank := d.panel.BlankMatrix()
	cmd, err := d.panel.Pack(blank, true)
	if err != nil {
		d.log.Warning().Err(err).Log("driver: failed to pack blank matrix")
		return
	}
	if err := d.transport.Write(ctx, cmd); err != nil {
		d.log.Warning().Err(err).Log("driver: transport write failed while blanking")
	}
}

// shutdown implements spec.md section 4.5's shutdown sequence: stop the push
// server, clear the queue, blank the display, close serial.
func (d *Driver) shutdown() {
	d.log.Info().Log("driver: shutting down")

	if d.push != nil {
		ctx, cancel := context.WithTimeout(context.Background(), pushserver.ShutdownTimeout)
		if err := d.push.Shutdown(ctx); err != nil {
			d.log.Warning().Err(err).Log("driver: push server shutdown error")
		}
		cancel()
	}

	d.queue.Clear()
	d.writeBlank(context.Background())

	if err := d.transport.Close(); err != nil {
		d.log.Warning().Err(err).Log("driver: error closing transport")
	}
}
