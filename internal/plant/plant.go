// Package plant implements the Plant (RobotSystem): it owns and
// integrates a kinematics.Model, quantizes joint state through the
// simulated encoder before transmission, and optionally feeds a
// diagnostic sink, all driven by a goroutine exchanging frames with a
// Controller over a pair of channels.
package plant

import (
	"context"
	"sync"
	"time"

	"github.com/renan028/arm-3dof-control/internal/channel"
	"github.com/renan028/arm-3dof-control/internal/codec"
	"github.com/renan028/arm-3dof-control/internal/kinematics"
	"github.com/renan028/arm-3dof-control/internal/sink"
	"github.com/rs/zerolog"
)

// MinPeriod is the documented floor for the Plant's loop period (default
// 1ms unless configured).
const MinPeriod = time.Millisecond

// Config carries the Plant's tunables, normally sourced from the
// configuration document.
type Config struct {
	Period            time.Duration
	SaveOutput        bool
	EncoderResolution int
}

// DefaultConfig returns the documented defaults: 1ms period, encoder
// resolution 4096, diagnostics disabled.
func DefaultConfig() Config {
	return Config{
		Period:            MinPeriod,
		SaveOutput:        false,
		EncoderResolution: codec.DefaultEncoderResolution,
	}
}

// Plant owns a private kinematics.Model (the sole mutator that integrates
// it), its outbound Channel, and an optional diagnostic Sink.
type Plant struct {
	cfg     Config
	model   *kinematics.Model
	command kinematics.Vector3
	mu      sync.Mutex

	Channel *channel.Channel
	Sink    sink.Sink

	log zerolog.Logger

	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New constructs a Plant with its own kinematics model, initialized to
// zero command, optionally wired to a diagnostic sink (nil disables
// diagnostics).
func New(modelCfg kinematics.Config, cfg Config, s sink.Sink, log zerolog.Logger) *Plant {
	return &Plant{
		cfg:     cfg,
		model:   kinematics.New(modelCfg),
		Channel: channel.New(),
		Sink:    s,
		log:     log,
	}
}

// Command returns the most recently received velocity command.
func (p *Plant) Command() kinematics.Vector3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.command
}

// Joints returns the plant's current, unquantized joint state.
func (p *Plant) Joints() kinematics.Vector3 { return p.model.Joints() }

// Start spawns the plant goroutine: it writes quantized state on its own
// Channel and reads commands from controllerChannel.
func (p *Plant) Start(ctx context.Context, controllerChannel *channel.Channel) {
	ctx, cancel := context.WithCancel(ctx)
	p.stop = cancel
	p.wg.Add(1)
	go p.run(ctx, controllerChannel)
}

// Stop signals the plant goroutine to exit and joins it.
func (p *Plant) Stop() {
	if p.stop != nil {
		p.stop()
	}
	p.wg.Wait()
}

func (p *Plant) run(ctx context.Context, controllerChannel *channel.Channel) {
	defer p.wg.Done()
	defer p.Channel.Close()
	if p.Sink != nil {
		defer p.Sink.Close()
	}

	p.Channel.Open()
	p.log.Info().Msg("plant loop starting, waiting for controller")

	for !controllerChannel.IsOpen() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Millisecond):
		}
	}

	tPrev := time.Now()
	elapsed := 0.0
	p.log.Info().Msg("plant loop running")

	for controllerChannel.IsOpen() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		now := time.Now()
		dt := now.Sub(tPrev).Seconds()
		elapsed += dt

		p.mu.Lock()
		cmd := p.command
		p.mu.Unlock()

		p.model.Update(cmd, dt)
		q := p.model.Joints()
		pos := p.model.ForwardAt(q)

		if p.Sink != nil {
			if err := p.Sink.Save(pos, cmd, q, elapsed); err != nil {
				p.log.Warn().Err(err).Msg("sink save failed")
			}
		}

		qQuant := codec.Quantize3(q, p.cfg.EncoderResolution)
		frame := codec.Pack3(qQuant)
		p.Channel.Send(frame[:])

		command := codec.Unpack3(controllerChannel.Receive())
		p.mu.Lock()
		p.command = command
		p.mu.Unlock()

		p.log.Debug().Float64("t", elapsed).Interface("q", q).Interface("cmd", command).Msg("iteration")

		tPrev = now
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.Period):
		}
	}
}
