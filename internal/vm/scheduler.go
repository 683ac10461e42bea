package vm

// scheduler.go paces CPU cycles against wall-clock time, raises the
// periodic interrupt, and exposes run/stop/pause/step controls (§4.G).

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PBnJK/frame/internal/log"
)

// Quantum and interrupt cadence, from the reference console (§4.G).
const (
	Quantum         = 240
	InterruptPeriod = 960 // 4 * Quantum
	tickInterval    = 16777 * time.Microsecond
)

// SchedulerState is the scheduler's run state, reported to a host UI
// (SUPPLEMENTED FEATURES: "state window shows 'Stopped'").
type SchedulerState uint8

const (
	Stopped SchedulerState = iota
	Running
	Paused
)

func (s SchedulerState) String() string {
	switch s {
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	default:
		return "Stopped"
	}
}

// Scheduler ticks cpu in fixed-size batches, dispatching an interrupt
// every InterruptPeriod cycles when Interrupt-enable is set.
type Scheduler struct {
	cpu      *CPU
	renderer *Renderer

	mu     sync.Mutex
	state  SchedulerState
	cycles uint64
	stopCh chan struct{}

	log *log.Logger
}

// NewScheduler creates a scheduler over cpu, rendering through renderer on
// each interrupt.
func NewScheduler(cpu *CPU, renderer *Renderer) *Scheduler {
	return &Scheduler{cpu: cpu, renderer: renderer, log: log.DefaultLogger()}
}

// State reports the scheduler's current run state.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Run resets the cycle counter, resets the CPU (reloading PC from the
// reset vector), and ticks until ctx is cancelled, Stop is called, or a
// step fails with an error other than ErrHalted, such as an invalid
// opcode. A hlt moves the scheduler to Paused; Run keeps waiting and does
// not return (§4.G: "run resets cycle counter, reads reset vector, begins
// ticking").
func (s *Scheduler) Run(ctx context.Context) error {
	s.cpu.Reset()

	stopCh := make(chan struct{})

	s.mu.Lock()
	s.cycles = 0
	s.state = Running
	s.stopCh = stopCh
	s.mu.Unlock()

	s.log.Info("START", log.Group("STATE", s.cpu))

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setState(Stopped)
			s.log.Warn("CANCELLED")

			return ctx.Err()
		case <-stopCh:
			s.log.Info("STOPPED")

			return nil
		case <-ticker.C:
			if s.State() != Running {
				continue
			}

			if err := s.runBatch(); err != nil {
				if errors.Is(err, ErrHalted) {
					s.setState(Paused)
					s.log.Info("HALTED", log.Group("STATE", s.cpu))

					continue
				}

				s.setState(Stopped)
				s.log.Error("HALTED (ERR)", "ERR", err, log.Group("STATE", s.cpu))

				return err
			}
		}
	}
}

// Stop halts the ticker and causes a running Run to return; a subsequent
// Run starts over from the reset vector. Stop is safe to call whether or
// not Run is currently executing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = Stopped

	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
}

// Pause toggles ticking off without resetting any state.
func (s *Scheduler) Pause() { s.setState(Paused) }

// Resume resumes ticking after Pause, without resetting state.
func (s *Scheduler) Resume() { s.setState(Running) }

// Step performs exactly one cycle. If the cycle counter crosses the
// interrupt period, it also dispatches one interrupt (§4.G).
func (s *Scheduler) Step() error {
	if err := s.cpu.Step(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cycles++
	due := s.cycles%InterruptPeriod == 0
	s.mu.Unlock()

	if due && s.cpu.Flags.IntEna {
		s.deliverInterrupt()
	}

	return nil
}

func (s *Scheduler) runBatch() error {
	for i := 0; i < Quantum; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}

	return nil
}

// deliverInterrupt renders, pushes PC, and jumps to the IRQ vector. It
// does not clear Interrupt-enable: guest code manages that itself (§4.G).
func (s *Scheduler) deliverInterrupt() {
	if s.renderer != nil {
		s.renderer.Render(s.cpu.Mem)
	}

	s.cpu.pushWord(s.cpu.PC)
	s.cpu.PC = s.cpu.Mem.ReadWord(IRQVectorLow)

	s.log.Debug("interrupt delivered", "pc", s.cpu.PC)
}

func (s *Scheduler) setState(state SchedulerState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
