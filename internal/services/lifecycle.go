package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

// Lifecycle is a long-running component owned by a Runner.
type Lifecycle interface {
	ServiceIdentifier
	Start(ctx context.Context) error
	Stop() error
}

// Runner starts services in order and stops them in reverse.
type Runner struct {
	services []Lifecycle
	started  []Lifecycle
}

func NewRunner(svcs ...Lifecycle) *Runner {
	return &Runner{services: svcs}
}

// Start starts every service. On failure the ones already started are
// stopped before the error is returned.
func (r *Runner) Start(ctx context.Context) error {
	for _, svc := range r.services {
		log.Info().Str("service", svc.ID()).Msg("starting")
		if err := svc.Start(ctx); err != nil {
			stopErr := r.Stop()
			return errors.Join(fmt.Errorf("start %s: %w", svc.ID(), err), stopErr)
		}
		r.started = append(r.started, svc)
	}
	return nil
}

// Stop stops started services in reverse order and joins their errors.
func (r *Runner) Stop() error {
	var errs []error
	for i := len(r.started) - 1; i >= 0; i-- {
		svc := r.started[i]
		if err := svc.Stop(); err != nil {
			log.Error().Err(err).Str("service", svc.ID()).Msg("stop failed")
			errs = append(errs, fmt.Errorf("stop %s: %w", svc.ID(), err))
		}
	}
	r.started = nil
	return errors.Join(errs...)
}

// Run starts the services, blocks until SIGINT/SIGTERM or ctx is done, then
// stops them.
func (r *Runner) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Info().Msg("Shutting down services...")
	return r.Stop()
}
