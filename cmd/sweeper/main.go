package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lancerhub/webhook-guard/alert"
	"github.com/lancerhub/webhook-guard/authz"
	"github.com/lancerhub/webhook-guard/config"
	"github.com/lancerhub/webhook-guard/metrics"
	"github.com/lancerhub/webhook-guard/reconcile"
	"github.com/lancerhub/webhook-guard/reconcile/postgres"
	reconcileredis "github.com/lancerhub/webhook-guard/reconcile/redis"
	reconcilestripe "github.com/lancerhub/webhook-guard/reconcile/stripe"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// jobID names the sweep in the run lock and checkpoints; one id per
// provider keeps concurrent per-provider sweeps possible later.
const jobID = "stripe-transactions"

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		return
	}
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT,
	)
	defer stop()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "webhook-guard-sweeper").Logger()

	store, err := postgres.NewStore(cfg.DatabaseURL)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer store.Close(ctx)

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	state := reconcileredis.NewRunState(redisClient, jobID)
	recorder := metrics.NewRedisRecorder(redisClient)

	policy := reconcile.DefaultPolicy()
	if cfg.PolicyFile != "" {
		policy, err = reconcile.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			fmt.Println(err)
			return
		}
	}

	var notifier reconcile.Notifier
	if cfg.AlertWebhookURL != "" {
		notifier = alert.NewWebhookNotifier(cfg.AlertWebhookURL, logger)
	} else {
		notifier = alert.NewLogNotifier(logger)
	}

	source := reconcilestripe.NewSource(cfg.StripeAPIKey, nil)

	sweeper := reconcile.NewSweeper(source, store, state, notifier, policy, authz.Stripe, logger)
	sweeper.Window = time.Duration(cfg.ReconcileWindowHours) * time.Hour

	if *once {
		if err := runSweep(ctx, sweeper, recorder, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	interval := time.Duration(cfg.SweepIntervalHours) * time.Hour
	logger.Info().Dur("interval", interval).Msg("sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on startup, then on every tick.
	runSweep(ctx, sweeper, recorder, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("sweeper stopping")
			return
		case <-ticker.C:
			runSweep(ctx, sweeper, recorder, logger)
		}
	}
}

// runSweep executes one sweep with a bounded lifetime so a hung provider
// call cannot stall the schedule past the next tick.
func runSweep(ctx context.Context, sweeper *reconcile.Sweeper, recorder *metrics.RedisRecorder, logger zerolog.Logger) error {
	runCtx, cancel := context.WithTimeout(ctx, 1*time.Hour)
	defer cancel()

	summary, err := sweeper.Run(runCtx)
	recordFindings(ctx, recorder, summary)
	if errors.Is(err, reconcile.ErrRunInProgress) {
		logger.Warn().Msg("sweep skipped: previous run still holds the lock")
		return nil
	}
	if err != nil {
		logger.Error().Err(err).Msg("sweep failed")
		return err
	}

	logger.Info().
		Int("examined", summary.Examined).
		Int("corrected", summary.Corrected).
		Int("pages", summary.Pages).
		Msg("sweep finished")
	return nil
}

// recordFindings bumps the finding counters best-effort; metrics must never
// affect a sweep.
func recordFindings(ctx context.Context, recorder *metrics.RedisRecorder, summary reconcile.Summary) {
	for kind, count := range summary.Findings {
		for i := 0; i < count; i++ {
			if err := recorder.IncrFinding(ctx, kind.String()); err != nil {
				return
			}
		}
	}
}
