package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run digests periodically on the configured cron spec",
	Run: func(cmd *cobra.Command, _ []string) {
		schedule(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().Bool("run-now", false, "run once immediately, then follow the schedule")
}

func schedule(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	logger.Info("starting the remote-digest scheduler", zap.String("version", version))

	st, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer st.Close()

	engine, err := newEngine(config, st, "", logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}

	locker, err := newLocker(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating the run lock", zap.Error(err))
	}
	defer locker.Close()

	rep, err := newReporter(config, logger)
	if err != nil {
		logger.Fatal("creating the reporter", zap.Error(err))
	}

	sched, err := scheduler.New(config.Schedule.Spec, func(ctx context.Context) error {
		return runOnce(ctx, engine, locker, rep, config, logger)
	}, logger)
	if err != nil {
		logger.Fatal("creating the scheduler", zap.Error(err))
	}

	runNow, _ := cmd.Flags().GetBool("run-now")
	if err := sched.Start(ctx, runNow || config.Schedule.RunOnStart); err != nil {
		logger.Fatal("starting the scheduler", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("shutting down", zap.String("reason", "signal received"))
	sched.Stop()
}
