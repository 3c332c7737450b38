package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/digest"
	"github.com/spigell/remote-digest/internal/logger"
	"github.com/spigell/remote-digest/internal/reporter"
	"github.com/spigell/remote-digest/internal/runlock"
)

const (
	PromptYes                = "Yes"
	PromptNo                 = "No"
	PromptReportBySubscriber = "Report by subscriber"
	PromptPlanToFile         = "Dump plan to file"
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Send digests?",
	Items: []string{PromptYes, PromptNo, PromptReportBySubscriber, PromptPlanToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match postings to subscribers once and send the digests",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before sending")
	runCmd.Flags().Bool("preview", false, "print the planned digests and exit without sending")
	runCmd.Flags().StringP("subscriber", "s", "", "run for a single subscriber email only")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	logger.Info("starting the remote-digest", zap.String("version", version))

	st, err := openStore(ctx, config, logger)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer st.Close()

	only, _ := cmd.Flags().GetString("subscriber")
	engine, err := newEngine(config, st, only, logger)
	if err != nil {
		logger.Fatal("building the engine", zap.Error(err))
	}

	preview, _ := cmd.Flags().GetBool("preview")
	if preview {
		plan, err := engine.Plan(ctx)
		if err != nil {
			logger.Fatal("planning digests", zap.Error(err))
		}
		printReport(plan, logger)
		return
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

	token := uuid.NewString()
	err = runlock.AcquireWait(ctx, locker, token, config.Lock.WaitAttempts, config.Lock.WaitInterval)
	if errors.Is(err, runlock.ErrLocked) {
		logger.Info("exiting", zap.String("reason", "another run is in progress"))
		return
	}
	if err != nil {
		logger.Fatal("acquiring the run lock", zap.Error(err))
	}
	defer releaseLock(locker, token, logger)

	plan, err := engine.Plan(ctx)
	if err != nil {
		if rerr := rep.SendError(err); rerr != nil {
			logger.Warn("reporting run error", zap.Error(rerr))
		}
		logger.Error("planning digests", zap.Error(err))
		return
	}

	if len(plan.Pending()) == 0 {
		logger.Info("exiting", zap.String("reason", "no digests to send"))
		return
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")

	action := PromptYes
	for {
		if !autoApprove {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Error("exiting", zap.Error(err))
				return
			}
		}

		logger.Info("current plan", zap.Int("digests", len(plan.Pending())))

		if err := handleAction(ctx, action, engine, rep, plan, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Error("exiting", zap.Error(err))
			return
		}
	}
}

func handleAction(ctx context.Context, action string, engine *digest.Engine, rep reporter.Reporter, plan *digest.Plan, log *zap.Logger) error {
	switch action {
	case PromptYes:
		report := engine.Deliver(ctx, plan)
		if err := rep.SendReport(report); err != nil {
			log.Warn("sending run report", zap.Error(err))
		}
		return errExit
	case PromptNo:
		log.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportBySubscriber:
		printReport(plan, log)
		return nil
	case PromptPlanToFile:
		filename, err := plan.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump plan to file: %w", err)
		}
		log.Info("dumping plan to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func printReport(plan *digest.Plan, log *zap.Logger) {
	pretty, _ := json.MarshalIndent(plan.ReportBySubscriber(), "", "  ")
	logger.WithRun(log, plan.RunID).Info(string(pretty), zap.Int("digests count", len(plan.Pending())))
}
