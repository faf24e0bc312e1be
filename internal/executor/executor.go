package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/genricoloni/mediabridge/internal/domain"
	"github.com/genricoloni/mediabridge/internal/process"
	"go.uber.org/zap"
)

const helperTimeout = 5 * time.Second

// CommandExecutor runs player commands. Volume commands resolve against the
// volume controller; media commands invoke the helper with a subcommand.
type CommandExecutor struct {
	logger *zap.Logger
	volume domain.VolumeController
	run    process.Runner
	helper string
}

// NewCommandExecutor resolves the helper from paths. A missing helper only
// disables media commands.
func NewCommandExecutor(logger *zap.Logger, volume domain.VolumeController, run process.Runner, paths []string) *CommandExecutor {
	helper, ok := process.FindExecutable(paths)
	if !ok {
		logger.Warn("media-control not found, media commands are disabled",
			zap.Strings("paths", paths),
			zap.String("install", domain.HelperInstallHint))
	} else {
		logger.Info("Media commands enabled", zap.String("helper", helper))
	}
	return &CommandExecutor{
		logger: logger,
		volume: volume,
		run:    run,
		helper: helper,
	}
}

// Available reports whether media commands can be executed
func (e *CommandExecutor) Available() bool {
	return e.helper != ""
}

// Execute implements domain.Executor
func (e *CommandExecutor) Execute(ctx context.Context, cmd domain.PlayerCommand, value any) domain.CommandResult {
	e.logger.Info("Executing command", zap.String("command", string(cmd)))

	var err error
	if cmd.IsVolume() {
		err = e.executeVolume(cmd, value)
	} else {
		err = e.executeMedia(ctx, cmd)
	}
	if err != nil {
		err = &domain.CommandError{Command: cmd, Err: err}
	}
	return domain.CommandResult{Command: cmd, Err: err}
}

func (e *CommandExecutor) executeVolume(cmd domain.PlayerCommand, value any) error {
	switch cmd {
	case domain.CommandVolumeSet:
		level, ok := toLevel(value)
		if !ok {
			return domain.ErrInvalidVolume
		}
		e.volume.SetVolume(level)
	case domain.CommandVolumeUp:
		e.volume.Increase()
	case domain.CommandVolumeDown:
		e.volume.Decrease()
	case domain.CommandMute:
		if muted, ok := value.(bool); ok {
			e.volume.SetMute(muted)
		} else {
			e.volume.ToggleMute()
		}
	default:
		return fmt.Errorf("unknown volume command %s", cmd)
	}
	return nil
}

func (e *CommandExecutor) executeMedia(ctx context.Context, cmd domain.PlayerCommand) error {
	if e.helper == "" {
		return domain.ErrExecutorUnavailable
	}
	sub, ok := cmd.HelperSubcommand()
	if !ok {
		return fmt.Errorf("no media-control mapping for %s", cmd)
	}

	ctx, cancel := context.WithTimeout(ctx, helperTimeout)
	defer cancel()

	if _, err := e.run(ctx, e.helper, sub); err != nil {
		return err
	}
	return nil
}

func toLevel(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
