package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

var ErrNoCommand = errors.New("speech command not configured")

// CommandSpeaker speaks through an external synthesizer such as espeak or
// say. The text is passed as the last argument and Speak returns once the
// process exits.
type CommandSpeaker struct {
	name   string
	args   []string
	logger *slog.Logger
}

// NewCommandSpeaker parses command ("espeak -s 150") and adds "-v voice"
// when voice is set.
func NewCommandSpeaker(command, voice string, logger *slog.Logger) (*CommandSpeaker, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}

	args := fields[1:]
	if voice != "" {
		args = append(args, "-v", voice)
	}

	return &CommandSpeaker{
		name:   fields[0],
		args:   args,
		logger: logger,
	}, nil
}

func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	args := append(append([]string{}, s.args...), text)
	cmd := exec.CommandContext(ctx, s.name, args...)

	s.logger.Debug("speaking", "command", s.name, "text", text)

	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running %s: %w: %s", s.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}
