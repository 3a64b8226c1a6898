package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	atotto "github.com/atotto/clipboard"
)

var (
	ErrToolNotFound = errors.New("clipboard tool not found")
	ErrUnavailable  = errors.New("clipboard unavailable")
)

type Command struct {
	Path string
	Args []string
}

func SelectCommand(goos string, lookPath func(string) (string, error)) (Command, error) {
	switch goos {
	case "darwin":
		path, err := lookPath("pbcopy")
		if err != nil {
			return Command{}, ErrToolNotFound
		}
		return Command{Path: path}, nil
	case "linux":
		if path, err := lookPath("wl-copy"); err == nil {
			return Command{Path: path}, nil
		}
		if path, err := lookPath("xclip"); err == nil {
			return Command{Path: path, Args: []string{"-selection", "clipboard"}}, nil
		}
		return Command{}, ErrToolNotFound
	default:
		return Command{}, ErrToolNotFound
	}
}

// Copier writes text with the system clipboard library first and falls back
// to a platform command when that fails.
type Copier struct {
	Write    func(string) error
	GOOS     string
	LookPath func(string) (string, error)
	Run      func(ctx context.Context, cmd Command, text string) error
}

func Default() Copier {
	c := Copier{GOOS: runtime.GOOS, LookPath: exec.LookPath, Run: runCommand}
	if !atotto.Unsupported {
		c.Write = atotto.WriteAll
	}
	return c
}

func Copy(ctx context.Context, text string) error {
	return Default().Copy(ctx, text)
}

func (c Copier) Copy(ctx context.Context, text string) error {
	var primaryErr error
	if c.Write != nil {
		if primaryErr = c.Write(text); primaryErr == nil {
			return nil
		}
	}

	cmdDef, err := SelectCommand(c.GOOS, c.LookPath)
	if err != nil {
		if primaryErr != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, primaryErr)
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c.Run(ctx, cmdDef, text)
}

func runCommand(ctx context.Context, cmdDef Command, text string) error {
	cmd := exec.CommandContext(ctx, cmdDef.Path, cmdDef.Args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("clipboard stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start clipboard command: %w", err)
	}

	if _, err := stdin.Write([]byte(text)); err != nil {
		_ = stdin.Close()
		_ = cmd.Wait()
		return fmt.Errorf("write clipboard data: %w", err)
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("clipboard command failed: %w", err)
	}
	return nil
}
