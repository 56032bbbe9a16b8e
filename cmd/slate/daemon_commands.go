package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"slate/internal/catalog"
	"slate/internal/daemon"
	"slate/internal/daemonrun"
	"slate/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the slate daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg := ctx.configValue()

			if daemonRunning(daemon.LockPath(cfg)) {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}

			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			launchArgs := []string{}
			if ctx.configFlag != nil && strings.TrimSpace(*ctx.configFlag) != "" {
				launchArgs = append(launchArgs, "--config", strings.TrimSpace(*ctx.configFlag))
			}
			if strings.TrimSpace(startLogLevel) != "" {
				launchArgs = append(launchArgs, "--log-level", strings.TrimSpace(startLogLevel))
			}

			launch := exec.Command(exe, launchArgs...)
			launch.Stdout = nil
			launch.Stderr = nil
			launch.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
			if err := launch.Start(); err != nil {
				return fmt.Errorf("launch daemon: %w", err)
			}
			if err := launch.Process.Release(); err != nil {
				return fmt.Errorf("detach daemon: %w", err)
			}

			fmt.Fprintln(stdout, "Daemon not running, launching...")
			if waitForLock(daemon.LockPath(cfg), 10*time.Second) {
				fmt.Fprintln(stdout, "Daemon started")
			} else {
				fmt.Fprintln(stdout, "Start request sent; check the log if the daemon does not come up")
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Override configured log level for the daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the slate daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg := ctx.configValue()

			if !daemonRunning(daemon.LockPath(cfg)) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}

			pid, err := readPIDFile(daemonrun.PIDPath(cfg))
			if err != nil {
				return fmt.Errorf("read pid file: %w", err)
			}
			if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
				return fmt.Errorf("signal daemon (pid %d): %w", pid, err)
			}

			fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", pid)
			if waitForUnlock(daemon.LockPath(cfg), 10*time.Second) {
				fmt.Fprintln(stdout, "Daemon stopped")
			} else {
				fmt.Fprintln(stdout, "Stop request sent; daemon is still shutting down")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and catalog status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(os.Stdout)

			running := daemonRunning(daemon.LockPath(cfg))
			state := "stopped"
			if running {
				state = "running"
			}
			fmt.Fprintf(stdout, "Daemon: %s\n", colorStatus(running, state, colorize))
			fmt.Fprintf(stdout, "Lock file: %s\n", daemon.LockPath(cfg))
			fmt.Fprintln(stdout)

			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				label := "ok"
				if !result.Passed {
					label = "failed"
				}
				fmt.Fprintf(stdout, "%s: %s (%s)\n", result.Name, colorStatus(result.Passed, label, colorize), result.Detail)
			}
			fmt.Fprintln(stdout)

			return ctx.withStore(func(store *catalog.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := [][]string{
					{"Pending series", strconv.Itoa(stats.PendingSeries)},
					{"Pending episodes", strconv.Itoa(stats.PendingEpisodes)},
					{"Live series", strconv.Itoa(stats.LiveSeries)},
					{"Live episodes", strconv.Itoa(stats.LiveEpisodes)},
					{"Transfers", strconv.Itoa(stats.Transfers)},
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Collection", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

// daemonRunning probes the daemon lock. A successful TryLock means no
// daemon holds it; the probe releases immediately.
func daemonRunning(lockPath string) bool {
	if _, err := os.Stat(lockPath); err != nil {
		return false
	}
	probe := flock.New(lockPath)
	ok, err := probe.TryLock()
	if err != nil {
		return false
	}
	if ok {
		_ = probe.Unlock()
		return false
	}
	return true
}

func waitForLock(lockPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if daemonRunning(lockPath) {
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func waitForUnlock(lockPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !daemonRunning(lockPath) {
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, errors.New("pid file is malformed")
	}
	return pid, nil
}

// daemonExecutable locates the slated binary next to the CLI binary,
// falling back to PATH lookup.
func daemonExecutable() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	sibling := filepath.Join(filepath.Dir(self), "slated")
	if info, err := os.Stat(sibling); err == nil && !info.IsDir() {
		return sibling, nil
	}
	path, err := exec.LookPath("slated")
	if err != nil {
		return "", errors.New("slated binary not found next to slate or on PATH")
	}
	return path, nil
}
