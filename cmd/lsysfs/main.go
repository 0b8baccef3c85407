// lsysfs mounts a bounded in-memory namespace of directories and files
// through FUSE.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/marmos91/lsysfs/internal/logger"
	"github.com/marmos91/lsysfs/pkg/adapter/fuse"
	"github.com/marmos91/lsysfs/pkg/config"
)

const usage = `lsysfs - in-memory FUSE filesystem

Usage:
  lsysfs init [--force] [--config path]
  lsysfs mount [--config path] [--log-level level] <mountpoint>

Run 'lsysfs <command> --help' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "mount":
		err = runMount(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) error {
	flagSet := pflag.NewFlagSet("init", pflag.ContinueOnError)
	force := flagSet.BoolP("force", "f", false, "overwrite an existing config file")
	configPath := flagSet.StringP("config", "c", "", "where to write the config (default: "+config.GetDefaultConfigPath()+")")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.InitConfig(*force); err != nil {
			return err
		}
	} else if err := config.InitConfigAt(path, *force); err != nil {
		return err
	}

	fmt.Printf("Configuration written to %s\n", path)
	return nil
}

func runMount(args []string) error {
	flagSet := pflag.NewFlagSet("mount", pflag.ContinueOnError)
	configPath := flagSet.StringP("config", "c", "", "config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flagSet.String("log-level", "", "override logging.level (DEBUG, INFO, WARN, ERROR)")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	if *logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(*logLevel)
	}
	if flagSet.NArg() > 0 {
		cfg.Mount.Mountpoint = flagSet.Arg(0)
	}
	if cfg.Mount.Mountpoint == "" {
		return errors.New("mountpoint is required")
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsResult := config.InitializeMetrics(cfg)
	metricsDone := make(chan error, 1)
	if metricsResult.Server != nil {
		go func() {
			metricsDone <- metricsResult.Server.Start(ctx)
		}()
	}

	ns, err := config.CreateNamespace(ctx, cfg, metricsResult.Namespace)
	if err != nil {
		return fmt.Errorf("failed to create namespace: %w", err)
	}
	defer func() {
		if err := ns.Close(); err != nil {
			logger.Error("Failed to close namespace: %v", err)
		}
	}()

	logger.Info("Namespace ready: capacity=%d catalog=%s write_mode=%s name_policy=%s",
		cfg.Namespace.Capacity, cfg.Catalog.Type, cfg.Namespace.WriteMode, cfg.Namespace.NamePolicy)

	server, err := fuse.Mount(ns, config.MountOptions(&cfg.Mount), metricsResult.FUSE)
	if err != nil {
		return err
	}

	served := make(chan struct{})
	go func() {
		server.Wait()
		close(served)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("Press Ctrl+C to unmount")

	select {
	case sig := <-sigChan:
		logger.Info("Received %s, unmounting", sig)
		if err := unmount(server.Unmount); err != nil {
			return fmt.Errorf("failed to unmount %s: %w", cfg.Mount.Mountpoint, err)
		}
		<-served
	case <-served:
		logger.Info("Filesystem unmounted externally")
	case err := <-metricsDone:
		_ = server.Unmount()
		<-served
		return err
	}

	cancel()
	if metricsResult.Server != nil {
		if err := <-metricsDone; err != nil {
			logger.Error("Metrics server error: %v", err)
		}
	}

	logger.Info("lsysfs stopped")
	return nil
}

// unmount retries while the mount is busy, for example when a shell still
// has its working directory inside it.
func unmount(fn func() error) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		logger.Warn("Unmount failed (attempt %d): %v", attempt+1, err)
		time.Sleep(time.Second)
	}
	return err
}
