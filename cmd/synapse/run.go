package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/synapse-run/synapse/sandbox"
)

const usageHelp = `synapse-sandbox runs shell commands under a policy-driven sandbox.

Usage:
  synapse-sandbox [flags]

Commands are read one per line from stdin and executed sequentially in a
single persistent shell session; results are printed to stdout/stderr with
a "[blocked]" marker when the policy rejected a command.

Flags:
  -c, --config string      path to sandbox.json/.jsonc (default $SYNAPSE_HOME/sandbox.json)
  -C, --cwd string         working directory for the session (default: current directory)
      --provider string    provider name to use (default from config, usually "local")
      --docker             allow the Docker socket inside the sandbox
      --disable             run unsandboxed (equivalent to config "enabled": false)
      --ro stringArray      additional whitelist path (repeatable)
      --exclude stringArray additional blacklist path (repeatable)
      --debug               enable debug logging
  -h, --help                show this help
`

// Run is the CLI entrypoint, structured so it can be exercised by tests
// without touching the real process stdio.
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string, env []string, sigCh <-chan os.Signal) int {
	flags := pflag.NewFlagSet("synapse-sandbox", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(stderr)

	var (
		configPath string
		cwd        string
		provider   string
		docker     bool
		disable    bool
		whitelist  []string
		blacklist  []string
		debug      bool
		help       bool
	)

	flags.StringVarP(&configPath, "config", "c", "", "path to sandbox config")
	flags.StringVarP(&cwd, "cwd", "C", "", "working directory")
	flags.StringVar(&provider, "provider", "", "provider name")
	flags.BoolVar(&docker, "docker", false, "allow the Docker socket")
	flags.BoolVar(&disable, "disable", false, "run unsandboxed")
	flags.StringArrayVar(&whitelist, "ro", nil, "additional whitelist path")
	flags.StringArrayVar(&blacklist, "exclude", nil, "additional blacklist path")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.BoolVarP(&help, "help", "h", false, "show help")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			fmt.Fprint(stderr, usageHelp)
			return 0
		}
		fmt.Fprintf(stderr, "synapse-sandbox: %v\n", err)
		return 2
	}

	if help {
		fmt.Fprint(stderr, usageHelp)
		return 0
	}

	if !debug {
		debug = envTruthy(env, "SYNAPSE_DEBUG")
	}
	log := newLogger(debug)
	debugf := debugfFor(log)

	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(stderr, "synapse-sandbox: resolving working directory: %v\n", err)
			return 1
		}
		cwd = wd
	}

	runtimeLayer := &sandbox.ConfigLayerInput{}
	if flags.Changed("provider") {
		runtimeLayer.Provider = &provider
	}
	if disable {
		f := false
		runtimeLayer.Enabled = &f
	}
	if len(whitelist) > 0 || len(blacklist) > 0 {
		runtimeLayer.Filesystem = &sandbox.FilesystemPolicy{Whitelist: whitelist, Blacklist: blacklist}
	}
	if docker {
		runtimeLayer.ProviderOptions = map[string]any{"docker": true}
	}

	cfg := sandbox.LoadConfig(sandbox.LoadConfigOptions{
		ConfigPath:    configPath,
		RuntimeConfig: runtimeLayer,
		Debugf:        debugf,
	})

	manager := sandbox.NewManager(cfg, sandbox.ManagerOptions{Debugf: debugf})

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			log.Info("shutting down")
			_ = manager.Shutdown()
		case <-done:
		}
	}()
	defer close(done)
	defer manager.Shutdown()

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		if command == "" {
			continue
		}

		result, err := manager.Execute(command, cwd)
		if err != nil {
			fmt.Fprintf(stderr, "synapse-sandbox: %v\n", err)
			return 1
		}

		if result.Blocked {
			fmt.Fprintf(stdout, "[blocked] %s (%s)\n", result.BlockedReason, result.BlockedResource)
			continue
		}

		io.WriteString(stdout, result.Stdout)
		io.WriteString(stderr, result.Stderr)
		if result.ExitCode != 0 {
			fmt.Fprintf(stderr, "[exit %d]\n", result.ExitCode)
		}
	}

	return 0
}

// envTruthy reports whether name is set to a non-empty, non-"0"/"false"
// value in env, an explicit []string in "KEY=VALUE" form so Run stays
// testable without touching the real process environment.
func envTruthy(env []string, name string) bool {
	prefix := name + "="
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}
		v := strings.TrimPrefix(kv, prefix)
		return v != "" && v != "0" && v != "false"
	}
	return false
}

func setupSignals() (chan os.Signal, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	return sigCh, func() { signal.Stop(sigCh) }
}
