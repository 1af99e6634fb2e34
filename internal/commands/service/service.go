// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package service implements the warden service command group: the
// lifecycle verbs (start, stop, restart), the control-plane client
// verbs (ping, send, status), and the built-in text service they
// manage.
package service

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/warden/internal/config"
	"github.com/tombee/warden/internal/log"
	"github.com/tombee/warden/pkg/daemon"
)

// NewCommand creates the service command group.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use: "service",
		Annotations: map[string]string{
			"group": "system",
		},
		Short: "Manage the warden service",
		Long: `Commands for managing the warden service.

The service is a line-oriented daemon on a Unix control socket. The
lifecycle verbs start and stop it; send and ping talk to a running
instance over the socket.`,
	}

	cmd.AddCommand(newStartCommand())
	cmd.AddCommand(newStopCommand())
	cmd.AddCommand(newRestartCommand())
	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newPingCommand())
	cmd.AddCommand(newSendCommand())

	return cmd
}

// endpointFlags are the transport overrides shared by every verb: each
// one must resolve the same endpoint the daemon was started with.
type endpointFlags struct {
	configPath string
	socket     string
	tcpAddr    string
	pidFile    string
}

func (f *endpointFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file path (default: XDG config dir)")
	cmd.Flags().StringVar(&f.socket, "socket", "", "Unix socket path")
	cmd.Flags().StringVar(&f.tcpAddr, "tcp", "", "TCP host:port to use instead of a socket")
	cmd.Flags().StringVar(&f.pidFile, "pid-file", "", "PID file path")
}

// loadConfig resolves the effective configuration: file (or defaults),
// then environment, then flag overrides.
func (f *endpointFlags) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.Load(f.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if f.socket != "" {
		cfg.Service.Socket = f.socket
		cfg.Service.Host = ""
		cfg.Service.Port = 0
	}
	if f.tcpAddr != "" {
		host, port, err := splitHostPort(f.tcpAddr)
		if err != nil {
			return nil, err
		}
		cfg.Service.Host = host
		cfg.Service.Port = port
		cfg.Service.Socket = ""
	}
	if f.pidFile != "" {
		cfg.Service.PIDFile = f.pidFile
	}
	return cfg, nil
}

// buildService assembles the daemon controller from the resolved
// configuration and installs the built-in handler.
func buildService(cfg *config.Config, daemonize, force bool) (*daemon.Service, error) {
	dcfg := daemon.Config{
		PIDPath:      cfg.Service.PIDFile,
		LogPath:      cfg.Service.LogFile,
		SocketMode:   os.FileMode(cfg.Service.SocketMode),
		User:         cfg.Service.User,
		Group:        cfg.Service.Group,
		ProbeTimeout: cfg.Service.ProbeTimeout,
		StartTimeout: cfg.Service.StartTimeout,
		StopTimeout:  cfg.Service.StopTimeout,
		Daemonize:    daemonize,
		Force:        force,
	}
	switch {
	case cfg.Service.Socket != "":
		dcfg.SetSocketPath(cfg.Service.Socket)
	case cfg.Service.Host != "":
		dcfg.SetAddr(cfg.Service.Host, cfg.Service.Port)
	default:
		dcfg.SetSocketPath(daemon.DefaultSocketPath(cfg.Service.Name))
	}

	logger := log.New(&log.Config{
		Level:  cfg.Log.Level,
		Format: log.Format(cfg.Log.Format),
	}).With(log.String(log.ServiceKey, cfg.Service.Name))

	opts := []daemon.Option{daemon.WithLogger(logger)}
	if cfg.Service.Journal != "" {
		opts = append(opts, daemon.WithJournal(cfg.Service.Journal))
	}

	svc, err := daemon.New(cfg.Service.Name, dcfg, opts...)
	if err != nil {
		return nil, err
	}
	svc.SetOnHandle(textHandler)
	return svc, nil
}
