package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig points the continuous profiler at a Pyroscope server
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
}

func (c ProfilerConfig) validate() error {
	var errs []error
	if c.ServerAddress == "" {
		errs = append(errs, errors.New("profiler server address is required"))
	}
	if c.ApplicationName == "" {
		errs = append(errs, errors.New("profiler application name is required"))
	}
	return errors.Join(errs...)
}

// Allocation is CPU-bound decimal arithmetic with short-lived slices, so
// both CPU and allocation profiles are collected.
var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// Profiler is the running Pyroscope session, or a no-op when disabled
type Profiler struct {
	session  *pyroscope.Profiler
	log      *zap.Logger
	stopOnce sync.Once
	stopped  chan struct{}
}

func NewProfiler(cfg ProfilerConfig, log *zap.Logger) (*Profiler, error) {
	p := &Profiler{log: log, stopped: make(chan struct{})}
	if !cfg.Enabled {
		log.Info("Telemetry pipeline disabled", zap.String("signal", "profiles"))
		return p, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	tags := map[string]string{}
	if host, err := os.Hostname(); err == nil {
		tags["hostname"] = host
	}
	session, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.ApplicationName,
		ServerAddress:     cfg.ServerAddress,
		BasicAuthUser:     cfg.BasicAuthUser,
		BasicAuthPassword: cfg.BasicAuthPassword,
		Logger:            pyroscopeLogger{log.Named("pyroscope").Sugar()},
		Tags:              tags,
		ProfileTypes:      profileTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	p.session = session
	log.Info("Telemetry pipeline started",
		zap.String("signal", "profiles"),
		zap.String("endpoint", cfg.ServerAddress),
	)
	return p, nil
}

// Stop flushes buffered profiles. Later calls return nil.
func (p *Profiler) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		close(p.stopped)
		if p.session == nil {
			return
		}
		if err = p.session.Stop(); err != nil {
			err = fmt.Errorf("stop pyroscope: %w", err)
			return
		}
		p.log.Info("Telemetry pipeline stopped", zap.String("signal", "profiles"))
	})
	return err
}

func (p *Profiler) IsEnabled() bool {
	if p.session == nil {
		return false
	}
	select {
	case <-p.stopped:
		return false
	default:
		return true
	}
}

// pyroscopeLogger demotes the agent's chatty info output to debug
type pyroscopeLogger struct {
	s *zap.SugaredLogger
}

func (l pyroscopeLogger) Infof(format string, args ...any)  { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Debugf(format string, args ...any) { l.s.Debugf(format, args...) }
func (l pyroscopeLogger) Errorf(format string, args ...any) { l.s.Errorf(format, args...) }
