package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/evtouch/evtouch/internal/pkg/evtouch"
	"github.com/evtouch/evtouch/internal/pkg/input"
	"github.com/evtouch/evtouch/internal/pkg/logger"
	"github.com/evtouch/evtouch/internal/pkg/touch"
	"github.com/evtouch/evtouch/internal/pkg/touch/profile"
)

var log = logger.GetLogger()

var (
	device  = flag.String("device", "", "touchscreen event handler, overrides the config file")
	grab    = flag.Bool("grab", false, "grab input device for exclusive usage")
	nocolor = flag.Bool("nocolor", false, "disable color")
	silent  = flag.Bool("silent", false, "no output logging, best performance")

	logLevel = flag.Int("loglevel", 2,
		"logging level, each level enables additional information class (0-3)\n"+
			"\navailable options:\n"+
			"0: errors only\n"+
			"1: warnings (protocol violations reported by the decoder)\n"+
			"2: general info (device appearance, profile reloads)\n"+
			"3: touch events",
	)
)

// stdoutSink prints one line per window event on stdout, ready to be
// consumed by whatever windowing layer sits on the other end of the pipe.
// Logs go to stderr so the two streams never mix.
type stdoutSink struct{}

func (stdoutSink) Dispatch(ev touch.WindowEvent) {
	fmt.Printf("%d %s %.3f %.3f %d\n", ev.ID, ev.Phase, ev.X, ev.Y, ev.Timestamp)
	log.Info(fmt.Sprintf("touch %d %s (%.1f, %.1f)", ev.ID, ev.Phase, ev.X, ev.Y), logger.Touch)
}

func handleSigs(wg *sync.WaitGroup, sigs <-chan os.Signal, cancel func()) {
	defer wg.Done()
	var counter int
	for sig := range sigs {
		if counter > 0 {
			fmt.Println("Dirty exit")
			os.Exit(1)
		}
		log.Info(fmt.Sprintf("signal received: %v", sig), logger.Debug)
		cancel()
		counter++
	}
}

func diagnostics(deviceName string) touch.DiagnosticFunc {
	return func(d touch.Diagnostic) {
		log.Info(
			fmt.Sprintf("protocol violation: %s (code=0x%02x, value=%d)", d.Kind, d.Code, d.Value),
			zap.Int("slot", d.Slot),
			zap.String("device_name", deviceName),
			logger.Warning,
		)
	}
}

func resolveProfile(profiles profile.ProfileMap, id input.DeviceID, cfg evtouch.Config) profile.Profile {
	prof, err := profiles.Find(id)
	if err != nil {
		log.Info("no matching calibration profile, using screen extent from main config", logger.Info)
	}
	if prof.Width == 0 {
		prof.Width = cfg.Screen.Width
	}
	if prof.Height == 0 {
		prof.Height = cfg.Screen.Height
	}
	return prof
}

func main() {
	flag.Parse()

	var sigs = make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())

	wg := sync.WaitGroup{}
	wg.Add(1)
	go handleSigs(&wg, sigs, cancel)

	go processLogs(*nocolor, *logLevel, *silent)

	err := evtouch.CreateConfigDirectoryIfNeeded()
	if err != nil {
		log.Info(fmt.Sprintf("config generation failed: %v", err), logger.Error)
		os.Exit(1)
	}

	cfg, err := evtouch.LoadConfig(evtouch.ConfigFile)
	if err != nil {
		log.Info(fmt.Sprintf("loading config failed: %v", err), logger.Error)
		os.Exit(1)
	}
	log.Info(fmt.Sprintf("evtouch config: %+v", cfg), logger.Debug)

	path := cfg.Device.Path
	if *device != "" {
		path = *device
	}
	if path == "" {
		log.Info("no device given, set device.path in the config or pass -device", logger.Error)
		os.Exit(1)
	}

	ts, err := input.OpenTouchscreen(path)
	if err != nil {
		log.Info(fmt.Sprintf("opening touchscreen failed: %v", err), logger.Error)
		os.Exit(1)
	}
	log.Info(fmt.Sprintf("handling device: %s", ts), logger.Info)

	if *grab || cfg.Device.Grab {
		err = ts.Grab()
		if err != nil {
			log.Info(fmt.Sprintf("%v", err), zap.String("device_name", ts.Name()), logger.Warning)
		} else {
			log.Info("Grabbing device for exclusive usage", zap.String("device_name", ts.Name()), logger.Debug)
		}
	}

	caps := ts.Capabilities()
	log.Info(fmt.Sprintf(
		"capability report: slots %d-%d, x %d-%d, y %d-%d",
		caps.MinSlot, caps.MaxSlot,
		caps.RangeX.Min, caps.RangeX.Max, caps.RangeY.Min, caps.RangeY.Max,
	), logger.Debug)

	profiles, err := profile.Load(cfg.Profiles.Directory)
	if err != nil {
		log.Info(fmt.Sprintf("loading profiles failed: %v", err), logger.Warning)
		profiles = profile.ProfileMap{}
	}
	prof := resolveProfile(profiles, ts.ID(), cfg)

	pipe, err := touch.NewPipeline(caps, prof.MapperConfig(caps), stdoutSink{}, diagnostics(ts.Name()))
	if err != nil {
		log.Info(fmt.Sprintf("pipeline construction failed: %v", err), logger.Error)
		os.Exit(1)
	}

	events, failure := ts.ProcessEvents(ctx)
	changes := profile.DetectChanges(ctx, cfg.Profiles.Directory)

	// single feeding loop, the pipeline state is never touched from another
	// goroutine
	var lastTimestamp uint64
	for events != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				break
			}
			lastTimestamp = ev.Timestamp
			pipe.Feed(ev)
		case _, ok := <-changes:
			if !ok {
				changes = nil
				break
			}
			profiles, err = profile.Load(cfg.Profiles.Directory)
			if err != nil {
				log.Info(fmt.Sprintf("reloading profiles failed: %v", err), logger.Warning)
				break
			}
			prof = resolveProfile(profiles, ts.ID(), cfg)
			err = pipe.Reconfigure(prof.MapperConfig(caps))
			if err != nil {
				log.Info(fmt.Sprintf("reconfiguration rejected: %v", err), logger.Warning)
				break
			}
			log.Info("calibration profile reloaded", logger.Info)
		}
	}

	var exitCode int
	if err, ok := <-failure; ok && err != nil {
		// end every live touch before reporting the failure
		log.Info(fmt.Sprintf("%v", pipe.Fail(err, lastTimestamp)), logger.Error)
		exitCode = 1
	} else {
		// regular shutdown, whatever is still touching gets its ended event
		_ = pipe.Fail(nil, lastTimestamp)
	}

	cancel()
	close(sigs)
	wg.Wait()
	close(logger.Messages)

	os.Exit(exitCode)
}
