// Command lightgun debounces the light gun trigger, blinks its indicator LED
// and publishes trigger events to MQTT.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/lightgun/internal/clock"
	"github.com/sweeney/lightgun/internal/config"
	"github.com/sweeney/lightgun/internal/gpio"
	"github.com/sweeney/lightgun/internal/logic"
	"github.com/sweeney/lightgun/internal/metrics"
	"github.com/sweeney/lightgun/internal/mqtt"
	"github.com/sweeney/lightgun/internal/status"
	"github.com/sweeney/lightgun/internal/web"
)

const defaultConfigPath = "/etc/lightgun/lightgun.toml"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	flagSink := config.Default()

	root := &cobra.Command{
		Use:          "lightgun",
		Short:        "Light gun trigger and indicator daemon",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overrides := config.ChangedFlags(cmd.Flags())
			cfg, err := config.Load(configPath, overrides)
			if err != nil {
				return err
			}
			return run(cfg, configPath, overrides)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to TOML config file")
	config.BindFlags(root.PersistentFlags(), &flagSink)

	root.AddCommand(&cobra.Command{
		Use:   "state",
		Short: "Print the current trigger state and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath, config.ChangedFlags(cmd.Flags()))
			if err != nil {
				return err
			}
			return printState(cmd, cfg)
		},
	})

	return root
}

func printState(cmd *cobra.Command, cfg config.Config) error {
	button, err := gpio.NewRealButton(cfg.GPIO.Chip, cfg.GPIO.TriggerPin)
	if err != nil {
		return fmt.Errorf("init trigger: %w", err)
	}
	defer button.Close()

	pressed, err := button.Read()
	if err != nil {
		return fmt.Errorf("read trigger: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Trigger: %s\n", status.TriggerString(pressed))
	return nil
}

func run(cfg config.Config, configPath string, overrides config.Overrides) error {
	button, err := gpio.NewRealButton(cfg.GPIO.Chip, cfg.GPIO.TriggerPin)
	if err != nil {
		return fmt.Errorf("init trigger: %w", err)
	}
	defer button.Close()

	led, err := gpio.NewRealLED(cfg.GPIO.Chip, cfg.GPIO.LEDPin)
	if err != nil {
		return fmt.Errorf("init led: %w", err)
	}
	defer led.Close()

	publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	tracker.SetBlink(clock.Millis(cfg.LED.HighMs), clock.Millis(cfg.LED.LowMs))
	tracker.SetMQTTConnected(publisher.IsConnected())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	var reload <-chan config.Config
	if w := startWatcher(configPath, overrides); w != nil {
		defer w.Stop()
		reload = w.Updates()
	}

	log.Printf("started: trigger=%s/%d led=%s/%d poll=%dms debounce=%dms long_press=%dms broker=%s",
		cfg.GPIO.Chip, cfg.GPIO.TriggerPin, cfg.GPIO.Chip, cfg.GPIO.LEDPin,
		cfg.Trigger.PollMs, cfg.Trigger.DebounceMs, cfg.Trigger.LongPressMs, cfg.MQTT.Broker)

	ticker := time.NewTicker(time.Duration(cfg.Trigger.PollMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	deps := loopDeps{
		button:     button,
		led:        led,
		publisher:  publisher,
		mqttStatus: publisher,
		tracker:    tracker,
	}
	return runLoop(deps, cfg, time.Now, ticker.C, sigCh, reload)
}

// startWatcher watches the config file for blink and heartbeat changes.
// Returns nil if there is no file to watch.
func startWatcher(path string, overrides config.Overrides) *config.Watcher {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		log.Printf("config %s not found, using defaults and flags", path)
		return nil
	}

	w := config.NewWatcher(path, config.DefaultReloadDebounce, func(p string) (config.Config, error) {
		return config.Load(p, overrides)
	})
	if err := w.Start(); err != nil {
		log.Printf("config reload disabled: %v", err)
		return nil
	}
	return w
}

func statusConfig(cfg config.Config) status.Config {
	return status.Config{
		PollMs:      int64(cfg.Trigger.PollMs),
		DebounceMs:  int64(cfg.Trigger.DebounceMs),
		LongPressMs: int64(cfg.Trigger.LongPressMs),
		HeartbeatMs: int64(cfg.MQTT.HeartbeatMs),
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
	}
}

// loopDeps are the collaborators driven by runLoop. mqttStatus and tracker
// may be nil.
type loopDeps struct {
	button     gpio.ButtonReader
	led        gpio.LED
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
}

// blinkProfile returns the LED periods for the given trigger state.
func blinkProfile(cfg config.Config, pressed bool) (high, low clock.Millis) {
	if pressed {
		return clock.Millis(cfg.LED.HeldHighMs), clock.Millis(cfg.LED.HeldLowMs)
	}
	return clock.Millis(cfg.LED.HighMs), clock.Millis(cfg.LED.LowMs)
}

func runLoop(d loopDeps, cfg config.Config, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal, reload <-chan config.Config) error {
	startTime := now()
	clk := clock.NewManual(0)

	debouncer := logic.NewDebouncer(logic.DebounceConfig{
		Debounce:  clock.Millis(cfg.Trigger.DebounceMs),
		LongPress: clock.Millis(cfg.Trigger.LongPressMs),
	}, clk.Func())
	blinker := logic.NewBlinker(clk.Func())
	heartbeat := logic.NewHeartbeat(startTime)

	applyBlink := func(pressed bool) {
		high, low := blinkProfile(cfg, pressed)
		if err := blinker.SetPeriod(high, low); err != nil {
			log.Printf("blink %d/%d rejected: %v", high, low, err)
			return
		}
		if d.tracker != nil {
			d.tracker.SetBlink(high, low)
		}
	}
	applyBlink(false)

	ledKnown := false
	var ledLevel logic.Level

	refreshMQTT := func() {
		if d.tracker != nil && d.mqttStatus != nil {
			d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				refreshMQTT()
				event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case next := <-reload:
			if next.Trigger != cfg.Trigger || next.GPIO != cfg.GPIO || next.MQTT.Broker != cfg.MQTT.Broker {
				log.Printf("config reload: trigger, gpio and broker changes take effect on restart")
			}
			cfg.LED = next.LED
			cfg.MQTT.HeartbeatMs = next.MQTT.HeartbeatMs
			applyBlink(debouncer.IsPressed())
			if d.tracker != nil {
				d.tracker.SetConfig(statusConfig(cfg))
			}
			log.Printf("config reload: blink idle=%d/%d held=%d/%d heartbeat=%dms",
				cfg.LED.HighMs, cfg.LED.LowMs, cfg.LED.HeldHighMs, cfg.LED.HeldLowMs, cfg.MQTT.HeartbeatMs)

		case <-tick:
			t := now()
			ms := clock.FromTime(startTime, t)
			clk.Set(ms)

			pressed, err := d.button.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				metrics.GPIOError("trigger")
				continue
			}

			signals := debouncer.Update(pressed)
			metrics.ObserveSignals(signals)

			for _, event := range signals.Events(t, ms) {
				log.Printf("event: %s at %dms", event.Type, event.Millis)
				if err := d.publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			if signals.Pressed || signals.Released {
				applyBlink(signals.State)
			}

			level := blinker.Update()
			if !ledKnown || level != ledLevel {
				if err := d.led.Set(level.Bool()); err != nil {
					log.Printf("led write error: %v", err)
					metrics.GPIOError("led")
				} else {
					ledKnown = true
					ledLevel = level
					metrics.SetLED(level)
				}
			}

			if d.tracker != nil {
				d.tracker.Update(signals.State, blinker.State(), debouncer.Counts())
				refreshMQTT()
			}

			interval := time.Duration(cfg.MQTT.HeartbeatMs) * time.Millisecond
			if hb := heartbeat.Check(t, interval, debouncer.Counts()); hb != nil {
				log.Printf("heartbeat: uptime=%v pressed=%d released=%d released_long=%d",
					hb.Uptime, hb.Counts.Presses, hb.Counts.Releases, hb.Counts.LongReleases)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if d.tracker != nil {
					hbEvent.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := d.publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}
