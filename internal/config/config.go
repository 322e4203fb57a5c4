// Package config loads daemon settings from defaults, a TOML file and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"

	"github.com/sweeney/lightgun/internal/gpio"
	"github.com/sweeney/lightgun/internal/logic"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full daemon configuration. All durations are milliseconds.
type Config struct {
	GPIO    GPIOConfig    `toml:"gpio"`
	Trigger TriggerConfig `toml:"trigger"`
	LED     LEDConfig     `toml:"led"`
	MQTT    MQTTConfig    `toml:"mqtt"`
	HTTP    HTTPConfig    `toml:"http"`
}

// GPIOConfig selects the chip and lines.
type GPIOConfig struct {
	Chip       string `toml:"chip"`
	TriggerPin int    `toml:"trigger_pin"`
	LEDPin     int    `toml:"led_pin"`
}

// TriggerConfig controls sampling and debouncing of the trigger.
type TriggerConfig struct {
	PollMs      uint32 `toml:"poll_ms"`
	DebounceMs  uint32 `toml:"debounce_ms"`
	LongPressMs uint32 `toml:"long_press_ms"`
}

// LEDConfig holds the two blink profiles: idle, and while the trigger is held.
type LEDConfig struct {
	HighMs     uint32 `toml:"high_ms"`
	LowMs      uint32 `toml:"low_ms"`
	HeldHighMs uint32 `toml:"held_high_ms"`
	HeldLowMs  uint32 `toml:"held_low_ms"`
}

// MQTTConfig configures event publishing.
type MQTTConfig struct {
	Broker      string `toml:"broker"`
	ClientID    string `toml:"client_id"`
	HeartbeatMs uint32 `toml:"heartbeat_ms"`
}

// HTTPConfig configures the status server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		GPIO: GPIOConfig{
			Chip:       gpio.DefaultChip,
			TriggerPin: gpio.DefaultPinTrigger,
			LEDPin:     gpio.DefaultPinLED,
		},
		Trigger: TriggerConfig{
			PollMs:      1,
			DebounceMs:  uint32(logic.DefaultDebounce),
			LongPressMs: uint32(logic.DefaultLongPress),
		},
		LED: LEDConfig{
			HighMs:     uint32(logic.DefaultHighPeriod),
			LowMs:      uint32(logic.DefaultLowPeriod),
			HeldHighMs: 100,
			HeldLowMs:  100,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "lightgun",
			HeartbeatMs: 15 * 60 * 1000,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch {
	case c.Trigger.PollMs == 0:
		return fmt.Errorf("%w: trigger.poll_ms must be > 0", ErrInvalidConfig)
	case c.Trigger.LongPressMs < c.Trigger.DebounceMs:
		return fmt.Errorf("%w: trigger.long_press_ms (%d) shorter than debounce_ms (%d)",
			ErrInvalidConfig, c.Trigger.LongPressMs, c.Trigger.DebounceMs)
	case uint64(c.LED.HighMs)+uint64(c.LED.LowMs) == 0:
		return fmt.Errorf("%w: led.high_ms + led.low_ms must be > 0", ErrInvalidConfig)
	case uint64(c.LED.HeldHighMs)+uint64(c.LED.HeldLowMs) == 0:
		return fmt.Errorf("%w: led.held_high_ms + led.held_low_ms must be > 0", ErrInvalidConfig)
	case c.GPIO.TriggerPin < 0 || c.GPIO.LEDPin < 0:
		return fmt.Errorf("%w: gpio pins must be >= 0", ErrInvalidConfig)
	case c.GPIO.TriggerPin == c.GPIO.LEDPin:
		return fmt.Errorf("%w: trigger and LED share pin %d", ErrInvalidConfig, c.GPIO.LEDPin)
	}
	return nil
}

// BindFlags registers one flag per setting, writing into c.
func BindFlags(flags *pflag.FlagSet, c *Config) {
	flags.StringVar(&c.GPIO.Chip, "chip", c.GPIO.Chip, "GPIO chip name")
	flags.IntVar(&c.GPIO.TriggerPin, "pin-trigger", c.GPIO.TriggerPin, "Line offset of the trigger button (pulled up, active low)")
	flags.IntVar(&c.GPIO.LEDPin, "pin-led", c.GPIO.LEDPin, "Line offset of the indicator LED")

	flags.Uint32Var(&c.Trigger.PollMs, "poll-ms", c.Trigger.PollMs, "Trigger polling interval in ms")
	flags.Uint32Var(&c.Trigger.DebounceMs, "debounce-ms", c.Trigger.DebounceMs, "Minimum time between accepted trigger transitions in ms")
	flags.Uint32Var(&c.Trigger.LongPressMs, "long-press-ms", c.Trigger.LongPressMs, "Hold time for a release to count as a long press in ms")

	flags.Uint32Var(&c.LED.HighMs, "blink-high-ms", c.LED.HighMs, "Idle blink on time in ms")
	flags.Uint32Var(&c.LED.LowMs, "blink-low-ms", c.LED.LowMs, "Idle blink off time in ms")
	flags.Uint32Var(&c.LED.HeldHighMs, "held-high-ms", c.LED.HeldHighMs, "Blink on time while the trigger is held in ms")
	flags.Uint32Var(&c.LED.HeldLowMs, "held-low-ms", c.LED.HeldLowMs, "Blink off time while the trigger is held in ms")

	flags.StringVar(&c.MQTT.Broker, "broker", c.MQTT.Broker, "MQTT broker address")
	flags.StringVar(&c.MQTT.ClientID, "client-id", c.MQTT.ClientID, "MQTT client ID")
	flags.Uint32Var(&c.MQTT.HeartbeatMs, "heartbeat-ms", c.MQTT.HeartbeatMs, "Heartbeat interval in ms (0 to disable)")

	flags.StringVar(&c.HTTP.Addr, "http", c.HTTP.Addr, "HTTP status address (empty to disable)")
}

// Overrides holds flags set explicitly on the command line, by name.
type Overrides map[string]string

// ChangedFlags returns the flags that were set explicitly.
func ChangedFlags(flags *pflag.FlagSet) Overrides {
	o := Overrides{}
	flags.Visit(func(f *pflag.Flag) {
		o[f.Name] = f.Value.String()
	})
	return o
}

// Load builds a Config from defaults, then the TOML file at path (skipped if
// path is empty or the file does not exist), then overrides. The result is
// validated.
func Load(path string, overrides Overrides) (Config, error) {
	c := Default()

	if err := loadFile(&c, path); err != nil {
		return Config{}, err
	}

	flags := pflag.NewFlagSet("overrides", pflag.ContinueOnError)
	BindFlags(flags, &c)
	for name, value := range overrides {
		if flags.Lookup(name) == nil {
			continue
		}
		if err := flags.Set(name, value); err != nil {
			return Config{}, fmt.Errorf("apply --%s: %w", name, err)
		}
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func loadFile(c *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
