package config

import (
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/domino14/glassbot/simulator"
	"github.com/domino14/glassbot/solver"
)

const (
	ConfigDebug             = "debug"
	ConfigServerURL         = "server-url"
	ConfigTransport         = "transport"
	ConfigNatsURL           = "nats-url"
	ConfigNatsSubject       = "nats-subject"
	ConfigLookaheadDepth    = "lookahead-depth"
	ConfigThreads           = "threads"
	ConfigTopOutMargin      = "top-out-margin"
	ConfigShortcutThreshold = "shortcut-threshold"
	ConfigWeightLines       = "weight-lines"
	ConfigWeightHeight      = "weight-height"
	ConfigWeightHoles       = "weight-holes"
	ConfigWeightBumpiness   = "weight-bumpiness"
	ConfigHoleExponent      = "hole-exponent"
	ConfigNeighborExponent  = "neighbor-exponent"
	ConfigDialAttempts      = "dial-attempts"
	ConfigDialDelay         = "dial-delay"
	ConfigCPUProfile        = "cpu-profile"
)

const (
	TransportWebsocket = "websocket"
	TransportNats      = "nats"
)

type Config struct {
	viper.Viper
}

func defaultThreads() int {
	return max(1, runtime.NumCPU()-1)
}

func (c *Config) setDefaults() {
	w := simulator.DefaultWeights
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigServerURL, "")
	c.SetDefault(ConfigTransport, TransportWebsocket)
	c.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	c.SetDefault(ConfigNatsSubject, "glassbot.decide")
	c.SetDefault(ConfigLookaheadDepth, solver.DefaultLookahead)
	c.SetDefault(ConfigThreads, defaultThreads())
	c.SetDefault(ConfigTopOutMargin, simulator.DefaultTopOutMargin)
	c.SetDefault(ConfigShortcutThreshold, solver.DefaultShortcutThreshold)
	c.SetDefault(ConfigWeightLines, w.Lines)
	c.SetDefault(ConfigWeightHeight, w.Height)
	c.SetDefault(ConfigWeightHoles, w.Holes)
	c.SetDefault(ConfigWeightBumpiness, w.Bumpiness)
	c.SetDefault(ConfigHoleExponent, w.HoleExponent)
	c.SetDefault(ConfigNeighborExponent, w.NeighborExponent)
	c.SetDefault(ConfigDialAttempts, 5)
	c.SetDefault(ConfigDialDelay, time.Second)
	c.SetDefault(ConfigCPUProfile, "")
}

func newConfig() *Config {
	c := &Config{Viper: *viper.New()}
	c.SetEnvPrefix("glassbot")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()
	c.setDefaults()
	return c
}

// DefaultConfig returns the defaults, with environment overrides but no
// command-line flags.
func DefaultConfig() *Config {
	return newConfig()
}

// Load parses args on top of the defaults and environment.
func (c *Config) Load(args []string) error {
	*c = *newConfig()

	fs := pflag.NewFlagSet("glassbot", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "debug logging on")
	fs.String(ConfigServerURL, "", "websocket URL of the game server, including the player credentials")
	fs.String(ConfigTransport, TransportWebsocket, "transport to serve decisions on: websocket or nats")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "NATS server to connect to")
	fs.String(ConfigNatsSubject, "glassbot.decide", "NATS subject to answer decision requests on")
	fs.Int(ConfigLookaheadDepth, solver.DefaultLookahead, "number of figures to search, the current one included")
	fs.Int(ConfigThreads, defaultThreads(), "number of threads for the top level of the search")
	fs.Int(ConfigTopOutMargin, simulator.DefaultTopOutMargin, "rows under the top of the glass a figure may not land in")
	fs.Int(ConfigShortcutThreshold, solver.DefaultShortcutThreshold, "completed lines before an I figure goes to the right wall")
	fs.Float64(ConfigWeightLines, simulator.DefaultWeights.Lines, "completed lines coefficient")
	fs.Float64(ConfigWeightHeight, simulator.DefaultWeights.Height, "aggregate height coefficient")
	fs.Float64(ConfigWeightHoles, simulator.DefaultWeights.Holes, "weighted holes coefficient")
	fs.Float64(ConfigWeightBumpiness, simulator.DefaultWeights.Bumpiness, "bumpiness coefficient")
	fs.Int(ConfigHoleExponent, simulator.DefaultWeights.HoleExponent, "depth exponent for holes in their own column")
	fs.Int(ConfigNeighborExponent, simulator.DefaultWeights.NeighborExponent, "depth exponent for cells beside a hole")
	fs.Int(ConfigDialAttempts, 5, "attempts to connect to the game server")
	fs.Duration(ConfigDialDelay, time.Second, "delay between connection attempts")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return c.BindPFlags(fs)
}

// Weights collects the heuristic coefficients.
func (c *Config) Weights() simulator.Weights {
	return simulator.Weights{
		Lines:            c.GetFloat64(ConfigWeightLines),
		Height:           c.GetFloat64(ConfigWeightHeight),
		Holes:            c.GetFloat64(ConfigWeightHoles),
		Bumpiness:        c.GetFloat64(ConfigWeightBumpiness),
		HoleExponent:     c.GetInt(ConfigHoleExponent),
		NeighborExponent: c.GetInt(ConfigNeighborExponent),
	}
}

// NewSolver builds a solver set up with the search settings.
func (c *Config) NewSolver() *solver.Solver {
	s := &solver.Solver{}
	s.Init(c.Weights())
	s.SetLookahead(c.GetInt(ConfigLookaheadDepth))
	s.SetThreads(c.GetInt(ConfigThreads))
	s.SetTopOutMargin(c.GetInt(ConfigTopOutMargin))
	s.SetShortcutThreshold(c.GetInt(ConfigShortcutThreshold))
	return s
}

// SanitizedSettings hides the credentials carried in the server URL.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	if u, ok := settings[ConfigServerURL].(string); ok && u != "" {
		if i := strings.Index(u, "?"); i >= 0 {
			settings[ConfigServerURL] = u[:i] + "?..."
		}
	}
	return settings
}
