package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings holds every option of a gathering run. It is built once by Load
// and passed by value; nothing mutates it afterwards.
type Settings struct {
	Training TrainingSettings `mapstructure:",squash"`
	Model    ModelSettings    `mapstructure:",squash"`
	Gather   GatherSettings   `mapstructure:",squash"`
	Engine   EngineSettings   `mapstructure:",squash"`
	Logging  LoggingSettings  `mapstructure:",squash"`
}

// TrainingSettings are consumed by the downstream learner. The gatherer only
// carries them so a session is fully described by one value.
type TrainingSettings struct {
	LearningRate float64 `mapstructure:"learning_rate"`
	BatchSize    int     `mapstructure:"batch_size"`
	Episodes     int     `mapstructure:"episodes"`
	Cpuct        float64 `mapstructure:"Cpuct"`
	Temperature  float64 `mapstructure:"T"`
	LogDir       string  `mapstructure:"log_dir"`
	LogFreq      int     `mapstructure:"log_freq"`
	SaveDir      string  `mapstructure:"save_dir"`
	SaveFreq     int     `mapstructure:"save_freq"`
	Extension    string  `mapstructure:"extension"`
	TestEpisodes int     `mapstructure:"test_episodes"`
}

// ModelSettings select the network the data is shaped for
type ModelSettings struct {
	Model       string   `mapstructure:"model"`
	Activation  string   `mapstructure:"activ"`
	Initializer string   `mapstructure:"init"`
	Actions     []string `mapstructure:"actions"`
	SkipRate    int      `mapstructure:"skiprate"`
	NumFrames   int      `mapstructure:"num_frames"`
	NumChannels int      `mapstructure:"num_channels"`
}

// GatherSettings control the data gathering loop itself
type GatherSettings struct {
	Episodes int    `mapstructure:"gather_episodes"`
	Output   string `mapstructure:"output"`
	Seed     int64  `mapstructure:"seed"`
}

// EngineSettings pick the simulation backend
type EngineSettings struct {
	Backend string `mapstructure:"engine"`
	GymHost string `mapstructure:"gym_host"`
	GymEnv  string `mapstructure:"gym_env"`
}

// LoggingSettings configure zerolog output
type LoggingSettings struct {
	Level  string `mapstructure:"log_level"`
	Format string `mapstructure:"log_format"`
}

// Resolution is a frame size in pixels
type Resolution struct {
	Height int
	Width  int
}

var (
	// Models lists the supported CNN architectures
	Models = []string{"atari", "alexnet", "zfnet", "vggnet", "googlenet"}
	// Activations lists the supported activation functions
	Activations = []string{"relu", "elu", "selu", "tanh", "sigmoid"}
	// Initializers lists the supported weight initializers
	Initializers = []string{"glorot_normal", "glorot_uniform", "random_normal", "random_uniform", "truncated_normal"}
	// Backends lists the available engine backends
	Backends = []string{"synthetic", "gym"}

	// modelResolutions is the input size each architecture expects
	modelResolutions = map[string]Resolution{
		"atari":     {Height: 84, Width: 84},
		"alexnet":   {Height: 227, Width: 227},
		"zfnet":     {Height: 224, Width: 224},
		"vggnet":    {Height: 224, Width: 224},
		"googlenet": {Height: 224, Width: 224},
	}

	actionNames = []string{"shoot", "left", "right"}
	logLevels   = []string{"debug", "info", "warn", "error"}
	logFormats  = []string{"console", "json"}
)

// Resolution returns the preprocessed frame size for the configured model
func (s Settings) Resolution() Resolution {
	return modelResolutions[s.Model.Model]
}

// SessionName returns the extension override, or fallback when none was given
func (s Settings) SessionName(fallback string) string {
	if s.Training.Extension != "" {
		return s.Training.Extension
	}
	return fallback
}

// setViperDefaults mirrors the flag defaults so config files and environment
// variables work without flags
func setViperDefaults(v *viper.Viper) {
	// Training
	v.SetDefault("learning_rate", 1e-4)
	v.SetDefault("batch_size", 8)
	v.SetDefault("episodes", 1000)
	v.SetDefault("Cpuct", 0.99)
	v.SetDefault("T", 0.99)
	v.SetDefault("log_dir", "./logs/")
	v.SetDefault("log_freq", 100)
	v.SetDefault("save_dir", "./saves/")
	v.SetDefault("save_freq", 100)
	v.SetDefault("extension", "")
	v.SetDefault("test_episodes", 100)

	// Model
	v.SetDefault("model", "atari")
	v.SetDefault("activ", "relu")
	v.SetDefault("init", "glorot_normal")
	v.SetDefault("actions", []string{"shoot", "left", "right"})
	v.SetDefault("skiprate", 3)
	v.SetDefault("num_frames", 4)
	v.SetDefault("num_channels", 1)

	// Gathering
	v.SetDefault("gather_episodes", 20)
	v.SetDefault("output", "data.bin")
	v.SetDefault("seed", 0)

	// Engine
	v.SetDefault("engine", "synthetic")
	v.SetDefault("gym_host", "localhost:5001")
	v.SetDefault("gym_env", "VizdoomBasic-v0")

	// Logging
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// BindFlags declares every command-line option on fs
func BindFlags(fs *pflag.FlagSet) {
	// Training
	fs.Float64("learning_rate", 1e-4, "Learning rate (gradient step size)")
	fs.Int("batch_size", 8, "Positions in queue to be evaluated at a time")
	fs.Int("episodes", 1000, "Number of episodes to train on")
	fs.Float64("Cpuct", 0.99, "Constant for determing exploration rate")
	fs.Float64("T", 0.99, "Temperature for exploration")
	fs.String("log_dir", "./logs/", "Directory to save logs")
	fs.Int("log_freq", 100, "Number of steps before logging weights")
	fs.String("save_dir", "./saves/", "Directory to save current model")
	fs.Int("save_freq", 100, "Number of episodes before saving model")
	fs.StringP("extension", "f", "", "Specific name to save training session or restore from")

	// Testing
	fs.Int("test_episodes", 100, "Number of episodes to test on")

	// Model
	fs.String("model", "atari", "CNN architecture to use ("+strings.Join(Models, ", ")+")")
	fs.String("activ", "relu", "Activation function to use ("+strings.Join(Activations, ", ")+")")
	fs.String("init", "glorot_normal", "Initialization function to use ("+strings.Join(Initializers, ", ")+")")
	fs.StringSlice("actions", []string{"shoot", "left", "right"}, "Possible actions to take ("+strings.Join(actionNames, ", ")+")")
	fs.Int("skiprate", 3, "Number of frames to skip during each action. Current action will be repeated for duration of skip")
	fs.Int("num_frames", 4, "Number of stacked frames to send to CNN, depicting history")
	fs.Int("num_channels", 1, "Channels per preprocessed frame (1 greyscale, 3 colour)")

	// Gathering
	fs.Int("gather_episodes", 20, "Number of episodes to gather transitions from")
	fs.String("output", "data.bin", "File the gathered transitions are written to")
	fs.Int64("seed", 0, "Random seed for action sampling (0 uses the clock)")

	// Engine
	fs.String("engine", "synthetic", "Engine backend ("+strings.Join(Backends, ", ")+")")
	fs.String("gym_host", "localhost:5001", "Address of the gym socket server for the gym backend")
	fs.String("gym_env", "VizdoomBasic-v0", "Environment id requested from the gym socket server")

	// Logging
	fs.String("log_level", "info", "Log level (debug, info, warn, error)")
	fs.String("log_format", "console", "Log format (console, json)")
	fs.String("config", "", "Path to an optional YAML config file")
}

// Load resolves defaults, an optional config file, GATHER_* environment
// variables and any flags already bound to v into a validated Settings value.
func Load(v *viper.Viper) (Settings, error) {
	setViperDefaults(v)

	v.SetEnvPrefix("GATHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := Validate(s); err != nil {
		return Settings{}, fmt.Errorf("config validation failed: %w", err)
	}

	return s, nil
}

// Validate checks per-field choices and ranges
func Validate(s Settings) error {
	if err := oneOf("model", s.Model.Model, Models); err != nil {
		return err
	}
	if err := oneOf("activ", s.Model.Activation, Activations); err != nil {
		return err
	}
	if err := oneOf("init", s.Model.Initializer, Initializers); err != nil {
		return err
	}
	if len(s.Model.Actions) == 0 {
		return fmt.Errorf("actions must name at least one action")
	}
	seen := make(map[string]bool, len(s.Model.Actions))
	for _, name := range s.Model.Actions {
		if err := oneOf("actions", name, actionNames); err != nil {
			return err
		}
		if seen[name] {
			return fmt.Errorf("actions contains %q twice", name)
		}
		seen[name] = true
	}
	if s.Model.SkipRate <= 0 {
		return fmt.Errorf("skiprate must be positive")
	}
	if s.Model.NumFrames <= 0 {
		return fmt.Errorf("num_frames must be positive")
	}
	if s.Model.NumChannels != 1 && s.Model.NumChannels != 3 {
		return fmt.Errorf("num_channels must be 1 or 3, got %d", s.Model.NumChannels)
	}

	if s.Gather.Episodes <= 0 {
		return fmt.Errorf("gather_episodes must be positive")
	}
	if s.Gather.Output == "" {
		return fmt.Errorf("output is required")
	}

	if err := oneOf("engine", s.Engine.Backend, Backends); err != nil {
		return err
	}
	if s.Engine.Backend == "gym" && (s.Engine.GymHost == "" || s.Engine.GymEnv == "") {
		return fmt.Errorf("gym_host and gym_env are required for the gym engine")
	}

	if err := oneOf("log_level", s.Logging.Level, logLevels); err != nil {
		return err
	}
	if err := oneOf("log_format", s.Logging.Format, logFormats); err != nil {
		return err
	}

	return nil
}

func oneOf(key, value string, choices []string) error {
	for _, c := range choices {
		if value == c {
			return nil
		}
	}
	return fmt.Errorf("invalid choice for %s: %q (choose from %s)", key, value, strings.Join(choices, ", "))
}
