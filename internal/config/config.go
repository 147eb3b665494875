package config

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"zebrafish-isolator/internal/logger"
	"zebrafish-isolator/internal/models"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix         = "ZEBRAFISH"
	DefaultConfigName = "zebrafish-isolator"

	BackendNative = "native"
	BackendOpenCV = "opencv"

	DisplayNone   = "none"
	DisplayOpenCV = "opencv"
	DisplayFyne   = "fyne"
)

type ProcessingConfig struct {
	Threshold  int    `mapstructure:"threshold"`
	MaxValue   int    `mapstructure:"max_value"`
	KernelSize int    `mapstructure:"kernel_size"`
	Border     string `mapstructure:"border"`
}

type Config struct {
	Directory      string           `mapstructure:"directory"`
	BackgroundFile string           `mapstructure:"background_file"`
	FrameFile      string           `mapstructure:"frame_file"`
	Backend        string           `mapstructure:"backend"`
	Display        string           `mapstructure:"display"`
	LogLevel       string           `mapstructure:"log_level"`
	Processing     ProcessingConfig `mapstructure:"processing"`
	ConfigFile     string           `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("background_file", "background.png")
	v.SetDefault("frame_file", "fish01.png")
	v.SetDefault("backend", BackendNative)
	v.SetDefault("display", DisplayOpenCV)
	v.SetDefault("log_level", "info")
	v.SetDefault("processing.threshold", models.DefaultThreshold)
	v.SetDefault("processing.max_value", models.DefaultMaxValue)
	v.SetDefault("processing.kernel_size", models.DefaultKernelSize)
	v.SetDefault("processing.border", string(models.BorderZero))
}

func newFlagSet(name string, output io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [flags] <images-directory>\n\n", name)
		fs.PrintDefaults()
	}

	fs.String("config", "", "path to a YAML config file")
	fs.String("background", "background.png", "background image file name inside the directory")
	fs.String("frame", "fish01.png", "frame image file name inside the directory")
	fs.String("backend", BackendNative, "pixel backend: native or opencv")
	fs.String("display", DisplayOpenCV, "stage viewer: none, opencv or fyne")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.Int("threshold", models.DefaultThreshold, "binary threshold cutoff (pixels above become foreground)")
	fs.Int("max-value", models.DefaultMaxValue, "value written for foreground pixels")
	fs.Int("kernel-size", models.DefaultKernelSize, "erosion structuring element size (odd)")
	fs.String("border", string(models.BorderZero), "erosion border policy: zero, replicate or ignore")
	return fs
}

var flagKeys = map[string]string{
	"background":  "background_file",
	"frame":       "frame_file",
	"backend":     "backend",
	"display":     "display",
	"log-level":   "log_level",
	"threshold":   "processing.threshold",
	"max-value":   "processing.max_value",
	"kernel-size": "processing.kernel_size",
	"border":      "processing.border",
}

// Load resolves configuration from defaults, an optional YAML file, the
// ZEBRAFISH_* environment and command-line flags, in increasing priority.
// args excludes the program name. pflag.ErrHelp is returned for -h.
func Load(name string, args []string, output io.Writer) (*Config, error) {
	fs := newFlagSet(name, output)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("log_level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return nil, err
	}
	// no default, so AutomaticEnv alone would not reach Unmarshal
	if err := v.BindEnv("directory"); err != nil {
		return nil, err
	}

	for flagName, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flagName)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flagName, err)
		}
	}

	configFile, _ := fs.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	switch fs.NArg() {
	case 1:
		cfg.Directory = fs.Arg(0)
	case 0:
		if cfg.Directory == "" {
			fs.Usage()
			return nil, errors.New("missing images directory argument")
		}
	default:
		fs.Usage()
		return nil, fmt.Errorf("expected one images directory, got %d arguments", fs.NArg())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendNative, BackendOpenCV:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Display {
	case DisplayNone, DisplayOpenCV, DisplayFyne:
	default:
		return fmt.Errorf("unknown display %q", c.Display)
	}

	if c.BackgroundFile == "" || c.FrameFile == "" {
		return errors.New("background and frame file names must not be empty")
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	_, err := c.Parameters()
	return err
}

// Parameters converts the processing section into validated pipeline
// parameters.
func (c *Config) Parameters() (models.ProcessingParameters, error) {
	p := c.Processing
	if p.Threshold < 0 || p.Threshold > 255 {
		return models.ProcessingParameters{}, fmt.Errorf("threshold %d out of range [0, 255]", p.Threshold)
	}
	if p.MaxValue < 1 || p.MaxValue > 255 {
		return models.ProcessingParameters{}, fmt.Errorf("max value %d out of range [1, 255]", p.MaxValue)
	}

	border, err := models.ParseBorderPolicy(p.Border)
	if err != nil {
		return models.ProcessingParameters{}, err
	}

	params := models.ProcessingParameters{
		Threshold:  uint8(p.Threshold),
		MaxValue:   uint8(p.MaxValue),
		KernelSize: p.KernelSize,
		Border:     border,
	}
	if err := params.Validate(); err != nil {
		return models.ProcessingParameters{}, err
	}
	return params, nil
}
