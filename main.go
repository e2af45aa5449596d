// Package main provides the entry point for the ttsbytes CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/ttsbytes/internal/tts"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	opts       options

	rootCmd = &cobra.Command{
		Use:   "ttsbytes [TRANSCRIPT|FILE|-]",
		Short: "Synthesize speech into raw audio bytes",
		Long: paragraph(
			fmt.Sprintf("\nSend a transcript to the %s endpoint and write the audio it returns. Connection failures are retried with exponential backoff.", keyword("/tts/bytes")),
		),
		Example: paragraph("ttsbytes \"Hello there\" --voice a0e99841 -o hello.pcm\ncat notes.md | ttsbytes --markdown --play\nttsbytes --clipboard --format raw_pcm_s16le_16000 > clip.pcm"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// options are the per-invocation settings that do not live in the config
// file.
type options struct {
	duration  int
	markdown  bool
	clipboard bool
	output    string
	play      bool
	speed     string
	emotion   []string
	embedding []float64
	debug     bool

	hasDuration bool
	cfg         tts.Config
}

func validateOptions(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts.cfg = cfg

	opts.hasDuration = cmd.Flags().Changed("duration")
	if opts.hasDuration && opts.duration < 0 {
		return fmt.Errorf("duration cannot be negative, got %d", opts.duration)
	}

	if opts.debug || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	return nil
}

// loadConfig layers config file, flags and environment over the defaults.
func loadConfig(cmd *cobra.Command) (tts.Config, error) {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(expandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return tts.Config{}, fmt.Errorf("unable to read config file: %w", err)
		}
	}

	cfg, err := tts.LoadConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	return tts.LoadConfigFromViper(cfg)
}

func execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	src, err := resolveSource(args)
	if err != nil {
		return err
	}

	transcript, err := src.read()
	if err != nil {
		return err
	}
	if opts.markdown || src.isMarkdown() {
		transcript = tts.StripMarkdown(transcript)
	}
	if strings.TrimSpace(transcript) == "" {
		return tts.ErrEmptyTranscript
	}

	return synthesize(ctx, transcript)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		_ = closer()
		os.Exit(exitCode(err))
	}
	_ = closer()
}

// exitCode distinguishes the service refusing a request from the service
// being unreachable.
func exitCode(err error) int {
	var remote *tts.RemoteError
	var exhausted *tts.ExhaustedRetriesError
	switch {
	case errors.As(err, &remote):
		return 2
	case errors.As(err, &exhausted):
		return 3
	default:
		return 1
	}
}

func init() {
	_ = godotenv.Load()
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log debug output to the log file")

	// Request
	flags.StringP("voice", "v", "", "voice id")
	flags.Float64SliceVar(&opts.embedding, "embedding", nil, "voice embedding, instead of a voice id")
	flags.StringVar(&opts.speed, "speed", "", "experimental speed control: slowest, slow, normal, fast, fastest, or -1.0 to 1.0")
	flags.StringSliceVar(&opts.emotion, "emotion", nil, "experimental emotion controls, e.g. positivity:high")
	flags.StringP("model", "m", tts.DefaultModelID, "model id")
	flags.StringP("format", "f", tts.DefaultFormatName, "output format name (see `ttsbytes formats`)")
	flags.StringP("language", "l", "", "language of the transcript, e.g. en or pt-BR")
	flags.IntVarP(&opts.duration, "duration", "d", 0, "target audio duration in seconds")

	// Input and output
	flags.BoolVar(&opts.markdown, "markdown", false, "strip markdown from the transcript")
	flags.BoolVarP(&opts.clipboard, "clipboard", "c", false, "read the transcript from the clipboard")
	flags.StringVarP(&opts.output, "output", "o", "", "write audio to FILE instead of stdout")
	flags.BoolVarP(&opts.play, "play", "p", false, "play the audio (pcm_f32le and pcm_s16le only)")
	flags.Bool("cache", false, "reuse audio from earlier identical requests")

	// Transport
	flags.String("base-url", tts.DefaultBaseURL, "service base URL")
	flags.Duration("timeout", tts.DefaultTimeout, "connect and read timeout")
	flags.IntP("retries", "r", tts.DefaultMaxRetries, "total attempts on connection errors")
	flags.Duration("backoff", tts.DefaultBackoffFactor, "delay before the second attempt, doubled for each later one")

	// Config bindings
	_ = viper.BindPFlag("voice_id", flags.Lookup("voice"))
	_ = viper.BindPFlag("model_id", flags.Lookup("model"))
	_ = viper.BindPFlag("format", flags.Lookup("format"))
	_ = viper.BindPFlag("language", flags.Lookup("language"))
	_ = viper.BindPFlag("cache.enabled", flags.Lookup("cache"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = viper.BindPFlag("timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("max_retries", flags.Lookup("retries"))
	_ = viper.BindPFlag("backoff_factor", flags.Lookup("backoff"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	tts.SetDefaults()

	rootCmd.AddCommand(configCmd, formatsCmd, cacheCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "ttsbytes")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "ttsbytes")}, dirs...)
	}

	if c := os.Getenv("TTSBYTES_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("ttsbytes")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("ttsbytes")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "ttsbytes.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
