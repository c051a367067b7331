package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/backend"
	"github.com/spigell/interview-practice/internal/fakebackend"
	"github.com/spigell/interview-practice/internal/logger"
	"github.com/spigell/interview-practice/internal/timer"
	"github.com/spigell/interview-practice/internal/transcript"
)

const (
	app = "interview-practice"
)

type Config struct {
	Backend    *BackendConfig    `mapstructure:"backend"`
	Interview  *InterviewConfig  `mapstructure:"interview"`
	Transcript *TranscriptConfig `mapstructure:"transcript"`
	Serve      *ServeConfig      `mapstructure:"serve"`
	Debug      bool              `mapstructure:"debug"`
	JSON       bool              `mapstructure:"json"`
}

type BackendConfig struct {
	URL             string        `mapstructure:"url"`
	RoutesPrefix    string        `mapstructure:"routes-prefix"`
	DocumentsPrefix string        `mapstructure:"documents-prefix"`
	MailPrefix      string        `mapstructure:"mail-prefix"`
	Timeout         time.Duration `mapstructure:"timeout"`
	UserAgent       string        `mapstructure:"user-agent"`
}

type InterviewConfig struct {
	JDID               string            `mapstructure:"jd-id"`
	CVID               string            `mapstructure:"cv-id"`
	JobDescriptionFile string            `mapstructure:"job-description-file"`
	QuestionTime       int               `mapstructure:"question-time"`
	Welcome            string            `mapstructure:"welcome"`
	WelcomeFile        string            `mapstructure:"welcome-file"`
	Candidate          backend.Candidate `mapstructure:"candidate"`
}

type TranscriptConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
}

type ServeConfig struct {
	Addr               string `mapstructure:"addr"`
	fakebackend.Config `mapstructure:",squash"`
}

const defaultWelcome = `Interview guidelines:
  - Answer each question in your own words; there is no need to rush.
  - Type your answer and press ENTER, or type :mic to answer by voice.
  - A timer shows how long you have been answering the current question.
  - Type :report after the last question to see your evaluation, :quit to leave.`

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "interview-practice is a cli for rehearsing job interviews against an interview backend",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is interview-practice.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("backend-url", "", "interview backend url (env INTERVIEW_BACKEND_URL or APP_BACKEND_URL)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend-url"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("backend.url", "http://localhost:8000")
	viper.SetDefault("backend.routes-prefix", "/routes")
	viper.SetDefault("backend.mail-prefix", "/api")
	viper.SetDefault("backend.timeout", 10*time.Second)
	viper.SetDefault("interview.question-time", timer.DefaultQuestionTime)
	viper.SetDefault("interview.welcome", defaultWelcome)
	viper.SetDefault("transcript.format", transcript.FormatJSON)
	viper.SetDefault("serve.addr", ":8000")
	viper.SetDefault("serve.routes-prefix", "/routes")
}

func initConfig() {
	// A missing .env is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	if err := viper.BindEnv("backend.url", "INTERVIEW_BACKEND_URL", "APP_BACKEND_URL"); err != nil {
		log.Fatalf("binding backend url environment variables: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless it was asked for explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Backend == nil {
		config.Backend = &BackendConfig{}
	}
	if config.Interview == nil {
		config.Interview = &InterviewConfig{}
	}
	if config.Transcript == nil {
		config.Transcript = &TranscriptConfig{}
	}
	if config.Serve == nil {
		config.Serve = &ServeConfig{}
	}

	return config, nil
}

// Validate checks the settings every backend-facing command depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.Backend.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url must be an absolute url, got %q", c.Backend.URL)
	}

	switch strings.ToLower(c.Transcript.Format) {
	case "", transcript.FormatJSON, transcript.FormatYAML:
	default:
		return fmt.Errorf("transcript.format must be %s or %s", transcript.FormatJSON, transcript.FormatYAML)
	}

	if c.Interview.QuestionTime < 0 {
		return fmt.Errorf("interview.question-time must not be negative")
	}

	return nil
}

// setup builds the logger and the validated config shared by the commands.
func setup(validate bool) (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if validate {
		if err := config.Validate(); err != nil {
			logger.Fatal("invalid config", zap.Error(err))
		}
	}

	logger.Debug("starting", zap.String("app", app), zap.String("version", version), zap.Any("config", config))

	return logger, config
}

func newClient(config *Config, logger *zap.Logger) *backend.Client {
	client := backend.New(logger, config.Backend.URL)
	client.RoutesPrefix = config.Backend.RoutesPrefix
	client.DocumentsPrefix = config.Backend.DocumentsPrefix
	client.SetTimeout(config.Backend.Timeout)

	if config.Backend.MailPrefix != "" {
		client.MailPrefix = config.Backend.MailPrefix
	}
	if config.Backend.UserAgent != "" {
		client.UserAgent = config.Backend.UserAgent
	}

	return client
}
