package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config captures the runtime configuration shared by the four binaries
// (asrd, searchd, cvdecode, cvindex). Each binary reads only the sections
// it cares about.
type Config struct {
	ASR           ASRConfig           `mapstructure:"asr"`
	Search        SearchConfig        `mapstructure:"search"`
	Batch         BatchConfig         `mapstructure:"batch"`
	Elastic       ElasticConfig       `mapstructure:"elastic"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// ASRConfig drives the transcription service daemon.
type ASRConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	BodyLimitMB           int           `mapstructure:"body_limit_mb"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
	FFmpegPath            string        `mapstructure:"ffmpeg_path"`
	Engine                EngineConfig  `mapstructure:"engine"`
	Chunk                 ChunkConfig   `mapstructure:"chunk"`
}

// EngineConfig selects and configures the speech-to-text backend.
type EngineConfig struct {
	Backend     string `mapstructure:"backend"` // whispercpp or openai
	BinaryPath  string `mapstructure:"binary_path"`
	ModelPath   string `mapstructure:"model_path"`
	OpenAIKey   string `mapstructure:"openai_key"`
	OpenAIModel string `mapstructure:"openai_model"`
}

// ChunkConfig bounds per-inference cost on long clips. Inference runs over
// windows of Length seconds advanced by Length-Overlap.
type ChunkConfig struct {
	Length  time.Duration `mapstructure:"length"`
	Overlap time.Duration `mapstructure:"overlap"`
}

// SearchConfig drives the search frontend daemon.
type SearchConfig struct {
	ListenAddr            string        `mapstructure:"listen_addr"`
	PageSize              int           `mapstructure:"page_size"`
	GracefulShutdownDelay time.Duration `mapstructure:"graceful_shutdown_delay"`
}

// BatchConfig drives the batch transcriber CLI.
type BatchConfig struct {
	EndpointURL      string        `mapstructure:"endpoint_url"`
	ManifestPath     string        `mapstructure:"manifest_path"`
	AudioDir         string        `mapstructure:"audio_dir"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout"`
	ProgressInterval int           `mapstructure:"progress_interval"`
}

// ElasticConfig locates the search index.
type ElasticConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Index        string        `mapstructure:"index"`
	CSVPath      string        `mapstructure:"csv_path"`
	ProbeRetries int           `mapstructure:"probe_retries"`
	ProbeDelay   time.Duration `mapstructure:"probe_delay"`
}

// URL renders the cluster base URL from host and port.
func (e ElasticConfig) URL() string {
	return fmt.Sprintf("http://%s:%d", e.Host, e.Port)
}

type ObservabilityConfig struct {
	OTLPEndpoint  string `mapstructure:"otlp_endpoint"`
	EnableOTLP    bool   `mapstructure:"enable_otlp"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// Options controls the config loader behavior.
type Options struct {
	ConfigFile string
	EnvFile    string
}

// Load returns the merged configuration sourced from YAML and environment
// variables.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		_ = godotenv.Load(opts.EnvFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)

	explicitFile := false
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		explicitFile = true
	} else {
		if cfg := os.Getenv("VOICESEARCH_CONFIG_FILE"); cfg != "" {
			v.SetConfigFile(cfg)
			explicitFile = true
		}
	}

	if !explicitFile {
		// Allow standard lookup locations when no explicit file is provided.
		v.SetConfigName("voicesearch")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("VOICESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known variable names kept from the deployed compose files.
	_ = v.BindEnv("batch.endpoint_url", "VOICESEARCH_BATCH_ENDPOINT_URL", "ASR_API_URL")
	_ = v.BindEnv("elastic.host", "VOICESEARCH_ELASTIC_HOST", "ELASTICSEARCH_HOST")
	_ = v.BindEnv("elastic.port", "VOICESEARCH_ELASTIC_PORT", "ELASTICSEARCH_PORT")
	_ = v.BindEnv("elastic.index", "VOICESEARCH_ELASTIC_INDEX", "ELASTICSEARCH_INDEX")

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(timeStringToDurationHook())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures required values are set and fills safe fallbacks.
func (c *Config) Validate() error {
	if err := c.ASR.validate(); err != nil {
		return err
	}
	if err := c.Search.validate(); err != nil {
		return err
	}
	if err := c.Batch.validate(); err != nil {
		return err
	}
	if err := c.Elastic.validate(); err != nil {
		return err
	}
	return nil
}

func (a *ASRConfig) validate() error {
	if a.ListenAddr == "" {
		return fmt.Errorf("asr.listen_addr must be provided")
	}
	if a.BodyLimitMB <= 0 {
		a.BodyLimitMB = 50
	}
	if a.RequestTimeout <= 0 {
		a.RequestTimeout = 5 * time.Minute
	}
	if a.FFmpegPath == "" {
		a.FFmpegPath = "ffmpeg"
	}
	switch strings.ToLower(strings.TrimSpace(a.Engine.Backend)) {
	case "whispercpp", "openai":
		a.Engine.Backend = strings.ToLower(strings.TrimSpace(a.Engine.Backend))
	case "":
		a.Engine.Backend = "whispercpp"
	default:
		return fmt.Errorf("asr.engine.backend must be whispercpp or openai, got %q", a.Engine.Backend)
	}
	if a.Engine.OpenAIModel == "" {
		a.Engine.OpenAIModel = "whisper-1"
	}
	if a.Chunk.Length <= 0 {
		return fmt.Errorf("asr.chunk.length must be > 0")
	}
	if a.Chunk.Overlap < 0 || a.Chunk.Overlap >= a.Chunk.Length {
		return fmt.Errorf("asr.chunk.overlap must be >= 0 and < chunk length")
	}
	return nil
}

func (s *SearchConfig) validate() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("search.listen_addr must be provided")
	}
	if s.PageSize <= 0 {
		s.PageSize = 20
	}
	return nil
}

func (b *BatchConfig) validate() error {
	if b.EndpointURL == "" {
		return fmt.Errorf("batch.endpoint_url must be provided")
	}
	if b.RequestTimeout <= 0 {
		b.RequestTimeout = 2 * time.Minute
	}
	if b.ProgressInterval <= 0 {
		b.ProgressInterval = 100
	}
	return nil
}

func (e *ElasticConfig) validate() error {
	if e.Host == "" {
		return fmt.Errorf("elastic.host must be provided")
	}
	if e.Port <= 0 {
		return fmt.Errorf("elastic.port must be > 0")
	}
	if strings.TrimSpace(e.Index) == "" {
		return fmt.Errorf("elastic.index must be provided")
	}
	if e.ProbeRetries <= 0 {
		e.ProbeRetries = 10
	}
	if e.ProbeDelay <= 0 {
		e.ProbeDelay = 3 * time.Second
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("asr.listen_addr", ":8001")
	v.SetDefault("asr.body_limit_mb", 50)
	v.SetDefault("asr.request_timeout", "300s")
	v.SetDefault("asr.graceful_shutdown_delay", "5s")
	v.SetDefault("asr.ffmpeg_path", "ffmpeg")
	v.SetDefault("asr.engine.backend", "whispercpp")
	v.SetDefault("asr.engine.binary_path", "whisper-cli")
	v.SetDefault("asr.engine.model_path", "./models/ggml-base.en.bin")
	v.SetDefault("asr.engine.openai_model", "whisper-1")
	v.SetDefault("asr.chunk.length", "10s")
	v.SetDefault("asr.chunk.overlap", "2s")

	v.SetDefault("search.listen_addr", ":3000")
	v.SetDefault("search.page_size", 20)
	v.SetDefault("search.graceful_shutdown_delay", "5s")

	v.SetDefault("batch.endpoint_url", "http://localhost:8001/asr")
	v.SetDefault("batch.manifest_path", "common_voice/cv-valid-dev.csv")
	v.SetDefault("batch.audio_dir", "common_voice/cv-valid-dev")
	v.SetDefault("batch.request_timeout", "120s")
	v.SetDefault("batch.progress_interval", 100)

	v.SetDefault("elastic.host", "elasticsearch1")
	v.SetDefault("elastic.port", 9200)
	v.SetDefault("elastic.index", "cv-transcriptions")
	v.SetDefault("elastic.csv_path", "common_voice/cv-valid-dev_transcribed.csv")
	v.SetDefault("elastic.probe_retries", 10)
	v.SetDefault("elastic.probe_delay", "3s")

	v.SetDefault("observability.enable_otlp", false)
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.otlp_endpoint", "http://localhost:4317")
}

func timeStringToDurationHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case string:
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			return nil, fmt.Errorf("cannot decode %T into time.Duration", data)
		}
	}
}
