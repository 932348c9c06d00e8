package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/equitysage/equitysage/internal/services/strategy"
)

// Defaults used when a yaml config omits a field or no config file is given.
const (
	DefaultListenAddr    = ":8000"
	DefaultLLMAPIURL     = "https://openrouter.ai/api/v1/chat/completions"
	DefaultLLMModel      = "deepseek/deepseek-chat"
	DefaultLLMTimeout    = 60 * time.Second
	DefaultCacheTTL      = 5 * time.Minute
	DefaultPurgeInterval = time.Minute
	DefaultHistoryRange  = "1y"
)

// Config is the resolved runtime configuration. The LLM API key is never
// read from the file; it comes from the LLM_API_KEY environment variable.
type Config struct {
	ListenAddr string

	LLMAPIURL  string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	CacheTTL      time.Duration
	PurgeInterval time.Duration
	HistoryRange  string

	ScoreWeights strategy.Weights

	TLSDomains  []string
	TLSCacheDir string
}

type configTmp struct {
	ListenAddr string `yaml:"listen_addr"`

	LLMAPIURL  string        `yaml:"llm_api_url"`
	LLMModel   string        `yaml:"llm_model"`
	LLMTimeout time.Duration `yaml:"llm_timeout"`

	CacheTTL      time.Duration `yaml:"cache_ttl"`
	PurgeInterval time.Duration `yaml:"cache_purge_interval"`
	HistoryRange  string        `yaml:"history_range"`

	FundamentalWeight int `yaml:"fundamental_weight"`
	TechnicalWeight   int `yaml:"technical_weight"`

	TLSDomains  []string `yaml:"tls_domains"`
	TLSCacheDir string   `yaml:"tls_cache_dir"`
}

// Get resolves the configuration from an optional yaml file and flags.
func Get() (Config, error) {
	configPath := flag.String("config", "", "path to yaml config")
	listen := flag.String("listen", DefaultListenAddr, "listen address, example: :8000")
	flag.Parse()

	cfg := defaults()
	cfg.ListenAddr = *listen

	if *configPath != "" {
		var err error
		cfg, err = getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
	}

	cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	return cfg, nil
}

func defaults() Config {
	return Config{
		ListenAddr:    DefaultListenAddr,
		LLMAPIURL:     DefaultLLMAPIURL,
		LLMModel:      DefaultLLMModel,
		LLMTimeout:    DefaultLLMTimeout,
		CacheTTL:      DefaultCacheTTL,
		PurgeInterval: DefaultPurgeInterval,
		HistoryRange:  DefaultHistoryRange,
		ScoreWeights:  strategy.DefaultWeights,
	}
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var tmp configTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, err
	}

	cfg := defaults()
	if tmp.ListenAddr != "" {
		cfg.ListenAddr = tmp.ListenAddr
	}
	if tmp.LLMAPIURL != "" {
		cfg.LLMAPIURL = tmp.LLMAPIURL
	}
	if tmp.LLMModel != "" {
		cfg.LLMModel = tmp.LLMModel
	}
	if tmp.LLMTimeout > 0 {
		cfg.LLMTimeout = tmp.LLMTimeout
	}
	if tmp.CacheTTL > 0 {
		cfg.CacheTTL = tmp.CacheTTL
	}
	if tmp.PurgeInterval > 0 {
		cfg.PurgeInterval = tmp.PurgeInterval
	}
	if tmp.HistoryRange != "" {
		cfg.HistoryRange = tmp.HistoryRange
	}
	cfg.TLSDomains = tmp.TLSDomains
	cfg.TLSCacheDir = tmp.TLSCacheDir

	if tmp.FundamentalWeight != 0 || tmp.TechnicalWeight != 0 {
		if tmp.FundamentalWeight+tmp.TechnicalWeight != 100 {
			return Config{}, fmt.Errorf("incorrect score weights in yaml config: fundamental_weight + technical_weight must equal 100, got %d + %d",
				tmp.FundamentalWeight, tmp.TechnicalWeight)
		}
		cfg.ScoreWeights = strategy.Weights{
			Fundamental: tmp.FundamentalWeight,
			Technical:   tmp.TechnicalWeight,
		}
	}

	return cfg, nil
}
