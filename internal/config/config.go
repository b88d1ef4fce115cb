package config

type Config struct {
	ConfigVersion int               `yaml:"configVersion"`
	Server        ServerConfig      `yaml:"server"`
	Routes        []Route           `yaml:"routes"`
	Policies      map[string]Policy `yaml:"policies"`
	Rules         []Rule            `yaml:"rules"`
	Logging       LoggingConfig     `yaml:"logging"`
	Metrics       MetricsConfig     `yaml:"metrics"`
	Store         StoreConfig       `yaml:"store"`
	Batch         BatchConfig       `yaml:"batch"`

	baseDir string `yaml:"-"`
}

type ServerConfig struct {
	Listen string    `yaml:"listen"`
	TLS    TLSConfig `yaml:"tls"`
}

type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"certFile"`
	KeyFile  string `yaml:"keyFile"`
}

type Route struct {
	Match  RouteMatch `yaml:"match"`
	Policy string     `yaml:"policy"`
}

type RouteMatch struct {
	Host       string `yaml:"host"`
	PathPrefix string `yaml:"pathPrefix"`
}

type Policy struct {
	Mode             string           `yaml:"mode"`
	AnomalyThreshold int              `yaml:"anomalyThreshold"`
	DenyUnderflow    bool             `yaml:"denyUnderflow"`
	Limits           Limits           `yaml:"limits"`
	RateLimit        RateLimitConfig  `yaml:"rateLimit"`
	Actions          PolicyActionSpec `yaml:"actions"`
}

type Limits struct {
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
	MaxPathBytes int   `yaml:"maxPathBytes"`
}

type RateLimitConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Key        string  `yaml:"key"`
	RPS        float64 `yaml:"rps"`
	Burst      int     `yaml:"burst"`
	StatusCode int     `yaml:"statusCode"`
}

type PolicyActionSpec struct {
	BlockStatusCode int    `yaml:"blockStatusCode"`
	BlockBody       string `yaml:"blockBody"`
}

type Rule struct {
	ID    string    `yaml:"id"`
	Phase string    `yaml:"phase"`
	Form  string    `yaml:"form"`
	Score int       `yaml:"score"`
	Tags  []string  `yaml:"tags"`
	Match RuleMatch `yaml:"match"`
}

type RuleMatch struct {
	Type         string   `yaml:"type"`
	Pattern      string   `yaml:"pattern"`
	PatternsFile string   `yaml:"patternsFile"`
	Prefixes     []string `yaml:"prefixes"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	EvalLog string `yaml:"evalLog"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
}

const (
	ModeEnforce = "enforce"
	ModeShadow  = "shadow"
)

const DefaultBatchWorkers = 8

func (c *Config) BaseDir() string {
	return c.baseDir
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}

// Workers returns the configured batch parallelism or the default.
func (c *Config) Workers() int {
	if c == nil || c.Batch.Workers <= 0 {
		return DefaultBatchWorkers
	}
	return c.Batch.Workers
}

// Default is the configuration used when no file is given: one route for
// the whole API, enforcing, with no rules.
func Default() *Config {
	return &Config{
		ConfigVersion: 1,
		Server:        ServerConfig{Listen: ":8080"},
		Routes: []Route{
			{Match: RouteMatch{PathPrefix: "/v1"}, Policy: "default"},
		},
		Policies: map[string]Policy{
			"default": {
				Mode:   ModeEnforce,
				Limits: Limits{MaxBodyBytes: 64 << 10, MaxPathBytes: 4 << 10},
			},
		},
		Batch: BatchConfig{Workers: DefaultBatchWorkers},
	}
}
