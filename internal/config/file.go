// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// FileConfig is the on-disk YAML shape. Pointers distinguish "unset" from
// zero; durations are Go duration strings.
type FileConfig struct {
	DataDir  string `yaml:"dataDir,omitempty"`
	LogLevel string `yaml:"logLevel,omitempty"`

	HTTP      HTTPFileConfig      `yaml:"http,omitempty"`
	Store     StoreFileConfig     `yaml:"store,omitempty"`
	Redis     RedisFileConfig     `yaml:"redis,omitempty"`
	Cache     CacheFileConfig     `yaml:"cache,omitempty"`
	Notify    NotifyFileConfig    `yaml:"notify,omitempty"`
	Policy    PolicyFileConfig    `yaml:"policy,omitempty"`
	Auth      AuthFileConfig      `yaml:"auth,omitempty"`
	RateLimit RateLimitFileConfig `yaml:"rateLimit,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

type HTTPFileConfig struct {
	ListenAddr      string   `yaml:"listenAddr,omitempty"`
	ReadTimeout     string   `yaml:"readTimeout,omitempty"`
	WriteTimeout    string   `yaml:"writeTimeout,omitempty"`
	IdleTimeout     string   `yaml:"idleTimeout,omitempty"`
	ShutdownTimeout string   `yaml:"shutdownTimeout,omitempty"`
	TrustedProxies  []string `yaml:"trustedProxies,omitempty"`
}

type StoreFileConfig struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

type RedisFileConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
}

type CacheFileConfig struct {
	Backend         string `yaml:"backend,omitempty"`
	KeyPrefix       string `yaml:"keyPrefix,omitempty"`
	JanitorInterval string `yaml:"janitorInterval,omitempty"`
}

type NotifyFileConfig struct {
	Sink           string   `yaml:"sink,omitempty"`
	Stream         string   `yaml:"stream,omitempty"`
	StreamMaxLen   *int64   `yaml:"streamMaxLen,omitempty"`
	Buffer         *int     `yaml:"buffer,omitempty"`
	RatePerSec     *float64 `yaml:"ratePerSec,omitempty"`
	Burst          *int     `yaml:"burst,omitempty"`
	DeliverTimeout string   `yaml:"deliverTimeout,omitempty"`
}

type PolicyFileConfig struct {
	CompletionCooldown   string         `yaml:"completionCooldown,omitempty"`
	MinCancelDescription *int           `yaml:"minCancelDescription,omitempty"`
	MaxReviewComment     *int           `yaml:"maxReviewComment,omitempty"`
	MaxEvidenceFiles     *int           `yaml:"maxEvidenceFiles,omitempty"`
	MentorRule           string         `yaml:"mentorRule,omitempty"`
	Thresholds           map[string]int `yaml:"thresholds,omitempty"`
}

type AuthFileConfig struct {
	Mode          string   `yaml:"mode,omitempty"`
	Header        string   `yaml:"header,omitempty"`
	JWTSecret     string   `yaml:"jwtSecret,omitempty"`
	JWTIssuer     string   `yaml:"jwtIssuer,omitempty"`
	JWTAudience   string   `yaml:"jwtAudience,omitempty"`
	ServiceActors []string `yaml:"serviceActors,omitempty"`
}

type RateLimitFileConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Requests *int   `yaml:"requests,omitempty"`
	Window   string `yaml:"window,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	ServiceName  string   `yaml:"serviceName,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}

func boolPtr(b bool) *bool          { return &b }
func intPtr(i int) *int             { return &i }
func int64Ptr(i int64) *int64       { return &i }
func float64Ptr(f float64) *float64 { return &f }
