package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	API struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"api"`
	Capture struct {
		FFmpegPath         string        `mapstructure:"ffmpeg_path"`
		VideoDevices       []string      `mapstructure:"video_devices"`
		AudioDevice        string        `mapstructure:"audio_device"`
		SpoolDir           string        `mapstructure:"spool_dir"`
		SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
	} `mapstructure:"capture"`
	Gallery struct {
		ProbeConcurrency int           `mapstructure:"probe_concurrency"`
		ProbeCacheTTL    time.Duration `mapstructure:"probe_cache_ttl"`
		Timezone         string        `mapstructure:"timezone"`
	} `mapstructure:"gallery"`
	Share struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"share"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

// LoadConfig reads .env and config.yaml from paths (default ".") and lets
// environment variables override both.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	v := viper.New()

	for _, p := range paths {
		if err := godotenv.Load(strings.TrimSuffix(p, "/") + "/.env"); err == nil {
			break
		}
	}

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read environment only. Error: %v", err)
		err = nil
	}

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("api.base_url", "MEMORY_API_URL")
	v.BindEnv("api.timeout", "MEMORY_API_TIMEOUT")
	v.BindEnv("capture.ffmpeg_path", "FFMPEG_PATH")
	v.BindEnv("capture.video_devices", "CAPTURE_VIDEO_DEVICES")
	v.BindEnv("capture.audio_device", "CAPTURE_AUDIO_DEVICE")
	v.BindEnv("capture.spool_dir", "CAPTURE_SPOOL_DIR")
	v.BindEnv("capture.session_idle_timeout", "CAPTURE_SESSION_IDLE_TIMEOUT")
	v.BindEnv("gallery.probe_concurrency", "GALLERY_PROBE_CONCURRENCY")
	v.BindEnv("gallery.probe_cache_ttl", "GALLERY_PROBE_CACHE_TTL")
	v.BindEnv("gallery.timezone", "GALLERY_TIMEZONE")
	v.BindEnv("share.base_url", "SHARE_BASE_URL")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("jaeger.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	err = v.Unmarshal(&cfg)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("api.base_url", "https://wedding-memories-api.onrender.com")
	v.SetDefault("api.timeout", 60*time.Second)
	v.SetDefault("capture.ffmpeg_path", "ffmpeg")
	v.SetDefault("capture.video_devices", []string{"/dev/video0"})
	v.SetDefault("capture.audio_device", "default")
	v.SetDefault("capture.spool_dir", "./data/previews")
	v.SetDefault("capture.session_idle_timeout", 5*time.Minute)
	v.SetDefault("gallery.probe_concurrency", 8)
	v.SetDefault("gallery.probe_cache_ttl", 5*time.Minute)
	v.SetDefault("auth.token_lifespan", 12*time.Hour)
	v.SetDefault("jaeger.otlp_endpoint", "localhost:4317")
}

// GalleryLocation is the zone used for message timestamps in exports.
func (c Config) GalleryLocation() (*time.Location, error) {
	if c.Gallery.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Gallery.Timezone)
}
