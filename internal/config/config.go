package config

import (
	"flag"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string     `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer HTTPServer `yaml:"http_server" env-required:"true"`
	PGSQL      PGSQL      `yaml:"pgsql" env-required:"true"`
	Redis      Redis      `yaml:"redis"`
	JWTSecret  string     `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Media      Media      `yaml:"media"`
	MinIO      MinIO      `yaml:"minio" env-required:"true"`
	Stream     Stream     `yaml:"stream" env-required:"true"`
	AssemblyAI AssemblyAI `yaml:"assemblyai" env-required:"true"`
	Batch      Batch      `yaml:"batch" env-required:"true"`
	Summarizer Summarizer `yaml:"summarizer" env-required:"true"`
	Worker     Worker     `yaml:"worker"`
}

type HTTPServer struct {
	Address string `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	// BaseURL is the externally reachable address, used to build the
	// transcription webhook callback URL.
	BaseURL string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
}

type PGSQL struct {
	Host     string `yaml:"host" env:"PG_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"PG_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"PG_USER" env-default:"postgres"`
	Password string `yaml:"password" env:"PG_PASSWORD" env-default:"password"`
	DBName   string `yaml:"dbname" env:"PG_DBNAME" env-default:"transcriber_db"`
	SSLMode  string `yaml:"sslmode" env:"PG_SSLMODE" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Media struct {
	// MaxUploadSize bounds the multipart form parse, in bytes.
	MaxUploadSize int64 `yaml:"max_upload_size" env-default:"524288000"`
}

type MinIO struct {
	Endpoint        string `yaml:"endpoint" env:"MINIO_ENDPOINT" env-required:"true"`
	AccessKeyID     string `yaml:"access_key_id" env:"MINIO_ACCESS_KEY" env-required:"true"`
	SecretAccessKey string `yaml:"secret_access_key" env:"MINIO_SECRET_KEY" env-required:"true"`
	UseSSL          bool   `yaml:"use_ssl" env:"MINIO_USE_SSL" env-default:"false"`
	BucketName      string `yaml:"bucket_name" env:"MINIO_BUCKET" env-default:"videos"`
}

// Stream configures the streaming-video host used for free-plan uploads.
type Stream struct {
	UploadURL string `yaml:"upload_url" env:"STREAM_UPLOAD_URL" env-required:"true"`
	APIKey    string `yaml:"api_key" env:"STREAM_API_KEY" env-required:"true"`
}

type AssemblyAI struct {
	BaseURL string `yaml:"base_url" env:"ASSEMBLYAI_BASE_URL" env-default:"https://api.assemblyai.com"`
	APIKey  string `yaml:"api_key" env:"ASSEMBLYAI_API_KEY" env-required:"true"`
}

// Batch configures the poll-driven batch speech service used for paid-plan
// transcription. It reads media from the bucket and writes transcript JSON
// back next to it.
type Batch struct {
	BaseURL      string `yaml:"base_url" env:"BATCH_BASE_URL" env-required:"true"`
	APIKey       string `yaml:"api_key" env:"BATCH_API_KEY" env-required:"true"`
	PollInterval int    `yaml:"poll_interval_seconds" env-default:"5"`
	JobTimeout   int    `yaml:"job_timeout_minutes" env-default:"30"`
}

type Summarizer struct {
	Provider     string `yaml:"provider" env:"SUMMARIZER_PROVIDER" env-default:"groq"`
	GroqBaseURL  string `yaml:"groq_base_url" env-default:"https://api.groq.com/openai"`
	GroqAPIKey   string `yaml:"groq_api_key" env:"GROQ_API_KEY"`
	GroqModel    string `yaml:"groq_model" env-default:"llama-3.3-70b-versatile"`
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	GeminiModel  string `yaml:"gemini_model" env-default:"gemini-2.0-flash"`
}

type Worker struct {
	// ProcessingTTL is how long a record may sit in processing before the
	// reaper marks it failed, in minutes.
	ProcessingTTL int `yaml:"processing_ttl_minutes" env-default:"60"`
}

func MustLoad() *Config {
	var configPath string

	configPath = os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to config file")
		flag.Parse()
		configPath = *flags

		if configPath == "" {
			log.Fatal("config path must be provided")
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist at path: %s", configPath)
	}

	var cfg Config

	err := cleanenv.ReadConfig(configPath, &cfg)

	if err != nil {
		log.Fatalf("failed to read config: %s", err)
	}

	return &cfg
}
