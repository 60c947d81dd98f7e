package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/xyz-asif/roadwatch/internal/pkg/validator"
)

type Config struct {
	Port        string
	AppEnv      string
	LogLevel    string
	FrontendURL string

	// Store
	StoreDriver string // mongo | postgres
	MongoURI    string
	MongoDB     string
	PostgresDSN string

	// Sessions
	JWTSecret      string
	JWTExpireHours int

	// Identity
	FirebaseServiceAccountPath string
	FirebaseProjectID          string
	FirebaseAPIKey             string
	IdentityToolkitURL         string

	// Object storage
	StorageDriver       string // gcs | cloudinary
	StoragePrefix       string
	GCSBucket           string
	GCSCredentialsPath  string
	GCSPublicObjects    bool
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// Capture and classification
	MaxImageBytes       int64
	GeoProviderURL      string
	GeoTimeout          time.Duration
	ModelServerURL      string
	ModelName           string
	ClassifierThreshold float64
	ClassifierTimeout   time.Duration

	// Drafts
	DraftTTL         time.Duration
	DraftCapacity    int
	MaxDraftsPerUser int

	// Rewards
	MinRedeemPoints int

	// Rate limits
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
	AuthRateLimit    int
	AuthRateWindow   time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		StoreDriver: getEnv("STORE_DRIVER", "mongo"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "roadwatch"),
		PostgresDSN: getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=roadwatch port=5432 sslmode=disable"),

		JWTSecret:      getEnv("JWT_SECRET", "secret"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		FirebaseServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		FirebaseProjectID:          getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseAPIKey:             getEnv("FIREBASE_API_KEY", ""),
		IdentityToolkitURL:         getEnv("IDENTITY_TOOLKIT_URL", "https://identitytoolkit.googleapis.com/v1"),

		StorageDriver:       getEnv("STORAGE_DRIVER", "gcs"),
		StoragePrefix:       getEnv("STORAGE_PREFIX", "pothole-images"),
		GCSBucket:           getEnv("GCS_BUCKET", ""),
		GCSCredentialsPath:  getEnv("GCS_CREDENTIALS_PATH", ""),
		GCSPublicObjects:    getEnvBool("GCS_PUBLIC_OBJECTS", true),
		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),

		MaxImageBytes:       int64(getEnvInt("MAX_IMAGE_BYTES", 10*1024*1024)),
		GeoProviderURL:      getEnv("GEO_PROVIDER_URL", ""),
		GeoTimeout:          getEnvDuration("GEO_TIMEOUT", 10*time.Second),
		ModelServerURL:      getEnv("MODEL_SERVER_URL", ""),
		ModelName:           getEnv("MODEL_NAME", "pothole"),
		ClassifierThreshold: getEnvFloat("CLASSIFIER_THRESHOLD", 0.5),
		ClassifierTimeout:   getEnvDuration("CLASSIFIER_TIMEOUT", 5*time.Second),

		DraftTTL:         getEnvDuration("DRAFT_TTL", 30*time.Minute),
		DraftCapacity:    getEnvInt("DRAFT_CAPACITY", 1000),
		MaxDraftsPerUser: getEnvInt("DRAFTS_PER_USER", 5),

		MinRedeemPoints: getEnvInt("MIN_REDEEM_POINTS", 100),

		SubmitRateLimit:  getEnvInt("SUBMIT_RATE_LIMIT", 10),
		SubmitRateWindow: getEnvDuration("SUBMIT_RATE_WINDOW", time.Minute),
		AuthRateLimit:    getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:   getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
	}
}

// IsProduction reports whether the service runs with APP_ENV=production
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate reports every setting the server cannot start with
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case "mongo", "postgres":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be mongo or postgres, got %q", c.StoreDriver))
	}
	switch c.StorageDriver {
	case "gcs":
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for the gcs storage driver"))
		}
	case "cloudinary":
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			errs = append(errs, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be gcs or cloudinary, got %q", c.StorageDriver))
	}

	if c.GeoProviderURL != "" && !validator.IsValidURL(c.GeoProviderURL) {
		errs = append(errs, fmt.Errorf("GEO_PROVIDER_URL is not a valid URL: %q", c.GeoProviderURL))
	}
	if c.ModelServerURL != "" && !validator.IsValidURL(c.ModelServerURL) {
		errs = append(errs, fmt.Errorf("MODEL_SERVER_URL is not a valid URL: %q", c.ModelServerURL))
	}
	if c.ClassifierThreshold < 0 || c.ClassifierThreshold > 1 {
		errs = append(errs, fmt.Errorf("CLASSIFIER_THRESHOLD must be within [0, 1], got %v", c.ClassifierThreshold))
	}
	if c.IsProduction() && c.JWTSecret == "secret" {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s: %q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Invalid boolean for %s: %q, using %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Invalid number for %s: %q, using %v", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s: %q, using %s", key, value, defaultValue)
	}
	return defaultValue
}
