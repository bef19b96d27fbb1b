package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// AppConfig carries process-wide settings. Values come from config.yaml when
// present, with environment variables taking precedence.
type AppConfig struct {
	Port            string `yaml:"port"`
	BaseURL         string `yaml:"baseUrl"` // public URL prefix for short links
	OCREngine       string `yaml:"ocrEngine"` // "tesseract" or "textract"
	DefaultLanguage string `yaml:"defaultLanguage"`
	StorageBackend  string `yaml:"storageBackend"` // "minio" or "s3"
	LogLevel        string `yaml:"logLevel"`
	MaxUploadMB     int    `yaml:"maxUploadMB"`
}

func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		loadDotEnv()

		appConfig = &AppConfig{
			Port:            "8080",
			BaseURL:         "http://localhost:8080",
			OCREngine:       "tesseract",
			DefaultLanguage: "eng",
			StorageBackend:  "minio",
			LogLevel:        "info",
			MaxUploadMB:     64,
		}

		if path := configFilePath(); path != "" {
			data, err := os.ReadFile(path)
			if err == nil {
				if err := yaml.Unmarshal(data, appConfig); err != nil {
					log.Printf("Warning: ignoring malformed config file %s: %v", path, err)
				}
			}
		}

		overrideString(&appConfig.Port, "DOCSMITH_PORT")
		overrideString(&appConfig.BaseURL, "DOCSMITH_BASE_URL")
		overrideString(&appConfig.OCREngine, "DOCSMITH_OCR_ENGINE")
		overrideString(&appConfig.DefaultLanguage, "DOCSMITH_LANGUAGE")
		overrideString(&appConfig.StorageBackend, "DOCSMITH_STORAGE")
		overrideString(&appConfig.LogLevel, "DOCSMITH_LOG_LEVEL")
		if v := os.Getenv("DOCSMITH_MAX_UPLOAD_MB"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				appConfig.MaxUploadMB = n
			}
		}
	})
	return appConfig
}

func configFilePath() string {
	if path := os.Getenv("DOCSMITH_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	return ""
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

var dotEnvOnce sync.Once

// loadDotEnv loads the project-root .env once; missing files are fine and
// plain environment variables win.
func loadDotEnv() {
	dotEnvOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		rootDir := filepath.Dir(filepath.Dir(filename))
		envPath := filepath.Join(rootDir, ".env")

		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, falling back to environment variables", envPath)
		}
	})
}
