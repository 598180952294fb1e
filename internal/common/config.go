package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. It is loaded once in main and
// passed by value into constructors; nothing reads the environment afterwards.
type Config struct {
	Drive      DriveConfig
	OCR        OCRConfig
	LLM        LLMConfig
	Report     ReportConfig
	Similarity SimilarityConfig

	// MaxFilesPerRun caps how many allowed items one run processes. 0 = all.
	MaxFilesPerRun int

	// AllowedExtensions is the dotted, lowercased allow-list for listed items.
	AllowedExtensions []string
}

// DriveConfig holds the source/destination folders and credentials.
type DriveConfig struct {
	SourceFolderID  string
	ReportsFolderID string
	CredentialsJSON string // service account key: file path or inline JSON
	AccessToken     string // alternative: pre-obtained OAuth2 token
}

// OCRConfig holds the extraction tool configuration.
type OCRConfig struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	// Languages is the tesseract language specifier, e.g. "tur+eng+rus+kaz".
	// Passed through to tesseract as-is.
	Languages string
	DPI       int // rasterization DPI for scanned PDFs
}

// LLMConfig holds grading-call configuration.
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// ReportConfig holds report naming and output location.
type ReportConfig struct {
	OutputDir string
	Prefix    string
}

// SimilarityConfig holds the duplicate-detection parameters.
type SimilarityConfig struct {
	Threshold float64
	// MaxTextLen bounds how much of each document feeds the pairwise pass.
	MaxTextLen int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() Config {
	return Config{
		Drive: DriveConfig{
			SourceFolderID:  getEnv("DRIVE_SOURCE_FOLDER_ID", ""),
			ReportsFolderID: getEnv("DRIVE_REPORTS_FOLDER_ID", ""),
			CredentialsJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
			AccessToken:     getEnv("GOOGLE_OAUTH_ACCESS_TOKEN", ""),
		},
		OCR: OCRConfig{
			Pdftotext: getEnv("PDFTOTEXT_CMD", ""),
			Pdftoppm:  getEnv("PDFTOPPM_CMD", ""),
			Tesseract: getEnv("TESSERACT_CMD", ""),
			Languages: getEnv("OCR_LANG", "tur+eng+rus+kaz"),
			DPI:       getEnvAsInt("OCR_DPI", 300),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.2),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Report: ReportConfig{
			OutputDir: getEnv("LOCAL_OUTPUT_DIR", "outputs"),
			Prefix:    getEnv("REPORT_PREFIX", "grading-report"),
		},
		Similarity: SimilarityConfig{
			Threshold:  getEnvAsFloat64("SIMILARITY_THRESHOLD", 80.0),
			MaxTextLen: getEnvAsInt("SIMILARITY_MAX_TEXT_LEN", 6000),
		},
		MaxFilesPerRun:    getEnvAsInt("MAX_FILES_PER_RUN", 0),
		AllowedExtensions: getEnvAsExtList("ALLOWED_EXT"),
	}
}

// Validate reports the fatal configuration failures that abort a run before
// any item is touched.
func (c Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Drive.SourceFolderID == "" {
		return NewAppError("CONFIG_ERROR", "DRIVE_SOURCE_FOLDER_ID is required", ErrInvalidInput)
	}
	if c.Drive.CredentialsJSON == "" && c.Drive.AccessToken == "" {
		return NewAppError("CONFIG_ERROR", "GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_OAUTH_ACCESS_TOKEN is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsExtList parses a comma-separated extension list, normalizing each
// entry to a dotted lowercase form. Empty env -> nil (caller applies default).
func getEnvAsExtList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		e := strings.ToLower(strings.TrimSpace(part))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}
