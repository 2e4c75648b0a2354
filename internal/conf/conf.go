package conf

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/domain"
	"github.com/DevRickLin/feishu-daycare-bot/internal/biz/usecase"
)

const (
	loginPrefix    = "DAYCARE_LOGIN_"
	userPrefix     = "DAYCARE_USER_"
	usernameSuffix = "_USERNAME"
	passwordSuffix = "_PASSWORD"
	fileSuffix     = "_FILE"
)

// Config represents application configuration
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// Daycare portal configuration
	Daycare DaycareConfig

	// Photo memo configuration
	Photo PhotoConfig

	// Messages configuration (loaded from YAML)
	Messages *MessagesConfig

	// MCP configuration
	MCP MCPConfig

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID             string
	AppSecret         string
	VerificationToken string
	EncryptKey        string
	WebhookAddr       string // Set => webhook mode, empty => long connection
}

// Credentials is one portal login
type Credentials struct {
	Username string
	Password string
}

// DaycareConfig contains portal accounts and the users bound to them
type DaycareConfig struct {
	BaseURL    string
	AbsentNote string
	Accounts   map[string]Credentials
	Users      map[string][]string // open_id -> ordered account names
}

// PhotoConfig contains photo memo bounds
type PhotoConfig struct {
	CacheSize  int
	TTLMinutes int
}

// MCPConfig contains MCP server configuration
type MCPConfig struct {
	UserID string // User the MCP tools act for
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	photoSize := usecase.DefaultPhotoConfig().Size
	if val := Getenv("PHOTO_CACHE_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			photoSize = parsed
		}
	}

	photoTTL := int(usecase.DefaultPhotoConfig().TTL / time.Minute)
	if val := Getenv("PHOTO_CACHE_TTL_MINUTES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			photoTTL = parsed
		}
	}

	messages, err := LoadMessagesConfig(Getenv("MESSAGES_CONFIG_PATH"))
	if err != nil {
		logger().Warn("messages config unusable, using defaults", "err", err)
		messages = DefaultMessagesConfig()
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:             Getenv("FEISHU_APP_ID"),
			AppSecret:         Getenv("FEISHU_APP_SECRET"),
			VerificationToken: Getenv("FEISHU_VERIFICATION_TOKEN"),
			EncryptKey:        Getenv("FEISHU_ENCRYPT_KEY"),
			WebhookAddr:       Getenv("WEBHOOK_ADDR"),
		},
		Daycare: DaycareConfig{
			BaseURL:    Getenv("DAYCARE_BASE_URL"),
			AbsentNote: Getenv("DAYCARE_ABSENT_NOTE"),
			Accounts:   loadAccounts(),
			Users:      loadUsers(),
		},
		Photo: PhotoConfig{
			CacheSize:  photoSize,
			TTLMinutes: photoTTL,
		},
		Messages: messages,
		MCP: MCPConfig{
			UserID: Getenv("MCP_USER_ID"),
		},
		Debug: Getenv("DEBUG") == "true",
	}
}

// Getenv returns the value of key. A key K may also be given as K_FILE
// naming a file whose trimmed contents are the value; K_FILE wins.
func Getenv(key string) string {
	if path := os.Getenv(key + fileSuffix); path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
		logger().Warn("cannot read secret file", "key", key, "path", path, "err", err)
	}
	return os.Getenv(key)
}

// group returns every variable starting with prefix, keyed by the rest of
// its name. _FILE variants are resolved through Getenv.
func group(prefix string) map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		key = strings.TrimSuffix(key, fileSuffix)
		out[strings.TrimPrefix(key, prefix)] = Getenv(key)
	}
	return out
}

func loadAccounts() map[string]Credentials {
	accounts := make(map[string]Credentials)
	for key, value := range group(loginPrefix) {
		var name string
		switch {
		case strings.HasSuffix(key, usernameSuffix):
			name = strings.TrimSuffix(key, usernameSuffix)
			c := accounts[name]
			c.Username = value
			accounts[name] = c
		case strings.HasSuffix(key, passwordSuffix):
			name = strings.TrimSuffix(key, passwordSuffix)
			c := accounts[name]
			c.Password = value
			accounts[name] = c
		}
	}
	return accounts
}

func loadUsers() map[string][]string {
	users := make(map[string][]string)
	for userID, value := range group(userPrefix) {
		var names []string
		for _, name := range strings.Split(value, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		if len(names) > 0 {
			users[userID] = names
		}
	}
	return users
}

// Directory builds the immutable user -> account mapping
func (c *DaycareConfig) Directory() *domain.Directory {
	entries := make(map[string][]domain.AccountID, len(c.Users))
	for userID, names := range c.Users {
		accounts := make([]domain.AccountID, len(names))
		for i, name := range names {
			accounts[i] = domain.AccountID(name)
		}
		entries[userID] = accounts
	}
	return domain.NewDirectory(entries)
}

// ToPhotoConfig converts to photo memo configuration
func (c *PhotoConfig) ToPhotoConfig() usecase.PhotoConfig {
	return usecase.PhotoConfig{
		Size: c.CacheSize,
		TTL:  time.Duration(c.TTLMinutes) * time.Minute,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
	}
	return c.Daycare.Validate()
}

// Validate checks that every referenced account is fully declared
func (c *DaycareConfig) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Field: "DAYCARE_BASE_URL", Message: "required"}
	}
	if len(c.Users) == 0 {
		return &ConfigError{Field: userPrefix + "<open_id>", Message: "at least one user required"}
	}

	userIDs := make([]string, 0, len(c.Users))
	for userID := range c.Users {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for _, userID := range userIDs {
		for _, name := range c.Users[userID] {
			creds, ok := c.Accounts[name]
			if !ok {
				return &ConfigError{
					Field:   userPrefix + userID,
					Message: fmt.Sprintf("account %q is not declared", name),
				}
			}
			if creds.Username == "" || creds.Password == "" {
				return &ConfigError{
					Field:   loginPrefix + name,
					Message: "username and password required",
				}
			}
		}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
