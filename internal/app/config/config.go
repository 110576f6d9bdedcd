package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAppID      = "default-app-id"
	DefaultSessionTTL = 12 * time.Hour
)

// StoreConfig describes the quote store. An empty DatabaseURL selects the
// in-memory store.
type StoreConfig struct {
	DatabaseURL string `json:"database_url"`
}

type Config struct {
	HTTPAddr         string
	Store            StoreConfig
	AppID            string
	InitialAuthToken string
	IdentitySecret   string
	CORSAllowOrigin  string
	LogLevel         string
	LogFormat        string
	QuotesOwnerOnly  bool
	SessionTTL       time.Duration

	AssetDriver       string
	AssetDir          string
	AssetCacheVersion string
	AssetPrecache     []string
	S3Region          string
	S3Bucket          string
	S3Prefix          string
}

// runtimeGlobals are values injected by the hosting environment. They win
// over the matching environment variables.
type runtimeGlobals struct {
	StoreConfig      json.RawMessage `json:"store_config"`
	AppID            *string         `json:"app_id"`
	InitialAuthToken *string         `json:"initial_auth_token"`
}

// Load reads the configuration once from the runtime globals file, the
// environment and defaults, in that order of precedence.
func Load() (Config, error) {
	globals, err := readGlobals(os.Getenv("RUNTIME_GLOBALS_FILE"))
	if err != nil {
		return Config{}, err
	}

	rawStore := []byte(env("STORE_CONFIG", "{}"))
	if len(globals.StoreConfig) > 0 {
		rawStore = globals.StoreConfig
	}
	store, err := parseStoreConfig(rawStore)
	if err != nil {
		return Config{}, err
	}

	ttl, err := time.ParseDuration(env("SESSION_TTL", DefaultSessionTTL.String()))
	if err != nil {
		return Config{}, fmt.Errorf("SESSION_TTL: %w", err)
	}
	ownerOnly, err := strconv.ParseBool(env("QUOTES_OWNER_ONLY", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("QUOTES_OWNER_ONLY: %w", err)
	}

	return Config{
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		Store:            store,
		AppID:            global(globals.AppID, env("APP_ID", DefaultAppID)),
		InitialAuthToken: global(globals.InitialAuthToken, env("INITIAL_AUTH_TOKEN", "")),
		IdentitySecret:   env("IDENTITY_SECRET", ""),
		CORSAllowOrigin:  env("CORS_ALLOW_ORIGIN", "*"),
		LogLevel:         env("LOG_LEVEL", "info"),
		LogFormat:        env("LOG_FORMAT", "json"),
		QuotesOwnerOnly:  ownerOnly,
		SessionTTL:       ttl,

		AssetDriver:       env("ASSET_DRIVER", "dir"),
		AssetDir:          env("ASSET_DIR", "./public"),
		AssetCacheVersion: env("ASSET_CACHE_VERSION", "window-counter-cache-v1"),
		AssetPrecache:     list(env("ASSET_PRECACHE", "/,/index.html")),
		S3Region:          env("S3_REGION", ""),
		S3Bucket:          env("S3_BUCKET", ""),
		S3Prefix:          env("S3_PREFIX", ""),
	}, nil
}

func readGlobals(path string) (runtimeGlobals, error) {
	var g runtimeGlobals
	if path == "" {
		return g, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return g, nil
	}
	if err != nil {
		return g, fmt.Errorf("runtime globals: %w", err)
	}
	if err := json.Unmarshal(b, &g); err != nil {
		return g, fmt.Errorf("runtime globals: %w", err)
	}
	return g, nil
}

// parseStoreConfig accepts a JSON object or a JSON string holding one.
func parseStoreConfig(raw []byte) (StoreConfig, error) {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		raw = []byte(s)
	}
	var sc StoreConfig
	if err := json.Unmarshal(raw, &sc); err != nil {
		return StoreConfig{}, fmt.Errorf("store config: %w", err)
	}
	return sc, nil
}

func global(v *string, fallback string) string {
	if v != nil && *v != "" {
		return *v
	}
	return fallback
}

func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
