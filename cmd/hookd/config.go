package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/bjaus/hook"
	"github.com/bjaus/hook/receiver"
)

// config is read from the environment.
type config struct {
	Addr          string        `env:"HOOKD_ADDR" envDefault:":8080"`
	LogLevel      string        `env:"HOOKD_LOG_LEVEL" envDefault:"info"`
	ReceiversFile string        `env:"HOOKD_RECEIVERS_FILE"`
	NATSURL       string        `env:"HOOKD_NATS_URL"`
	NATSSubject   string        `env:"HOOKD_NATS_SUBJECT" envDefault:"hooks.invoke"`
	NATSQueue     string        `env:"HOOKD_NATS_QUEUE" envDefault:"hookd"`
	BodyLimit     int64         `env:"HOOKD_BODY_LIMIT" envDefault:"1048576"`
	Timeout       time.Duration `env:"HOOKD_TIMEOUT" envDefault:"30s"`
	RateLimit     float64       `env:"HOOKD_RATE_LIMIT" envDefault:"0"`
	RateBurst     int           `env:"HOOKD_RATE_BURST" envDefault:"20"`

	// Per-route overrides, as "Pattern:value" pairs separated by commas.
	RouteBodyLimits map[string]int64         `env:"HOOKD_ROUTE_BODY_LIMITS"`
	RouteTimeouts   map[string]time.Duration `env:"HOOKD_ROUTE_TIMEOUTS"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c config) level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// receiversFile is the YAML document naming the receivers routes may use.
//
//	receivers:
//	  - name: github
//	    kind: hmac
//	    secret_env: GITHUB_WEBHOOK_SECRET
//	    event_header: X-GitHub-Event
//	  - name: billing
//	    kind: jwt
//	    secret_env: BILLING_JWT_KEY
//	    issuer: billing
type receiversFile struct {
	Receivers []receiverSpec `yaml:"receivers"`
}

type receiverSpec struct {
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"`
	SecretEnv   string `yaml:"secret_env"`
	Header      string `yaml:"header"`
	Prefix      string `yaml:"prefix"`
	Encoding    string `yaml:"encoding"`
	EventHeader string `yaml:"event_header"`
	Issuer      string `yaml:"issuer"`
	EventClaim  string `yaml:"event_claim"`
}

// loadReceivers reads the receivers file at path. Secrets come from the
// environment variables the file names, looked up with lookup.
func loadReceivers(path string, lookup func(string) (string, bool)) (map[string]hook.Receiver, error) {
	out := make(map[string]hook.Receiver)
	if path == "" {
		return out, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read receivers file: %w", err)
	}
	var file receiversFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse receivers file: %w", err)
	}

	for _, decl := range file.Receivers {
		if decl.Name == "" {
			return nil, fmt.Errorf("receiver without a name")
		}
		if _, dup := out[decl.Name]; dup {
			return nil, fmt.Errorf("receiver %q declared twice", decl.Name)
		}
		secret, ok := lookup(decl.SecretEnv)
		if decl.SecretEnv == "" || !ok || secret == "" {
			return nil, fmt.Errorf("receiver %q: secret variable %q is not set", decl.Name, decl.SecretEnv)
		}

		switch strings.ToLower(decl.Kind) {
		case "hmac":
			out[decl.Name] = &receiver.HMAC{
				Secret:      []byte(secret),
				Header:      decl.Header,
				Prefix:      decl.Prefix,
				Encoding:    decl.Encoding,
				EventHeader: decl.EventHeader,
			}
		case "jwt":
			out[decl.Name] = &receiver.JWT{
				Key:        []byte(secret),
				Issuer:     decl.Issuer,
				EventClaim: decl.EventClaim,
			}
		default:
			return nil, fmt.Errorf("receiver %q: unknown kind %q", decl.Name, decl.Kind)
		}
	}
	return out, nil
}
