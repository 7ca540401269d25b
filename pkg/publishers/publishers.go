package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Supported publisher types.
const (
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeHTTP      = "http"
	TypeGCPPubSub = "gcp_pubsub"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// PublisherConfig is one sink declared in the publishers file. Only the
// block matching Type is required; any other block present must still be
// valid.
type PublisherConfig struct {
	ID        string                    `json:"id" yaml:"id" toml:"id" validate:"required"`
	Type      string                    `json:"type" yaml:"type" toml:"type" validate:"required,oneof=sqs sns http gcp_pubsub"`
	Enabled   *bool                     `json:"enabled" yaml:"enabled" toml:"enabled"`
	SQS       *SQSPublisherConfig       `json:"sqs" yaml:"sqs" toml:"sqs" validate:"required_if=Type sqs"`
	SNS       *SNSPublisherConfig       `json:"sns" yaml:"sns" toml:"sns" validate:"required_if=Type sns"`
	HTTP      *HTTPPublisherConfig      `json:"http" yaml:"http" toml:"http" validate:"required_if=Type http"`
	GCPPubSub *GCPPubSubPublisherConfig `json:"gcp_pubsub" yaml:"gcp_pubsub" toml:"gcp_pubsub" validate:"required_if=Type gcp_pubsub"`
}

// SQSPublisherConfig targets a queue. Queue URLs ending in .fifo are
// grouped per feed.
type SQSPublisherConfig struct {
	QueueURL string `json:"uri" yaml:"uri" toml:"uri" validate:"required,url"`
	Region   string `json:"region" yaml:"region" toml:"region" validate:"required"`
}

// SNSPublisherConfig targets a topic. FIFO topics are grouped per feed.
type SNSPublisherConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn" toml:"topic_arn" validate:"required,startswith=arn:"`
	Region   string `json:"region" yaml:"region" toml:"region" validate:"required"`
}

// HTTPPublisherConfig holds generic webhook settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url" toml:"url" validate:"required,url"`
	Method         string            `json:"method" yaml:"method" toml:"method" validate:"omitempty,oneof=POST PUT PATCH"`
	Headers        map[string]string `json:"headers" yaml:"headers" toml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds" validate:"gte=0,lte=300"`
}

// GCPPubSubPublisherConfig holds Google Cloud Pub/Sub settings. An empty
// CredentialsFile uses application default credentials.
type GCPPubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id" toml:"project_id" validate:"required"`
	Topic           string `json:"topic" yaml:"topic" toml:"topic" validate:"required"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file" toml:"credentials_file"`
	Ordered         bool   `json:"ordered" yaml:"ordered" toml:"ordered"`
}

type configFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers" toml:"publishers"`
}

var configValidator = newConfigValidator()

// newConfigValidator reports fields by their config file keys.
func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ConfigRegistry is the immutable set of publishers read from a file.
type ConfigRegistry struct {
	publishers []PublisherConfig
	idx        map[string]PublisherConfig
}

// LoadRegistry loads the publisher registry from a YAML, JSON or TOML file.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodeConfigFile(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(file.Publishers)),
		idx:        make(map[string]PublisherConfig, len(file.Publishers)),
	}
	for i, entry := range file.Publishers {
		cfg := sanitizePublisherConfig(entry)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, exists := reg.idx[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.publishers = append(reg.publishers, cfg)
		reg.idx[cfg.ID] = cfg
	}
	return reg, nil
}

// decodeConfigFile decodes by extension, or tries every format when the
// extension is unknown.
func decodeConfigFile(data []byte, ext string) (configFile, error) {
	decoders := map[string]func([]byte, any) error{
		".yaml": yaml.Unmarshal,
		".yml":  yaml.Unmarshal,
		".json": json.Unmarshal,
		".toml": toml.Unmarshal,
	}

	ext = strings.ToLower(strings.TrimSpace(ext))
	if fn, ok := decoders[ext]; ok {
		var file configFile
		if err := fn(data, &file); err != nil {
			return configFile{}, fmt.Errorf("decode %s publishers: %w", strings.TrimPrefix(ext, "."), err)
		}
		return file, nil
	}

	for _, fn := range []func([]byte, any) error{yaml.Unmarshal, json.Unmarshal, toml.Unmarshal} {
		var file configFile
		if err := fn(data, &file); err == nil && len(file.Publishers) > 0 {
			return file, nil
		}
	}
	return configFile{}, errors.New("publishers file format not recognized (expected YAML, JSON or TOML)")
}

func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		enabled := true
		cfg.Enabled = &enabled
	}

	if c := cfg.SQS; c != nil {
		cfg.SQS = &SQSPublisherConfig{
			QueueURL: strings.TrimSpace(c.QueueURL),
			Region:   strings.TrimSpace(c.Region),
		}
	}
	if c := cfg.SNS; c != nil {
		cfg.SNS = &SNSPublisherConfig{
			TopicARN: strings.TrimSpace(c.TopicARN),
			Region:   strings.TrimSpace(c.Region),
		}
	}
	if c := cfg.HTTP; c != nil {
		out := HTTPPublisherConfig{
			URL:            strings.TrimSpace(c.URL),
			Method:         strings.ToUpper(strings.TrimSpace(c.Method)),
			Headers:        sanitizeHeaders(c.Headers),
			TimeoutSeconds: c.TimeoutSeconds,
		}
		if out.Method == "" {
			out.Method = httpDefaultMethod
		}
		if out.TimeoutSeconds <= 0 {
			out.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		cfg.HTTP = &out
	}
	if c := cfg.GCPPubSub; c != nil {
		cfg.GCPPubSub = &GCPPubSubPublisherConfig{
			ProjectID:       strings.TrimSpace(c.ProjectID),
			Topic:           strings.TrimSpace(c.Topic),
			CredentialsFile: strings.TrimSpace(c.CredentialsFile),
			Ordered:         c.Ordered,
		}
	}
	return cfg
}

// sanitizeHeaders trims keys and values and drops empty entries.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key, val := strings.TrimSpace(k), strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	err := configValidator.Struct(cfg)
	if err == nil {
		return nil
	}

	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return err
	}
	msgs := make([]string, 0, len(valErrs))
	for _, fe := range valErrs {
		msgs = append(msgs, describeConfigError(fe))
	}
	return fmt.Errorf("publisher %q: %s", cfg.ID, strings.Join(msgs, "; "))
}

// describeConfigError renders a failure using the dotted config key, for
// example "sqs.uri is required".
func describeConfigError(fe validator.FieldError) string {
	key := fe.Namespace()
	if _, rest, ok := strings.Cut(key, "."); ok {
		key = rest
	}
	switch fe.Tag() {
	case "required_if":
		return key + " config required"
	case "required":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s %q must be one of [%s]", key, fe.Value(), fe.Param())
	case "url":
		return fmt.Sprintf("%s %q is not a valid url", key, fe.Value())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", key, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s must be %s %s", key, fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", key, fe.Tag())
	}
}

// ByID returns the publisher config by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	cfg, ok := r.idx[strings.TrimSpace(id)]
	return cfg, ok
}

// All returns all configured publishers in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	out := make([]PublisherConfig, len(r.publishers))
	copy(out, r.publishers)
	return out
}

// Enabled returns publishers that are enabled.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue returns enabled flag defaulting to true.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
