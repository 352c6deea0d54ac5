package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const configHeader = `# Files Manager Configuration File
#
# Every key can be overridden from the environment with the FILESMANAGER_
# prefix, e.g. FILESMANAGER_LOGGING_LEVEL=DEBUG. FOLDER_PATH and PORT are
# also honored for content.filesystem.path and api.port.
`

// sectionComments are written above the matching keys.
var sectionComments = map[string]string{
	"logging":       "Logging: level is DEBUG, INFO, WARN or ERROR; format is text or json;\noutput is stdout, stderr or a file path.",
	"server":        "Process-wide settings. Metrics are served on their own port at /metrics.",
	"api":           "HTTP API. max_body_bytes caps JSON bodies (uploads are base64 inside them).\nrate_limit.requests_per_second: 0 disables per-client rate limiting.",
	"metadata":      "File records and users. type: memory or badger.",
	"content":       "File bytes and thumbnails. type: filesystem, memory or s3.",
	"content.s3":    "S3 settings. Leave endpoint empty for AWS; set it for MinIO or Localstack.\naccess_key_id and secret_access_key fall back to the default credential chain.",
	"queue":         "Thumbnail job queue. type: memory or badger.",
	"queue.options": "A job is retried with exponential backoff until max_attempts, then kept as dead.",
	"sessions":      "Session tokens issued by GET /connect. type: memory or badger.",
	"thumbnail":     "Thumbnail workers. job_timeout must stay below queue.options.lease_duration.",
	"gc":            "Garbage collection of blobs no file record references.",
}

// InitConfig writes the default configuration to the default location and
// returns its path. An existing file is only replaced when force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes the default configuration to path.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	data, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg as commented YAML using the
// mapstructure key names, so the output loads back through Load.
func generateYAMLWithComments(cfg *Config) (string, error) {
	root, err := toNode(reflect.ValueOf(cfg), "")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(configHeader)
	sb.WriteString("\n")

	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return sb.String(), nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// toNode converts a config value into a YAML node. path is the dotted key
// of v, used to look up section comments.
func toNode(v reflect.Value, path string) (*yaml.Node, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: ""}, nil
		}
		v = v.Elem()
	}

	if v.Type() == durationType {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: time.Duration(v.Int()).String()}, nil
	}

	switch v.Kind() {
	case reflect.Struct:
		node := &yaml.Node{Kind: yaml.MappingNode}
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
			if name == "" || name == "-" {
				continue
			}
			if err := appendPair(node, joinKey(path, name), name, v.Field(i)); err != nil {
				return nil, err
			}
		}
		return node, nil

	case reflect.Map:
		node := &yaml.Node{Kind: yaml.MappingNode}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := appendPair(node, joinKey(path, k), k, v.MapIndex(reflect.ValueOf(k))); err != nil {
				return nil, err
			}
		}
		return node, nil

	default:
		node := &yaml.Node{}
		if err := node.Encode(v.Interface()); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", path, err)
		}
		return node, nil
	}
}

func appendPair(node *yaml.Node, path, name string, value reflect.Value) error {
	valueNode, err := toNode(value, path)
	if err != nil {
		return err
	}
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: name, HeadComment: sectionComments[path]}
	node.Content = append(node.Content, keyNode, valueNode)
	return nil
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// defaultKeys lists every leaf key of the default configuration, dotted.
func defaultKeys() []string {
	root, err := toNode(reflect.ValueOf(GetDefaultConfig()), "")
	if err != nil {
		return nil
	}
	var keys []string
	collectKeys(root, "", &keys)
	return keys
}

func collectKeys(node *yaml.Node, prefix string, keys *[]string) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := joinKey(prefix, node.Content[i].Value)
		value := node.Content[i+1]
		if value.Kind == yaml.MappingNode && len(value.Content) > 0 {
			collectKeys(value, key, keys)
			continue
		}
		*keys = append(*keys, key)
	}
}
