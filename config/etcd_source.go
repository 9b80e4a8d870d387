package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdSource 从 etcd 键前缀下读取配置。
// 键的 "/" 层级映射到配置树层级，值按 JSON、YAML、纯文本的顺序尝试解析。
type EtcdSource struct {
	Options EtcdOptions

	watchMu     sync.Mutex
	watchClient *clientv3.Client
	watchCancel context.CancelFunc
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) Load() (map[string]any, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}

	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		key := string(kv.Key)
		if s.Options.Prefix != "" {
			key = strings.TrimPrefix(key, s.Options.Prefix)
		}
		key = strings.TrimPrefix(key, "/")
		if key == "" {
			continue
		}

		key = strings.ReplaceAll(key, "/", ":")
		setNestedValue(result, key, decodeEtcdValue(kv.Value))
	}
	return result, nil
}

// decodeEtcdValue 解析 etcd 值，JSON 优先于 YAML，都失败时当作字符串。
func decodeEtcdValue(raw []byte) any {
	var jsonValue any
	if err := json.Unmarshal(raw, &jsonValue); err == nil {
		return jsonValue
	}

	var yamlValue any
	if err := yaml.Unmarshal(raw, &yamlValue); err == nil {
		return yamlValue
	}
	return string(raw)
}
