package config

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// MutableConfiguration 可直接加载与写入的配置
// 用于微内核 Runtime 路径，启动阶段逐步加载文件和环境变量。
type MutableConfiguration struct {
	configuration
}

// NewConfiguration 创建空的可变配置
func NewConfiguration() *MutableConfiguration {
	return &MutableConfiguration{
		configuration: configuration{data: make(map[string]any)},
	}
}

// LoadFile 加载配置文件并合并到当前配置
// 根据扩展名选择解析器，.json 使用 JSON，其余按 YAML 解析。
func (c *MutableConfiguration) LoadFile(path string) error {
	var source ConfigurationSource
	if strings.EqualFold(filepath.Ext(path), ".json") {
		source = &JsonFileSource{Path: path}
	} else {
		source = &YamlFileSource{Path: path}
	}

	data, err := source.Load()
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	mergeMaps(c.data, data)
	return nil
}

// LoadEnv 加载环境变量并合并到当前配置
// 可选前缀用于筛选变量，前缀会从键名中去除。
func (c *MutableConfiguration) LoadEnv(prefix ...string) {
	p := ""
	if len(prefix) > 0 {
		p = prefix[0]
	}

	source := &EnvironmentVariableSource{Prefix: p}
	data, _ := source.Load()

	c.mu.Lock()
	defer c.mu.Unlock()
	mergeMaps(c.data, data)
}

// WatchFile 监听配置文件变更，变更后重新加载并合并。
// ctx 取消时停止监听。
func (c *MutableConfiguration) WatchFile(ctx context.Context, path string) error {
	w := &fileWatcher{}
	return w.start(ctx, path, func() {
		// 加载失败保留旧值，等下次变更再试
		_ = c.LoadFile(path)
	})
}

// Set 写入单个配置项（支持 "a:b:c" 或 "a.b.c" 路径）
func (c *MutableConfiguration) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	setNestedValue(c.data, strings.ReplaceAll(key, ".", ":"), value)
}

var _ Configuration = (*MutableConfiguration)(nil)
