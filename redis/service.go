package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClientOptions 单个客户端的连接参数，按名称区分实例。
type RedisClientOptions struct {
	Name         string
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
}

// NewDefaultOptions 返回指向本机 6379 的默认参数。
func NewDefaultOptions(name string) *RedisClientOptions {
	return &RedisClientOptions{
		Name:         name,
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
	}
}

// Validate 校验必填项
func (o *RedisClientOptions) Validate() error {
	switch {
	case o.Name == "":
		return fmt.Errorf("redis client name is required")
	case o.Addr == "":
		return fmt.Errorf("redis address is required")
	case o.DB < 0:
		return fmt.Errorf("redis database number must be non-negative")
	case o.DialTimeout <= 0:
		return fmt.Errorf("redis dial timeout must be positive")
	}
	return nil
}

// driverOptions 转换为 go-redis 的驱动配置。
func (o *RedisClientOptions) driverOptions() *redis.Options {
	return &redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  o.DialTimeout,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
		PoolSize:     o.PoolSize,
		MinIdleConns: o.MinIdleConns,
		MaxRetries:   o.MaxRetries,
	}
}

// RedisClientFactory 持有已连接的客户端，按名称索引。
// Register 建立连接，Close 统一释放。
type RedisClientFactory struct {
	mu      sync.RWMutex
	clients map[string]*redis.Client
}

func NewRedisClientFactory() *RedisClientFactory {
	return &RedisClientFactory{clients: make(map[string]*redis.Client)}
}

// Register 按配置建立连接并纳入工厂。
// 注册时会 Ping 一次，连不上服务器直接报错，不保留半死的客户端。
func (f *RedisClientFactory) Register(opts RedisClientOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.clients[opts.Name]; dup {
		return fmt.Errorf("redis client '%s' already registered", opts.Name)
	}

	client := redis.NewClient(opts.driverOptions())

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	f.clients[opts.Name] = client
	return nil
}

// Get 按名称取客户端
func (f *RedisClientFactory) Get(name string) (*redis.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if client, ok := f.clients[name]; ok {
		return client, nil
	}
	return nil, fmt.Errorf("redis client '%s' not found", name)
}

// Each 遍历全部客户端
func (f *RedisClientFactory) Each(fn func(name string, client *redis.Client)) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for name, client := range f.clients {
		fn(name, client)
	}
}

// Close 关闭全部客户端并清空工厂，逐个收集关闭失败的错误。
func (f *RedisClientFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*redis.Client)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing redis clients: %v", errs)
	}
	return nil
}
