package etcd

import (
	"fmt"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdClientOptions 单个 etcd 客户端的连接参数。
// Username 非空时连同 Password 一起下发，其余可选项为零值时沿用驱动默认。
type EtcdClientOptions struct {
	Name               string
	Endpoints          []string
	DialTimeout        time.Duration
	Username           string
	Password           string
	AutoSyncInterval   time.Duration
	MaxCallSendMsgSize int
	MaxCallRecvMsgSize int
}

// NewDefaultOptions 返回指向本机 2379 的默认参数。
func NewDefaultOptions(name string) *EtcdClientOptions {
	return &EtcdClientOptions{
		Name:        name,
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
	}
}

// Validate 校验必填项
func (o *EtcdClientOptions) Validate() error {
	switch {
	case o.Name == "":
		return fmt.Errorf("etcd client name is required")
	case len(o.Endpoints) == 0:
		return fmt.Errorf("etcd endpoints are required")
	case o.DialTimeout <= 0:
		return fmt.Errorf("etcd dial timeout must be positive")
	}
	return nil
}

// driverConfig 转换为 clientv3 的驱动配置，跳过未设置的可选项。
func (o *EtcdClientOptions) driverConfig() clientv3.Config {
	cfg := clientv3.Config{
		Endpoints:   o.Endpoints,
		DialTimeout: o.DialTimeout,
	}
	if o.Username != "" {
		cfg.Username = o.Username
		cfg.Password = o.Password
	}
	if o.AutoSyncInterval > 0 {
		cfg.AutoSyncInterval = o.AutoSyncInterval
	}
	if o.MaxCallSendMsgSize > 0 {
		cfg.MaxCallSendMsgSize = o.MaxCallSendMsgSize
	}
	if o.MaxCallRecvMsgSize > 0 {
		cfg.MaxCallRecvMsgSize = o.MaxCallRecvMsgSize
	}
	return cfg
}

// EtcdClientFactory 持有已建立的 etcd 客户端，按名称索引。
type EtcdClientFactory struct {
	mu      sync.RWMutex
	clients map[string]*clientv3.Client
}

func NewEtcdClientFactory() *EtcdClientFactory {
	return &EtcdClientFactory{clients: make(map[string]*clientv3.Client)}
}

// Register 按配置建立客户端并纳入工厂，名称重复视为注册失败。
func (f *EtcdClientFactory) Register(opts EtcdClientOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.clients[opts.Name]; dup {
		return fmt.Errorf("etcd client '%s' already registered", opts.Name)
	}

	client, err := clientv3.New(opts.driverConfig())
	if err != nil {
		return fmt.Errorf("failed to create etcd client: %w", err)
	}

	f.clients[opts.Name] = client
	return nil
}

// Get 按名称取客户端
func (f *EtcdClientFactory) Get(name string) (*clientv3.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if client, ok := f.clients[name]; ok {
		return client, nil
	}
	return nil, fmt.Errorf("etcd client '%s' not found", name)
}

// Each 遍历全部客户端
func (f *EtcdClientFactory) Each(fn func(name string, client *clientv3.Client)) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for name, client := range f.clients {
		fn(name, client)
	}
}

// Close 关闭全部客户端并清空工厂，逐个收集关闭失败的错误。
func (f *EtcdClientFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var errs []error
	for name, client := range f.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*clientv3.Client)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing etcd clients: %v", errs)
	}
	return nil
}
