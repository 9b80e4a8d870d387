package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoOptions 单个 MongoDB 客户端的连接参数。
type MongoOptions struct {
	Name        string
	Uri         string
	Username    string
	Password    string
	MaxPoolSize uint64
	MinPoolSize uint64
	Timeout     time.Duration
}

// NewDefaultOptions 返回带连接池默认值的参数。
func NewDefaultOptions(name string, uri string) *MongoOptions {
	return &MongoOptions{
		Name:        name,
		Uri:         uri,
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 校验必填项
func (o *MongoOptions) Validate() error {
	switch {
	case o.Name == "":
		return fmt.Errorf("mongo client name is required")
	case o.Uri == "":
		return fmt.Errorf("mongo uri is required")
	}
	return nil
}

// driverOptions 转换为官方驱动的客户端配置，跳过未设置的可选项。
func (o *MongoOptions) driverOptions() *options.ClientOptions {
	opts := options.Client()
	if o.Username != "" || o.Password != "" {
		opts.SetAuth(options.Credential{
			Username: o.Username,
			Password: o.Password,
		})
	}
	if o.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		opts.SetMinPoolSize(o.MinPoolSize)
	}
	if o.Timeout > 0 {
		opts.SetConnectTimeout(o.Timeout)
	}
	return opts
}

// MongoFactory 持有已连接的 MongoDB 客户端，按名称索引。
type MongoFactory struct {
	mu      sync.RWMutex
	clients map[string]*mgo.Client
}

func NewMongoFactory() *MongoFactory {
	return &MongoFactory{clients: make(map[string]*mgo.Client)}
}

// Register 按配置建连并纳入工厂，连接在 opts.Timeout 内完成。
func (f *MongoFactory) Register(opts MongoOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, dup := f.clients[opts.Name]; dup {
		return fmt.Errorf("mongo client '%s' already registered", opts.Name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client, err := mgo.NewClient(ctx, opts.Uri, opts.driverOptions())
	if err != nil {
		return fmt.Errorf("failed to create mongo client '%s': %w", opts.Name, err)
	}

	f.clients[opts.Name] = client
	return nil
}

// Get 按名称取客户端
func (f *MongoFactory) Get(name string) (*mgo.Client, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	client, ok := f.clients[name]
	return client, ok
}

// Each 遍历全部客户端
func (f *MongoFactory) Each(fn func(name string, client *mgo.Client)) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for name, client := range f.clients {
		fn(name, client)
	}
}

// Close 断开全部客户端并清空工厂，整体限时 10 秒。
func (f *MongoFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	for name, client := range f.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client '%s': %w", name, err))
		}
	}
	f.clients = make(map[string]*mgo.Client)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing mongo clients: %v", errs)
	}
	return nil
}
