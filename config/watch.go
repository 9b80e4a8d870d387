package config

import (
	"context"
	"os"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// filePollInterval 文件变更轮询间隔
const filePollInterval = 2 * time.Second

// fileWatcher 基于修改时间轮询的文件监听器
type fileWatcher struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// start 启动轮询，文件修改时间变化时触发 onChange
func (w *fileWatcher) start(ctx context.Context, path string, onChange func()) error {
	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}

	watchCtx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	if w.cancel != nil {
		// 已在监听
		w.mu.Unlock()
		cancel()
		return nil
	}
	w.cancel = cancel
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(filePollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-watchCtx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue
				}
				if info.ModTime().After(lastMod) {
					lastMod = info.ModTime()
					onChange()
				}
			}
		}
	}()

	return nil
}

// stop 停止轮询
func (w *fileWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

// StartWatch 监听 JSON 文件变更
func (s *JsonFileSource) StartWatch(ctx context.Context, onChange func()) error {
	return s.watcher.start(ctx, s.Path, onChange)
}

// StopWatch 停止监听
func (s *JsonFileSource) StopWatch() {
	s.watcher.stop()
}

// StartWatch 监听 YAML 文件变更
func (s *YamlFileSource) StartWatch(ctx context.Context, onChange func()) error {
	return s.watcher.start(ctx, s.Path, onChange)
}

// StopWatch 停止监听
func (s *YamlFileSource) StopWatch() {
	s.watcher.stop()
}

// StartWatch 环境变量不支持变更监听
func (s *EnvironmentVariableSource) StartWatch(ctx context.Context, onChange func()) error {
	return nil
}

func (s *EnvironmentVariableSource) StopWatch() {}

// StartWatch 内存配置源不支持变更监听
func (s *InMemorySource) StartWatch(ctx context.Context, onChange func()) error {
	return nil
}

func (s *InMemorySource) StopWatch() {}

// StartWatch 使用 etcd Watch API 监听键前缀下的变更
func (s *EtcdSource) StartWatch(ctx context.Context, onChange func()) error {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watchClient != nil {
		return nil
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return err
	}

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}

	watchCtx, cancel := context.WithCancel(ctx)
	s.watchClient = cli
	s.watchCancel = cancel

	watchCh := cli.Watch(watchCtx, prefix, clientv3.WithPrefix())

	go func() {
		for resp := range watchCh {
			if resp.Err() != nil {
				continue
			}
			if len(resp.Events) > 0 {
				onChange()
			}
		}
	}()

	return nil
}

// StopWatch 停止监听并关闭客户端
func (s *EtcdSource) StopWatch() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()

	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watchClient != nil {
		s.watchClient.Close()
		s.watchClient = nil
	}
}
