package core

import (
	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/logging"
)

// ConfigurationContext 配置阶段的只读视图，
// 不暴露绑定和托管服务入口，杜绝副作用操作。
type ConfigurationContext interface {
	GetConfiguration() config.Configuration
	GetEnvironment() Environment
	GetLogger() logging.Logger
}
