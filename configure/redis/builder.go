package redis

import (
	rds "github.com/gocrud/inject/redis"
)

// 构建逻辑与顶层 redis 包共用一套，这里只暴露 BuildContext 阶段用到的名字。
type (
	Builder            = rds.Builder
	RedisClientOptions = rds.RedisClientOptions
	RedisClientFactory = rds.RedisClientFactory
)

// NewBuilder 创建 Redis 构建器
func NewBuilder() *Builder {
	return rds.NewBuilder()
}
