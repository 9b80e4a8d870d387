package core

// Option 在构建阶段改写 Runtime 的函数，Apply 按序执行。
// 集成模块（web、cron、数据库等）都以 Option 的形式接入。
type Option func(rt *Runtime) error
