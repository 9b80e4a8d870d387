package core

import "fmt"

// Extension 应用扩展的最小接口。
// 扩展还需实现 ServiceConfigurator、AppConfigurator 之一或两者，
// 否则 AddExtension 会拒绝它。
type Extension interface {
	// Name 扩展名称，用于日志与错误定位。
	Name() string
}

// ServiceConfigurator 服务注册阶段的扩展：把服务登记进容器。
type ServiceConfigurator interface {
	ConfigureServices(services *ServiceCollection)
}

// AppConfigurator 应用配置阶段的扩展：操作构建上下文，
// 登记 Options、托管服务等。
type AppConfigurator interface {
	ConfigureBuilder(ctx *BuildContext)
}

// validateExtension 扩展必须至少落入一个阶段，否则注册它毫无效果，
// 这几乎总是方法签名写错导致的，直接 panic 暴露问题。
func validateExtension(ext Extension) {
	_, hasServices := ext.(ServiceConfigurator)
	_, hasBuilder := ext.(AppConfigurator)
	if !hasServices && !hasBuilder {
		panic(fmt.Sprintf(
			"app: Extension '%s' does not implement any supported interfaces (ServiceConfigurator, AppConfigurator); check that the method signatures match exactly",
			ext.Name()))
	}
}
