package config

// Load 把配置的一个节绑定到 T，section 为空时绑定整棵配置树。
// 绑定失败时返回 T 的零值与错误。
func Load[T any](cfg Configuration, section string) (T, error) {
	var settings T
	if err := cfg.Bind(section, &settings); err != nil {
		return settings, err
	}
	return settings, nil
}
