package config

// Load 加载并绑定指定节的配置到结构体 T，section 为空时绑定整个配置
//
//	settings, err := config.Load[Settings](cfg, "mvc")
func Load[T any](cfg Configuration, section string) (T, error) {
	var t T
	err := cfg.Bind(section, &t)
	return t, err
}

// LoadOrDefault 与 Load 相同，但节不存在时返回 def
func LoadOrDefault[T any](cfg Configuration, section string, def T) (T, error) {
	if section != "" && len(cfg.GetSection(section).GetAll()) == 0 {
		return def, nil
	}
	t := def
	err := cfg.Bind(section, &t)
	return t, err
}
