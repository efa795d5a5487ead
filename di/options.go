package di

// Option 配置服务注册。
type Option func(*registerOptions)

type registerOptions struct {
	scope Scope
	deps  []any
}

// WithScope 设置服务的生命周期范围。
func WithScope(scope Scope) Option {
	return func(o *registerOptions) {
		o.scope = scope
	}
}

// WithSingleton 将范围设置为 Singleton（默认）。
func WithSingleton() Option {
	return WithScope(ScopeSingleton)
}

// WithTransient 将范围设置为 Transient。
func WithTransient() Option {
	return WithScope(ScopeTransient)
}

// WithDeps 显式声明构造函数各参数对应的令牌，按参数顺序排列。
// 用于参数类型无法表达依赖的情况，例如两个 string 配置项，
// 或者需要注入命名令牌而不是类型。传 nil 表示该位置仍按参数类型解析。
//
//	container.Register(TypeOf[*Mailer](), NewMailer, di.WithDeps("smtp:host", nil))
func WithDeps(tokens ...any) Option {
	return func(o *registerOptions) {
		o.deps = tokens
	}
}

// ScopeOf 返回一组选项最终生效的作用域
func ScopeOf(opts ...Option) Scope {
	options := &registerOptions{scope: ScopeSingleton}
	for _, opt := range opts {
		opt(options)
	}
	return options.scope
}
