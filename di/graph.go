package di

// graph 在构造之前遍历依赖图并检测循环依赖。
type graph struct {
	container *Container
	visited   map[any]bool
	stack     map[any]bool
	path      []string
}

func newGraph(c *Container) *graph {
	return &graph{
		container: c,
		visited:   make(map[any]bool),
		stack:     make(map[any]bool),
	}
}

// checkCycles 从 n 开始做 DFS。已缓存的单例不再展开，
// 无法解析的依赖留给构造阶段报告（那里有更完整的上下文）。
func (g *graph) checkCycles(n node) error {
	g.visited[n.key] = true
	g.stack[n.key] = true
	g.path = append(g.path, displayToken(n.key))

	if !g.cached(n) {
		for _, dep := range n.cls.deps {
			child, err := g.container.node(dep.Token)
			if err != nil {
				continue
			}

			if g.stack[child.key] {
				path := append(append([]string{}, g.path...), displayToken(child.key))
				return &CircularDependencyError{Path: trimCycle(path)}
			}
			if g.visited[child.key] {
				continue
			}
			if err := g.checkCycles(child); err != nil {
				return err
			}
		}
	}

	g.stack[n.key] = false
	g.path = g.path[:len(g.path)-1]
	return nil
}

func (g *graph) cached(n node) bool {
	if n.reg == nil || n.reg.Scope != ScopeSingleton {
		return false
	}
	_, built := n.reg.Instance()
	return built
}

// trimCycle 去掉环之前的路径，只保留 a -> ... -> a
func trimCycle(path []string) []string {
	last := path[len(path)-1]
	for i, p := range path {
		if p == last {
			return path[i:]
		}
	}
	return path
}
