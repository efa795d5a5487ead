package annotation

import "github.com/gocrud/mvc/metadata"

// Query 把第 index 个参数绑定到查询参数；给出 key 时只取该字段
func Query(index int, key ...string) metadata.ParamMetadata {
	return bind(index, metadata.ParamQuery, key)
}

// Body 把第 index 个参数绑定到请求体；给出 key 时只取该字段
func Body(index int, key ...string) metadata.ParamMetadata {
	return bind(index, metadata.ParamBody, key)
}

// Param 把第 index 个参数绑定到路径参数；给出 key 时只取该字段
func Param(index int, key ...string) metadata.ParamMetadata {
	return bind(index, metadata.ParamPath, key)
}

// Ctx 注入请求上下文
func Ctx(index int) metadata.ParamMetadata {
	return bind(index, metadata.ParamCtx, nil)
}

// Next 注入后续处理函数
func Next(index int) metadata.ParamMetadata {
	return bind(index, metadata.ParamNext, nil)
}

func bind(index int, typ metadata.ParamType, key []string) metadata.ParamMetadata {
	p := metadata.ParamMetadata{Index: index, Type: typ}
	if len(key) > 0 {
		p.Key = key[0]
	}
	return p
}
