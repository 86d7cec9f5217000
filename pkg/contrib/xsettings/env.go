package xsettings

import (
	"os"
	"strings"
)

// 进程级环境变量。
const (
	// EnvEnvironment 部署环境名（如 production、staging）。
	EnvEnvironment = "XCONTRIB_ENV"

	// EnvTags 全局 span 标签，格式 "k:v,k2:v2"。
	EnvTags = "XCONTRIB_TAGS"
)

// lookupEnv 是 os.LookupEnv 的包级变量，测试中可替换。
var lookupEnv = os.LookupEnv

// EnvBool 读取布尔环境变量：存在时仅当值（忽略大小写）为 "true" 返回 true，不存在返回 def。
func EnvBool(name string, def bool) bool {
	v, ok := lookupEnv(name)
	if !ok {
		return def
	}
	return strings.ToLower(strings.TrimSpace(v)) == "true"
}

// EnvFloat 读取浮点环境变量，取值开头的数字部分（"1.5x" 为 1.5），
// 开头不是数字时返回 0，不存在返回 def。
func EnvFloat(name string, def float64) float64 {
	v, ok := lookupEnv(name)
	if !ok {
		return def
	}
	return leadingFloat(v)
}

// EnvList 读取逗号分隔的列表环境变量，不存在返回 def。
func EnvList(name string, def []string) []string {
	v, ok := lookupEnv(name)
	if !ok {
		return def
	}
	return splitList(v)
}

// EnvironmentName 返回 XCONTRIB_ENV，未设置时返回空字符串。
func EnvironmentName() string {
	v, _ := lookupEnv(EnvEnvironment)
	return v
}

// GlobalTags 解析 XCONTRIB_TAGS 中的 "k:v" 对，并在设置了 XCONTRIB_ENV 时附加 env 标签。
//
// 只保留恰好包含一个冒号的项，其它项忽略。
func GlobalTags() map[string]string {
	tags := make(map[string]string)
	for _, item := range EnvList(EnvTags, nil) {
		pair := strings.Split(item, ":")
		if len(pair) != 2 || pair[0] == "" || pair[1] == "" {
			continue
		}
		tags[pair[0]] = pair[1]
	}
	if env, ok := lookupEnv(EnvEnvironment); ok {
		tags["env"] = env
	}
	return tags
}
