// Package xfile 提供文件路径的安全处理。
//
// # 路径约束
//
//   - [SanitizePath]: 规范化文件路径，拒绝空路径、空字节、相对穿越和目录路径
//   - [SafeJoin]: 把不可信的相对路径拼接到基准目录，保证结果不逃逸
//   - [SafeJoinWithOptions]: 额外解析符号链接后再做包含性检查
//
// 静态文件服务把请求路径交给 SafeJoin，日志轮转用 SanitizePath 和 EnsureDir
// 准备日志文件。
//
// 返回的是已验证的路径字符串；检查与实际打开之间存在 TOCTOU 窗口，
// 对抗性环境需要结合目录权限控制。
package xfile
