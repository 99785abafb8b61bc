// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 文件与路径工具，安全拼接防止目录穿越
//   - xlru: LRU 缓存，泛型支持、自动 TTL 过期
//   - xpool: 泛型 Worker Pool，固定 worker 数、有界队列、优雅关闭
//   - xsys: 系统资源限制管理，文件描述符上限
package util
