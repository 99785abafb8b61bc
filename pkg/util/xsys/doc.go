// Package xsys 管理进程资源限制。
//
//   - [RaiseFileLimit]: 把 RLIMIT_NOFILE 软限制提升到目标值（不超过硬限制），serve 启动时调用
//   - [SetFileLimit]: 显式设置软限制，必要时提升硬限制
//   - [GetFileLimit]: 查询软/硬限制
//
// 非 Unix 平台返回 [ErrUnsupportedPlatform]。
package xsys
