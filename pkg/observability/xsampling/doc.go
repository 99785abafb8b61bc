// Package xsampling 决定一条事件（如访问日志）是否被记录。
//
// Keyed 对相同的 key 总是给出相同的决策，适合按 trace_id 采样：
// 同一条链路在所有进程里要么全部记录，要么全部跳过。
// key 为空时退化为按比率随机采样。
package xsampling
