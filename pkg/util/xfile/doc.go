// Package xfile 提供文件路径安全检查与原子写入。
//
// SafeJoin 把模型 id 之类的单段名称安全地映射到目录内；
// WriteFileAtomic 用 temp + rename 保证文件内容完整。
package xfile
