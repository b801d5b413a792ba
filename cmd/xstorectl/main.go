// xstorectl 是 xstore 仓库的命令行工具。
//
// 用法:
//
//	xstorectl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   配置文件路径，YAML 或 JSON (默认: xstorectl.yaml，不存在时使用默认配置)
//	-b, --backend  覆盖配置中的后端: memory, file, bolt, redis, mongo
//	--table        覆盖配置中的表名
//	--log-level    覆盖配置中的日志级别
//
// 环境变量 XSTORE_<KEY> 覆盖配置文件，层级用 "__" 分隔，例如 XSTORE_REDIS__ADDR。
//
// 命令:
//
//	get <id>                          读取记录
//	put <id> <json|->                 写入记录，"-" 表示从标准输入读取
//	delete <id>                       删除记录
//	list [--ids]                      列出全部记录或 id
//	copy --from <b> --to <b> [--move] 在两个后端之间复制记录
//	publish <channel> <json>          通过 Redis 父频道发送消息
//	listen <channel>...               接收消息并逐行输出
//	ping                              检查后端连通性
//
// 退出码:
//
//	0: 成功
//	1: 执行失败或记录不存在
//	2: 参数错误
//
// 示例:
//
//	xstorectl -b file put u1 '{"name":"alice"}'
//	xstorectl -c prod.yaml copy --from redis --to bolt
//	xstorectl listen invalidate --count 10
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xstore/pkg/config/xconf"
	"github.com/omeyang/xstore/pkg/observability/xlog"
)

const defaultConfigPath = "xstorectl.yaml"

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

// exitError 命令已完成输出，只需设置退出码
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// app 保存一次运行的共享状态，由根命令的 Before 初始化
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg      Config
	raw      xconf.Config
	logger   xlog.LoggerWithLevel
	closeLog func() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	err := a.command().Run(ctx, args)
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(stderr, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 的 flag 解析错误
func isCLIUsageError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "flag provided but not defined") ||
		strings.Contains(msg, "invalid value") ||
		strings.Contains(msg, "Required flag") ||
		strings.Contains(msg, "No help topic")
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:      "xstorectl",
		Usage:     "xstore 仓库命令行工具",
		Version:   fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Reader:    a.stdin,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径",
				Value:   defaultConfigPath,
			},
			&cli.StringFlag{
				Name:    "backend",
				Aliases: []string{"b"},
				Usage:   "后端: memory, file, bolt, redis, mongo",
			},
			&cli.StringFlag{
				Name:  "table",
				Usage: "表名",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别: debug, info, warn, error",
			},
		},
		Before:   a.before,
		After:    a.after,
		Commands: a.commands(),
		// 退出码由 run 统一映射，不让 urfave/cli 调用 os.Exit
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, raw, err := loadConfig(cmd.String("config"), cmd.IsSet("config"))
	if err != nil {
		return ctx, err
	}
	if v := cmd.String("backend"); v != "" {
		cfg.Backend = v
	}
	if v := cmd.String("table"); v != "" {
		cfg.Table = v
	}
	if v := cmd.String("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if err := cfg.validate(); err != nil {
		return ctx, err
	}

	logger, closeLog, err := buildLogger(cfg, a.stderr)
	if err != nil {
		return ctx, &usageError{msg: err.Error()}
	}
	a.cfg, a.raw, a.logger, a.closeLog = cfg, raw, logger, closeLog
	return ctx, nil
}

func (a *app) after(context.Context, *cli.Command) error {
	if a.closeLog == nil {
		return nil
	}
	return a.closeLog()
}
