package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xstore/pkg/codec/xjsoncodec"
	"github.com/omeyang/xstore/pkg/config/xconf"
	"github.com/omeyang/xstore/pkg/lifecycle/xrun"
	"github.com/omeyang/xstore/pkg/model/xmodel"
	"github.com/omeyang/xstore/pkg/mq/xmessenger"
	"github.com/omeyang/xstore/pkg/observability/xlog"
)

func (a *app) commands() []*cli.Command {
	return []*cli.Command{
		a.getCommand(),
		a.putCommand(),
		a.deleteCommand(),
		a.listCommand(),
		a.copyCommand(),
		a.publishCommand(),
		a.listenCommand(),
		a.pingCommand(),
	}
}

// withBackend 打开配置的后端，执行 fn 后释放
func (a *app) withBackend(ctx context.Context, name string, fn func(*backend) error) (err error) {
	b, err := openBackend(ctx, a.cfg, name, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := b.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(b)
}

// requireArgs 检查位置参数个数
func requireArgs(cmd *cli.Command, n int) error {
	if cmd.Args().Len() != n {
		return &usageError{msg: fmt.Sprintf("%s 需要 %d 个参数: %s", cmd.Name, n, cmd.ArgsUsage)}
	}
	return nil
}

func (a *app) notFound(id string) error {
	fmt.Fprintf(a.stderr, "记录不存在: %s\n", id)
	return &exitError{code: 1}
}

func (a *app) getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "读取记录",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			id := cmd.Args().First()
			return a.withBackend(ctx, "", func(b *backend) error {
				r, err := b.repo.Find(ctx, id)
				if xmodel.IsNotFound(err) {
					return a.notFound(id)
				}
				if err != nil {
					return err
				}
				_, err = a.stdout.Write(xjsoncodec.Pretty(r.Doc))
				return err
			})
		},
	}
}

func (a *app) putCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "写入记录，已存在时整体替换",
		ArgsUsage: "<id> <json|->",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2); err != nil {
				return err
			}
			id, body := cmd.Args().Get(0), cmd.Args().Get(1)
			doc := []byte(body)
			if body == "-" {
				data, err := io.ReadAll(a.stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				doc = data
			}
			r, err := newRecord(id, doc)
			if err != nil {
				return &usageError{msg: err.Error()}
			}
			return a.withBackend(ctx, "", func(b *backend) error {
				if _, err := b.repo.Save(ctx, r); err != nil {
					return err
				}
				a.logger.Debug(ctx, "record saved", xlog.ModelID(id), xlog.Component(b.name))
				_, err := fmt.Fprintln(a.stdout, id)
				return err
			})
		},
	}
}

func (a *app) deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Aliases:   []string{"rm"},
		Usage:     "删除记录",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "print",
				Usage: "输出被删除的记录",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 1); err != nil {
				return err
			}
			id := cmd.Args().First()
			return a.withBackend(ctx, "", func(b *backend) error {
				if cmd.Bool("print") {
					r, err := b.repo.DeleteAndRetrieve(ctx, id)
					if xmodel.IsNotFound(err) {
						return a.notFound(id)
					}
					if err != nil {
						return err
					}
					_, err = a.stdout.Write(xjsoncodec.Pretty(r.Doc))
					return err
				}
				deleted, err := b.repo.Delete(ctx, id)
				if err != nil {
					return err
				}
				if !deleted {
					return a.notFound(id)
				}
				return nil
			})
		},
	}
}

func (a *app) pingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "检查后端连通性",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return a.withBackend(ctx, "", func(b *backend) error {
				remote, err := b.health(ctx)
				if err != nil {
					fmt.Fprintf(a.stderr, "%s: %v\n", b.name, err)
					return &exitError{code: 1}
				}
				status := "ok"
				if !remote {
					status = "ok (local)"
				}
				_, err = fmt.Fprintf(a.stdout, "%s: %s\n", b.name, status)
				return err
			})
		},
	}
}

func (a *app) listCommand() *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "列出全部记录，每行一个 JSON",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ids",
				Usage: "只列出 id",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return a.withBackend(ctx, "", func(b *backend) error {
				if cmd.Bool("ids") {
					return b.repo.ForEachID(ctx, func(id string) error {
						_, err := fmt.Fprintln(a.stdout, id)
						return err
					})
				}
				for r, err := range xmodel.All(ctx, b.repo) {
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintf(a.stdout, "%s\n", xjsoncodec.Ugly(r.Doc)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (a *app) copyCommand() *cli.Command {
	return &cli.Command{
		Name:  "copy",
		Usage: "把源后端的全部记录写入目标后端",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "源后端", Required: true},
			&cli.StringFlag{Name: "to", Usage: "目标后端", Required: true},
			&cli.BoolFlag{Name: "move", Usage: "全部写入成功后清空源后端"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			from, to := cmd.String("from"), cmd.String("to")
			if from == to {
				return &usageError{msg: "--from 与 --to 不能相同"}
			}
			return a.withBackend(ctx, from, func(src *backend) error {
				return a.withBackend(ctx, to, func(dst *backend) error {
					return a.copy(ctx, src, dst, cmd.Bool("move"))
				})
			})
		},
	}
}

// copy 源后端作为 fallback，目标后端作为 main
func (a *app) copy(ctx context.Context, src, dst *backend, move bool) error {
	repo, err := xmodel.NewFallbackRepository(dst.repo, src.repo)
	if err != nil {
		return err
	}
	var n atomic.Int64
	count := func(*Record) { n.Add(1) }
	if move {
		err = repo.UploadAll(ctx, count)
	} else {
		err = repo.SaveAll(ctx, count)
	}
	if err != nil {
		return err
	}
	a.logger.Info(ctx, "records copied", xlog.Count(int(n.Load())),
		xlog.Component(src.name+"->"+dst.name))
	_, err = fmt.Fprintf(a.stdout, "copied %d records from %s to %s\n", n.Load(), src.name, dst.name)
	return err
}

// withMessenger 连接 Redis 并在配置的父频道上创建 Messenger
func (a *app) withMessenger(ctx context.Context, fn func(*xmessenger.Messenger) error) (err error) {
	client, err := redisClient(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	m, err := xmessenger.New(ctx, client, a.cfg.Messenger.Channel, a.cfg.Messenger.ServerID,
		xmessenger.WithLogger(a.logger),
		xmessenger.WithDispatch(1, 0),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(m)
}

func (a *app) publishCommand() *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "在子频道上发送一条 JSON 消息",
		ArgsUsage: "<channel> <json>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Usage: "只发给指定服务器 id"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := requireArgs(cmd, 2); err != nil {
				return err
			}
			name, body := cmd.Args().Get(0), cmd.Args().Get(1)
			if !json.Valid([]byte(body)) {
				return &usageError{msg: "消息不是合法的 JSON"}
			}
			return a.withMessenger(ctx, func(m *xmessenger.Messenger) error {
				ch, err := xmessenger.Register[json.RawMessage](m, name)
				if err != nil {
					return err
				}
				if target := cmd.String("target"); target != "" {
					return ch.SendTo(ctx, json.RawMessage(body), target)
				}
				return ch.Send(ctx, json.RawMessage(body))
			})
		},
	}
}

// received listen 输出的一行
type received struct {
	Channel string          `json:"channel"`
	Server  string          `json:"server"`
	Target  string          `json:"targetServer,omitempty"`
	Message json.RawMessage `json:"message"`
}

var encodeReceived = xjsoncodec.Marshal[received]()

func (a *app) listenCommand() *cli.Command {
	return &cli.Command{
		Name:      "listen",
		Usage:     "接收子频道消息，每行输出一条",
		ArgsUsage: "<channel>...",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Usage: "收到指定条数后退出，0 表示一直运行"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() == 0 {
				return &usageError{msg: "listen 至少需要一个频道"}
			}
			return a.listen(ctx, cmd.Args().Slice(), cmd.Int("count"))
		},
	}
}

func (a *app) listen(ctx context.Context, channels []string, count int) error {
	return a.withMessenger(ctx, func(m *xmessenger.Messenger) error {
		msgs := make(chan received, 64)
		forward := func(ctx context.Context, msg xmessenger.Message[json.RawMessage]) {
			select {
			case msgs <- received{Channel: msg.Channel, Server: msg.Server, Target: msg.Target, Message: msg.Payload}:
			case <-ctx.Done():
			}
		}
		for _, name := range channels {
			ch, err := xmessenger.Register[json.RawMessage](m, name)
			if err != nil {
				return err
			}
			ch.AddListener(forward)
		}
		a.logger.Info(ctx, "listening", xlog.Server(m.ServerID()), xlog.Count(len(channels)))

		var watcher *xconf.Watcher
		if a.raw != nil {
			w, err := watchLogLevel(ctx, a.raw, a.logger)
			if err != nil {
				return err
			}
			watcher = w
		}

		g, _ := xrun.NewGroup(ctx, xrun.WithName("listen"), xrun.WithLogger(a.logger))
		if watcher != nil {
			g.Go("config-watch", func(ctx context.Context) error {
				<-ctx.Done()
				return watcher.Stop()
			})
		}
		g.Go("printer", func(ctx context.Context) error {
			printed := 0
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case r := <-msgs:
					line, err := encodeReceived(r)
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintf(a.stdout, "%s\n", line); err != nil {
						return err
					}
					printed++
					if count > 0 && printed >= count {
						g.Cancel(nil)
						return nil
					}
				}
			}
		})
		return g.Wait()
	})
}
