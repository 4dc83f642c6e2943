package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/LUONGTHUTRANG/project3-ql-ktx-sub002/config"
)

// Client Redis 客户端封装
// 当前用于写接口限流与通知死信队列
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return NewFromClient(rdb, logger), nil
}

// NewFromClient 包装已有连接（测试中配合 miniredis 等使用）
func NewFromClient(rdb *goredis.Client, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── 限流 ──

// CheckRateLimit 基于有序集合的滑动窗口计数
// 返回 true 表示本次请求允许通过
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	// 成员带随机后缀，同一纳秒内的多次请求也分别计数
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return card.Val() <= int64(limit), nil
}

// ── 通知死信队列 ──

const (
	deadLetterKey    = "notification:dead_letter"
	deadLetterMaxLen = 1000
)

// PushDeadLetter 记录一条发送失败的通知，仅保留最近 deadLetterMaxLen 条
func (c *Client) PushDeadLetter(ctx context.Context, payload []byte) error {
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, deadLetterKey, payload)
	pipe.LTrim(ctx, deadLetterKey, 0, deadLetterMaxLen-1)
	_, err := pipe.Exec(ctx)
	return err
}

// ListDeadLetters 读取最近 limit 条死信（新的在前）
func (c *Client) ListDeadLetters(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.rdb.LRange(ctx, deadLetterKey, 0, limit-1).Result()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
