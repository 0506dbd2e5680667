// pkg/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"mergevault/pkg/content"
	"mergevault/pkg/meta"
	"mergevault/pkg/storage"
	"mergevault/pkg/storage/cache"
	"mergevault/pkg/storage/disk"
	"mergevault/pkg/storage/memory"
	"mergevault/pkg/storage/s3"
	"mergevault/pkg/vault"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
// 它持有所有“单例”服务
type App struct {
	Store storage.Store
	Meta  *meta.Repository
	Vault *vault.Vault
}

// NewApp 是工厂函数，负责按 Viper 配置组装这一台机器
// 它不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	// 1. 初始化对象存储 (按配置切换后端)
	store, err := buildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	// 2. 可选的 Redis 缓存层 (装饰器)
	if redisURL := viper.GetString("cache.redis_url"); redisURL != "" {
		store, err = cache.NewCachedStore(store, cache.Config{
			RedisURL: redisURL,
			TTL:      viper.GetDuration("cache.ttl"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init redis cache: %w", err)
		}
	}

	// 3. 元数据层 (分支指针 + 提交索引)
	metaRepo, err := buildMeta(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init meta db: %w", err)
	}

	// 4. 组装 Vault
	v := vault.New(store, metaRepo, content.NewDefaultRegistry())

	return &App{
		Store: store,
		Meta:  metaRepo,
		Vault: v,
	}, nil
}

func buildStore(ctx context.Context) (storage.Store, error) {
	switch backend := viper.GetString("storage.backend"); backend {
	case "memory":
		return memory.NewAdapter(), nil
	case "disk":
		path := viper.GetString("storage.path")
		if path == "" {
			return nil, fmt.Errorf("storage path not set")
		}
		return disk.NewAdapter(path)
	case "s3":
		return s3.NewAdapter(ctx, s3.Config{
			Endpoint:        viper.GetString("s3.endpoint"),
			Region:          viper.GetString("s3.region"),
			Bucket:          viper.GetString("s3.bucket"),
			AccessKeyID:     viper.GetString("s3.access_key_id"),
			SecretAccessKey: viper.GetString("s3.secret_access_key"),
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", backend)
	}
}

func buildMeta(ctx context.Context) (*meta.Repository, error) {
	switch driver := viper.GetString("meta.driver"); driver {
	case "sqlite":
		db, err := meta.NewLocalDB(viper.GetString("meta.path"))
		if err != nil {
			return nil, err
		}
		return meta.NewRepository(db), nil
	case "postgres":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := meta.NewDB(ctx, meta.Config{
			Host:     viper.GetString("meta.host"),
			Port:     viper.GetInt("meta.port"),
			User:     viper.GetString("meta.user"),
			Password: viper.GetString("meta.password"),
			DBName:   viper.GetString("meta.dbname"),
			SSLMode:  viper.GetString("meta.sslmode"),
		})
		if err != nil {
			return nil, err
		}
		return meta.NewRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown meta driver: %q", driver)
	}
}
