package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		// 如果用户指定了文件，直接使用
		viper.SetConfigFile(cfgFile)
	} else {
		// 否则按优先级搜索
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：
		// 1. 当前目录
		viper.AddConfigPath(".")
		// 2. 当前目录下的 .mvt
		viper.AddConfigPath(".mvt")
		// 3. 用户主目录下的 .mvt
		viper.AddConfigPath(filepath.Join(home, ".mvt"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (MVT_STORAGE_BACKEND 等)
	viper.SetEnvPrefix("MVT")
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错 (可能全靠默认值和环境变量)
		// 但配置文件格式错必须报
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	}

	return nil
}

func setDefaults() {
	// 存储后端: memory | disk | s3
	viper.SetDefault("storage.backend", "disk")
	viper.SetDefault("storage.path", ".mvt/objects")

	// S3 (兼容 MinIO)
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.bucket", "mergevault")

	// Redis 缓存层，空 URL = 关闭
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.ttl", 24*time.Hour)

	// 元数据库: sqlite (本地) | postgres (服务端)
	viper.SetDefault("meta.driver", "sqlite")
	viper.SetDefault("meta.path", ".mvt/meta.db")
	viper.SetDefault("meta.host", "localhost")
	viper.SetDefault("meta.port", 5432)
	viper.SetDefault("meta.user", "mergevault")
	viper.SetDefault("meta.dbname", "mergevault")
	viper.SetDefault("meta.sslmode", "disable")

	// 提交者身份
	viper.SetDefault("author", "anonymous")
}
