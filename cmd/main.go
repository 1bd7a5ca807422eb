package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ellison351/gis-web/internal/config"
	applog "github.com/ellison351/gis-web/internal/logger"
)

var (
	// グローバルフラグ
	configPath string
	debug      bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gis-web",
	Short: "彭城汉墓遗址地图サーバー",
	Long: `徐州（彭城）の漢代遺跡を地図に表示するサーバー。

遺跡データを読み込み、ブラウザごとの地図セッション（検索、物語パネル、
ヒートレイヤー、徒歩ルート）をHTTPとWebSocketで提供する。

引数なしで起動した場合は serve と同じ。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = applog.New(cfg.Logging.Level, debug)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "設定ファイルのパス（存在しなければ既定値）")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "DEBUGログを有効にする")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(enrichCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
