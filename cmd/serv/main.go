package main

import (
	"fmt"
	"log"

	"github.com/dushixiang/coinbook/internal"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string

	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "coinbook",
	Short: "Coinbook - 加密资产领取、持仓与收支记账",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		// .env 可选，不存在时忽略
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env") {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return internal.Run(configFile)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "打印版本号",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "配置文件路径")
	rootCmd.Flags().StringVar(&envFile, "env", ".env", "环境变量文件路径")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
