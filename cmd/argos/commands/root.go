package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "argos",
	Short: "Argos - 자동매매 의사결정 엔진",
	Long: `Argos Decision Engine CLI

Fast → Deep → AI 3단계 스캔으로 매수 후보를 골라내고,
리스크 모드 상태머신이 진입 허용과 포지션 크기를 결정합니다.

Usage:
  go run ./cmd/argos [command]

Examples:
  go run ./cmd/argos serve
  go run ./cmd/argos scan
  go run ./cmd/argos status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
