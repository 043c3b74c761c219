package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roverlink/roverd/config"
	"github.com/roverlink/roverd/core/ingest"
	"github.com/roverlink/roverd/core/protocol"
	"github.com/roverlink/roverd/infra/mqtt"
)

var (
	sendLeft    float32
	sendRight   float32
	sendTimeout uint32
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Publish a test immediate command on the command topic",
	RunE:  sendImmediate,
}

func init() {
	sendCmd.Flags().Float32Var(&sendLeft, "left", 0, "left motor fraction [-1,1]")
	sendCmd.Flags().Float32Var(&sendRight, "right", 0, "right motor fraction [-1,1]")
	sendCmd.Flags().Uint32Var(&sendTimeout, "timeout", 200, "command timeout in milliseconds")
	rootCmd.AddCommand(sendCmd)
}

func sendImmediate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	payload, err := protocol.FormatImmediate(sendLeft, sendRight, sendTimeout, ingest.WallClock())
	if err != nil {
		return err
	}

	client, err := mqtt.NewPahoClient(cfg.MQTT, nil, nil)
	if err != nil {
		return fmt.Errorf("mqtt client: %w", err)
	}
	defer client.Disconnect()

	if err := client.PublishCommand(payload); err != nil {
		return fmt.Errorf("publish command: %w", err)
	}
	return nil
}
