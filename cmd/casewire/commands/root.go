package commands

import (
	"github.com/spf13/cobra"

	"casewire/internal/app"
)

var (
	chunkSize    int
	maxFileBytes int64

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "casewire",
		Short: "Secure case-file transmission layer",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			wire = app.NewWire(app.Config{
				ChunkSize:    chunkSize,
				MaxFileBytes: maxFileBytes,
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if wire != nil {
				wire.Close()
			}
		},
	}

	root.PersistentFlags().IntVar(&chunkSize, "chunk-size", 0, "ciphertext chunk size in bytes (default 64 KiB)")
	root.PersistentFlags().Int64Var(&maxFileBytes, "max-file-bytes", 0, "per-transfer plaintext ceiling (default 100 MiB)")

	root.AddCommand(demoCmd())
	return root.Execute()
}
