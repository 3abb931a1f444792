package commands

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"casewire/internal/audit"
	"casewire/internal/channel"
	"casewire/internal/crypto"
	"casewire/internal/domain"
	"casewire/internal/protocol/exchange"
	"casewire/internal/transport"
)

// demoCmd runs one full protocol round in process: session init, key
// exchange with a simulated remote party, a chunked file transfer, and an
// encrypted channel message over a loopback transport.
func demoCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a loopback session, transfer and channel exchange",
		RunE: func(cmd *cobra.Command, args []string) error {
			wire.Audit.Subscribe(audit.LogSink{Logger: log.New(os.Stderr, "", log.LstdFlags)})

			payload := []byte("casewire loopback demo payload\n")
			name := "demo.txt"
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				payload = b
				name = file
			}

			// Local side: open a session.
			resp, err := wire.Sessions.Create("principal-local", "principal-remote", 10*time.Minute, 4)
			if err != nil {
				return err
			}
			sid := domain.SessionID(resp.SessionID)
			fmt.Printf("session %s, expires %s\n", resp.SessionID, resp.ExpiresAt)

			// Remote side: run the counterpart exchange with bare
			// primitives, as a browser or peer service would.
			remotePriv, remotePub, err := exchange.Initiate(rand.Reader)
			if err != nil {
				return err
			}
			req := domain.KeyExchangeRequest{
				SessionID:       resp.SessionID,
				RemotePublicKey: crypto.B64(remotePub.Slice()),
			}
			reqKey, err := crypto.B64Decode(req.RemotePublicKey)
			if err != nil {
				return err
			}
			if err := wire.Sessions.CompleteExchange(domain.SessionID(req.SessionID), reqKey); err != nil {
				return err
			}
			localPub, err := crypto.B64Decode(resp.PublicKey)
			if err != nil {
				return err
			}
			remoteKey, err := exchange.Complete(remotePriv, localPub, sid, 0)
			if err != nil {
				return err
			}

			// Transfer: encrypt+chunk, drain the chunk queue, reassemble.
			prep, err := wire.Transfers.Transmit(sid, payload, domain.TransferMetadata{
				FileName:    name,
				Sensitivity: "internal",
			})
			if err != nil {
				return err
			}
			fmt.Printf("transfer %s: %d bytes -> %d encrypted, %d chunks\n",
				prep.TransferID, prep.FileSize, prep.EncryptedSize, prep.TotalChunks)

			var chunks []domain.Chunk
			for {
				rec, err := wire.Transfers.NextChunk(domain.TransferID(prep.TransferID))
				if err != nil {
					return err
				}
				if rec == nil {
					break
				}
				data, err := crypto.B64Decode(rec.Data)
				if err != nil {
					return err
				}
				chunks = append(chunks, domain.Chunk{Index: rec.ChunkIndex, Data: data, Hash: rec.Hash})
				fmt.Printf("  chunk %d/%d (%d%%)\n", rec.ChunkIndex+1, prep.TotalChunks, rec.Progress)
			}

			got, _, err := wire.Transfers.Receive(sid, prep.Metadata, chunks)
			if err != nil {
				return err
			}
			fmt.Printf("received %d bytes intact\n", len(got))

			// Channel: one encrypted message over a loopback pipe, opened
			// with the remote party's independently derived key.
			a, b := transport.Pipe(4)
			defer a.Close()

			local := channel.Secure(a, mustKey(sid), domain.SystemClock{}, rand.Reader)
			remote := channel.Secure(b, remoteKey, domain.SystemClock{}, rand.Reader)

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			done := make(chan []byte, 1)
			remote.OnMessage(func(plain []byte) { done <- plain })
			remote.OnError(func(err error) { fmt.Fprintf(os.Stderr, "channel error: %v\n", err) })
			go remote.Run(ctx)

			if err := local.Send(ctx, []byte("channel check")); err != nil {
				return err
			}
			select {
			case msg := <-done:
				fmt.Printf("channel delivered: %q\n", msg)
			case <-ctx.Done():
				return ctx.Err()
			}

			wire.Sessions.Close(sid, "demo finished")
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "file to transfer instead of the built-in payload")
	return cmd
}

// mustKey fetches the session's derived key for the channel leg of the demo.
func mustKey(sid domain.SessionID) domain.SymmetricKey {
	sess, err := wire.Sessions.Authorize(sid)
	if err != nil {
		panic(err)
	}
	return sess.Key
}
