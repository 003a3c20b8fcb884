// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Peregrine Robotics

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/peregrine-robotics/turbopi/pkg/rrc"
)

var recordOut string

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Decode and display inbound board frames",
	Long: `Continuously decode frames arriving from the expansion board and print
them in human-readable form.

With --out, each decoded frame is additionally appended to a capture
file as a CBOR record stream for later analysis.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "", "CBOR capture file to append to")
	rootCmd.AddCommand(recordCmd)
}

// frameRecord is the capture file entry. Field names are kept short;
// capture files from long soak runs get large.
type frameRecord struct {
	Time     time.Time `cbor:"t"`
	Function uint8     `cbor:"f"`
	Payload  []byte    `cbor:"p"`
}

func runRecord(cmd *cobra.Command, args []string) error {
	ctrl := openController()
	defer ctrl.Close()

	if !ctrl.Connected() {
		fmt.Println("Board simulated: no frames will arrive")
	}

	var enc *cbor.Encoder
	if recordOut != "" {
		f, err := os.OpenFile(recordOut, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening capture file: %w", err)
		}
		defer f.Close()
		enc = cbor.NewEncoder(f)
		fmt.Printf("Appending CBOR records to %s\n", recordOut)
	}

	// One subscription per function code catches everything the board
	// can emit.
	frames := make(chan *rrc.Frame, 64)
	for fn := rrc.FuncSys; fn <= rrc.FuncRGB; fn++ {
		ctrl.Conn().Subscribe(fn, frames)
	}

	fmt.Println("Recording. Press Ctrl+C to exit.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			fmt.Print(rrc.FormatFrame(frame))
			if enc != nil {
				rec := frameRecord{
					Time:     frame.Timestamp(),
					Function: uint8(frame.Function()),
					Payload:  frame.Payload(),
				}
				if err := enc.Encode(rec); err != nil {
					return fmt.Errorf("writing capture record: %w", err)
				}
			}
		case <-sig:
			return nil
		}
	}
}
