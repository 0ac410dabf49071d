// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bzed/grad-aff/pbo"
)

var (
	pboExtractOutput  string
	pboExtractWorkers int
	pboInfoVerify     bool
)

var pboCmd = &cobra.Command{
	Use:   "pbo",
	Short: "Operations on PBO archives",
}

var pboInfoCmd = &cobra.Command{
	Use:   "info <pbo_file>",
	Short: "Show information about a PBO file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPboInfo,
}

var pboExtractCmd = &cobra.Command{
	Use:   "extract <pbo_file>",
	Short: "Extract all entries of a PBO file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPboExtract,
}

func init() {
	rootCmd.AddCommand(pboCmd)
	pboCmd.AddCommand(pboInfoCmd)
	pboCmd.AddCommand(pboExtractCmd)

	pboInfoCmd.Flags().BoolVar(&pboInfoVerify, "verify", false,
		"verify the SHA1 trailer hash")
	pboExtractCmd.Flags().StringVarP(&pboExtractOutput, "output", "o", ".",
		"output directory for extracted files")
	pboExtractCmd.Flags().IntVar(&pboExtractWorkers, "workers", 0,
		"number of extraction workers (0 means number of CPUs)")
}

func runPboInfo(cmd *cobra.Command, args []string) error {
	r, err := pbo.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	entries := r.Entries()
	fmt.Printf("PBO Info: %s\n", args[0])
	fmt.Printf("  %d file entries\n", len(entries))

	headers := r.Headers()
	if len(headers) > 0 {
		fmt.Println("  Product entries:")
		for _, h := range headers {
			fmt.Printf("    %s: %s\n", h.Key, h.Value)
		}
	}

	for _, e := range entries {
		mark := ""
		if e.IsCompressed() {
			mark = " (compressed)"
		}

		ts := time.Unix(int64(e.TimeStamp), 0).UTC().Format(time.DateOnly)
		fmt.Printf("  %s  %d bytes  %s%s\n", e.Path, e.DataSize, ts, mark)
	}

	if pboInfoVerify {
		ok, err := r.VerifyHash()
		if err != nil {
			return err
		}

		fmt.Printf("  Hash valid: %v\n", ok)
	}

	return nil
}

func runPboExtract(cmd *cobra.Command, args []string) error {
	r, err := pbo.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	err = r.Extract(cmd.Context(), pboExtractOutput, pbo.ExtractOptions{
		MaxWorkers: pboExtractWorkers,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %s to %s\n", args[0], pboExtractOutput)
	return nil
}
