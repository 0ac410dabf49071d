// SPDX-License-Identifier: MIT
// Copyright (c) 2026 bzed
// Source: github.com/bzed/grad-aff

/*
Package pbo reads, extracts, writes and verifies PBO (Packed Bank of files)
archives used by the Arma engine family.

A PBO is a leading null byte, a "Vers" product header with zero-terminated
key/value pairs, an entry index, the sequential payload region, and an
optional trailing 0x00 + SHA1 over everything before it. Entries whose
original size is nonzero and differs from the stored size carry an
LZSS-packed payload with an unsigned additive checksum.

# Reading

Open a PBO and list or read entries:

	r, err := pbo.Open("addon.pbo")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    data, _ := r.ReadEntry(e.Path)
	    // use data
	}

Lookups are case-insensitive and honor the "prefix" product entry, so with
prefix "z\my_mod" both of these resolve the same entry:

	r.HasEntry(`z\my_mod\config.bin`)
	r.HasEntry("config.bin")

Verify the trailer hash (a mismatch is a boolean result, not an error):

	ok, err := r.VerifyHash()

# Extracting

Extract all entries to a directory (parallel workers):

	if err := r.Extract(ctx, "out/", pbo.ExtractOptions{MaxWorkers: 4}); err != nil {
	    return err
	}

# Writing

Pack from stream-oriented inputs (order is deterministic by path);
compression candidates are selected with github.com/woozymasta/pathrules:

	inputs := []pbo.Input{
	    {Path: "config.cpp", Open: func() (io.ReadCloser, error) { return os.Open("src/config.cpp") }},
	}
	entries, err := pbo.PackFile(ctx, "addon.pbo", inputs, pbo.PackOptions{
	    Headers: []pbo.HeaderPair{{Key: "prefix", Value: "myaddon"}},
	    Compress: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "*.rvmat"},
	    },
	})

A parsed archive can be re-serialized without recompression; stored
payload bytes are copied verbatim and the trailer is recomputed:

	err := r.WriteFile(ctx, "copy.pbo")
*/
package pbo
