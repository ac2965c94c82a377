// Package persist implements the textual, atomic save/load layer of
// spec §4.I: write-temp-then-rename saves with owner-only permissions,
// and a two-pass validate-then-load reader that salvages a corrupt
// file into a `.bak` backup rather than failing the caller.
package persist

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MethodologyFileName and AgencyFileName are the two persistence files
// spec §4.I names.
const (
	MethodologyFileName = "methodology.agerun"
	AgencyFileName      = "agency.agerun"
)

// writeAtomic writes data to path via a temp-file-and-rename (spec
// §4.I / §6: "write to <file>.tmp, flush, close, rename to final
// name"), with permissions tightened to owner read/write only.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("persist: write %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o600); err != nil {
		return fmt.Errorf("persist: chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("persist: rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

// backupAndRemove implements the corruption-salvage path (spec §4.I /
// §8 scenario 6): copy the corrupt file to "<path>.bak", then remove
// the original, leaving the caller free to continue with empty state.
func backupAndRemove(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("persist: read %s for backup: %w", path, err)
	}
	if err := os.WriteFile(path+".bak", data, 0o600); err != nil {
		return fmt.Errorf("persist: write backup %s: %w", path+".bak", err)
	}
	return os.Remove(path)
}

// readDecoded reads path and returns its content decoded to UTF-8,
// sniffing a UTF-8 or UTF-16 BOM the way go-dws's
// internal/interp/encoding.go detectAndDecodeFile does. A missing file
// is reported as ("", false, nil) so callers treat "never saved" the
// same as "validated empty".
func readDecoded(path string) (string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("persist: read %s: %w", path, err)
	}

	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), true, nil
	}
	if len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE {
		s, err := decodeUTF16(data, unicode.LittleEndian)
		return s, true, err
	}
	if len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF {
		s, err := decodeUTF16(data, unicode.BigEndian)
		return s, true, err
	}
	return string(data), true, nil
}

func decodeUTF16(data []byte, endianness unicode.Endianness) (string, error) {
	decoder := unicode.UTF16(endianness, unicode.UseBOM).NewDecoder()
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", fmt.Errorf("persist: decode UTF-16: %w", err)
	}
	out = bytes.TrimPrefix(out, []byte("﻿"))
	return string(out), nil
}
