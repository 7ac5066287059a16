package backup

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Format version constants. V1 files are plain JSON; V2 files carry a JSON
// header line followed by a gzip payload.
const (
	FormatV1 = 1
	FormatV2 = 2
)

// MaxDecompressedSize bounds the decompressed payload (200MB).
const MaxDecompressedSize = 200 * 1024 * 1024

// BackupHeader is the plain-text first line of a V2 backup file.
type BackupHeader struct {
	Version    int    `json:"version"`
	Checksum   string `json:"checksum"`
	RunCount   int    `json:"run_count"`
	TickCount  int    `json:"tick_count"`
	Compressed bool   `json:"compressed"`
}

// DetectFormat reads the first line of path to tell V1 from V2.
func DetectFormat(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading first line: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, fmt.Errorf("file is empty")
	}

	var header BackupHeader
	if err := json.Unmarshal([]byte(line), &header); err == nil && header.Version == FormatV2 {
		return FormatV2, nil
	}
	if line[0] == '{' {
		return FormatV1, nil
	}
	return 0, fmt.Errorf("unrecognized backup format")
}

// ReadFile reads a backup of either format.
func ReadFile(path string) (*BackupFormat, error) {
	version, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if version == FormatV2 {
		return ReadV2(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	var b BackupFormat
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing backup data: %w", err)
	}
	if b.Version != FormatV1 {
		return nil, fmt.Errorf("unsupported backup version: %d", b.Version)
	}
	return &b, nil
}

// WriteV2 writes b as a header line followed by its gzip-compressed JSON.
func WriteV2(path string, b *BackupFormat) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshaling payload: %w", err)
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(payload); err != nil {
		return fmt.Errorf("compressing payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	header := BackupHeader{
		Version:    FormatV2,
		Checksum:   checksum(compressed.Bytes()),
		RunCount:   len(b.Runs),
		TickCount:  b.TickCount(),
		Compressed: true,
	}
	headerBytes, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshaling header: %w", err)
	}

	if err := ensureDir(path); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	w.Write(headerBytes)
	w.WriteByte('\n')
	w.Write(compressed.Bytes())
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	return nil
}

// ReadV2 reads a V2 backup, verifying the checksum before decompressing.
func ReadV2(path string) (*BackupFormat, error) {
	header, compressed, err := readV2Raw(path)
	if err != nil {
		return nil, err
	}
	if got := checksum(compressed); got != header.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", header.Checksum, got)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gzr.Close()

	decompressed, err := io.ReadAll(io.LimitReader(gzr, MaxDecompressedSize+1))
	if err != nil {
		return nil, fmt.Errorf("decompressing payload: %w", err)
	}
	if int64(len(decompressed)) > MaxDecompressedSize {
		return nil, fmt.Errorf("decompressed payload exceeds maximum size of %d bytes", MaxDecompressedSize)
	}

	var b BackupFormat
	if err := json.Unmarshal(decompressed, &b); err != nil {
		return nil, fmt.Errorf("parsing backup data: %w", err)
	}
	return &b, nil
}

// ReadV2Header reads only the header line of a V2 backup.
func ReadV2Header(path string) (*BackupHeader, error) {
	header, _, err := readV2Raw(path)
	return header, err
}

func readV2Raw(path string) (*BackupHeader, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	headerLine, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("reading header line: %w", err)
	}
	var header BackupHeader
	if err := json.Unmarshal(bytes.TrimSpace(headerLine), &header); err != nil {
		return nil, nil, fmt.Errorf("parsing header: %w", err)
	}
	if header.Version != FormatV2 {
		return nil, nil, fmt.Errorf("expected V2 format, got version %d", header.Version)
	}

	compressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("reading compressed payload: %w", err)
	}
	return &header, compressed, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}
