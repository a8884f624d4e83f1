// Package codec compresses serialized save documents for storage.
//
// Blobs are gzip-compressed JSON. Decode carries a recovery path: if the
// gzip stream is unreadable the blob is retried as plain JSON, which
// both recovers saves written before compression was introduced and
// gives truncated blobs one honest second chance before the caller
// reports corruption.
package codec

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// Encode compresses payload for storage.
func Encode(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("create gzip writer: %w", err)
	}
	if _, err := writer.Write(payload); err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("flush gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses a stored blob. The returned recovered flag is true
// when the primary gzip path failed and the alternate plain-JSON path
// succeeded instead.
func Decode(blob []byte) (payload []byte, recovered bool, err error) {
	if len(blob) == 0 {
		return nil, false, fmt.Errorf("blob is empty")
	}

	payload, gzErr := gunzip(blob)
	if gzErr == nil {
		return payload, false, nil
	}

	// Recovery path: accept the blob as uncompressed JSON.
	if json.Valid(blob) {
		return blob, true, nil
	}

	return nil, false, fmt.Errorf("decompress blob: %w", gzErr)
}

func gunzip(blob []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return payload, nil
}
