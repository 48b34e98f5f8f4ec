// Copyright 2021-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

var ErrEmptyFrame = errors.New("compressed value is empty")

// Compress encodes in as a single lz4 frame. Cached estimates are small and read far
// more often than written, so the fast level with block checksums is used.
func Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if err := zw.Apply(lz4.CompressionLevelOption(lz4.Fast), lz4.BlockChecksumOption(true)); err != nil {
		return nil, fmt.Errorf("configure lz4 writer: %w", err)
	}

	if _, err := zw.Write(in); err != nil {
		return nil, fmt.Errorf("compress cache value: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close lz4 frame: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes a frame written by Compress
func Decompress(in []byte) ([]byte, error) {
	if len(in) == 0 {
		return nil, ErrEmptyFrame
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(in))); err != nil {
		return nil, fmt.Errorf("decompress cache value: %w", err)
	}
	return buf.Bytes(), nil
}
