// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package protocol

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrame(t *testing.T) {
	t.Run("appends CRLF", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteFrame(&buf, "hello"))
		assert.Equal(t, "hello\r\n", buf.String())
	})

	t.Run("rejects embedded newline", func(t *testing.T) {
		var buf bytes.Buffer
		err := WriteFrame(&buf, "two\nlines")
		require.Error(t, err)
		assert.Zero(t, buf.Len())
	})
}

func TestReadFrame(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf terminated", "status\r\n", "status"},
		{"lf terminated", "status\n", "status"},
		{"empty frame", "\r\n", ""},
		{"eof without terminator", "partial", "partial"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadFrame(bufio.NewReader(strings.NewReader(tt.input)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("eof on empty input", func(t *testing.T) {
		_, err := ReadFrame(bufio.NewReader(strings.NewReader("")))
		require.Error(t, err)
	})
}

func TestIsPing(t *testing.T) {
	assert.True(t, IsPing("ping"))
	assert.True(t, IsPing("ping\r\n"))
	assert.True(t, IsPing("ping\n"))
	assert.False(t, IsPing("pings"))
	assert.False(t, IsPing(" ping"))
	assert.False(t, IsPing("pong"))
}
