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

package service

import (
	"fmt"
	"net"
	"strings"
)

// textHandler is the built-in request handler: a small text-transform
// service. The request line is "<verb> <text>"; unknown verbs get a
// usage hint rather than a dropped connection.
func textHandler(msg string, conn net.Conn) (string, error) {
	verb, rest, _ := strings.Cut(msg, " ")

	switch verb {
	case "upper":
		return strings.ToUpper(rest), nil
	case "lower":
		return strings.ToLower(rest), nil
	case "reverse":
		return reverse(rest), nil
	case "len":
		return fmt.Sprintf("%d", len(rest)), nil
	case "echo":
		return rest, nil
	case "":
		return "error: empty request", nil
	default:
		return fmt.Sprintf("error: unknown verb %q (try upper, lower, reverse, len, echo)", verb), nil
	}
}

func reverse(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
