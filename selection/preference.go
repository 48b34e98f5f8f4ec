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

package selection

import (
	"fmt"
	"strings"
)

// Preference is the investor's risk tolerance
type Preference int

const (
	Low Preference = iota
	Medium
	High
)

// ParsePreference accepts "low", "medium" or "high" in any case; an empty string is
// Medium
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "medium", "":
		return Medium, nil
	case "high":
		return High, nil
	default:
		return Medium, fmt.Errorf("%w: %q", ErrUnknownPreference, s)
	}
}

func (p Preference) String() string {
	switch p {
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	default:
		return fmt.Sprintf("Preference(%d)", int(p))
	}
}

func (p Preference) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Preference) UnmarshalText(text []byte) error {
	parsed, err := ParsePreference(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
